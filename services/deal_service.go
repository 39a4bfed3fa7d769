package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"deal-market-server/models"
	"deal-market-server/storage"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// DealService owns the deal status state machine. Every status write,
// user-initiated or payment-initiated, goes through transition so the
// completed-deal immutability and idempotence rules live in one place.
type DealService struct{}

func NewDealService() *DealService {
	return &DealService{}
}

// loadDeal fetches the full aggregate: seller, buyer and bids (with their
// buyers) in submission order.
func loadDeal(dealID uint) (*models.Deal, error) {
	var deal models.Deal
	err := storage.DB.
		Preload("Seller").
		Preload("Buyer").
		Preload("Bids", func(db *gorm.DB) *gorm.DB { return db.Order("bids.id ASC") }).
		Preload("Bids.Buyer").
		First(&deal, dealID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: deal %d", ErrNotFound, dealID)
	}
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// CanAccessDeal reports whether the user is the deal's seller or one of
// its bidders. The realtime hub uses it as the room-join capability check.
func CanAccessDeal(dealID, userID uint) bool {
	deal, err := loadDeal(dealID)
	if err != nil {
		return false
	}
	return deal.IsSeller(userID) || deal.HasBidder(userID)
}

// transition applies a status change to the loaded aggregate and reports
// whether anything changed. Once a deal is Completed its status is frozen:
// user-driven writes get ErrConflict, while the trusted path (payment
// confirmation, delivered at-least-once) treats the replay as a no-op so
// CompletedAt is set exactly once.
func transition(deal *models.Deal, newStatus string, trusted bool) (changed bool, err error) {
	if !slices.Contains(models.DealStatuses, newStatus) {
		return false, fmt.Errorf("%w: invalid status %q", ErrValidation, newStatus)
	}
	if deal.Status == models.DealStatusCompleted {
		if newStatus == models.DealStatusCompleted || trusted {
			return false, nil
		}
		return false, fmt.Errorf("%w: completed deals cannot be changed", ErrConflict)
	}
	deal.Status = newStatus
	if newStatus == models.DealStatusCompleted && deal.CompletedAt == nil {
		now := time.Now()
		deal.CompletedAt = &now
	}
	return true, nil
}

type CreateDealInput struct {
	Title       string
	Description string
	Price       float64
}

func (s *DealService) Create(sellerID uint, input CreateDealInput) (*models.Deal, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	deal := models.Deal{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Status:      models.DealStatusPending,
		SellerID:    sellerID,
	}
	if err := storage.DB.Create(&deal).Error; err != nil {
		return nil, err
	}
	storage.DB.Preload("Seller").First(&deal, deal.ID)
	return &deal, nil
}

// List returns the deals visible to the caller: admins see everything,
// sellers their own listings, buyers the deals still open for bidding.
func (s *DealService) List(callerID uint, role string) ([]models.Deal, error) {
	query := storage.DB.
		Preload("Seller").
		Preload("Buyer").
		Preload("Bids", func(db *gorm.DB) *gorm.DB { return db.Order("bids.id ASC") }).
		Preload("Bids.Buyer").
		Order("deals.created_at DESC")

	switch role {
	case models.RoleAdmin:
	case models.RoleSeller:
		query = query.Where("seller_id = ?", callerID)
	default:
		query = query.Where("status <> ? AND buyer_id IS NULL", models.DealStatusCompleted)
	}

	var deals []models.Deal
	if err := query.Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}

func (s *DealService) Details(dealID uint) (*models.Deal, error) {
	return loadDeal(dealID)
}

// validateAccept applies the buyer-assignment rules: sellers never buy
// their own deals, the buyer slot is filled at most once, and completed
// deals are closed for good.
func validateAccept(deal *models.Deal, buyerID uint) error {
	if deal.IsSeller(buyerID) {
		return fmt.Errorf("%w: sellers cannot accept their own deals", ErrForbidden)
	}
	if deal.HasBuyer() {
		return fmt.Errorf("%w: deal already assigned to a buyer", ErrConflict)
	}
	if deal.Status == models.DealStatusCompleted {
		return fmt.Errorf("%w: completed deals cannot be accepted", ErrConflict)
	}
	return nil
}

// Accept assigns the caller as the deal's buyer. The buyer is set at most
// once across the deal's lifetime.
func (s *DealService) Accept(dealID, buyerID uint) (*models.Deal, error) {
	unlock := lockDeal(dealID)
	defer unlock()

	deal, err := loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if err := validateAccept(deal, buyerID); err != nil {
		return nil, err
	}

	deal.BuyerID = &buyerID
	deal.Status = models.DealStatusInProgress
	err = storage.DB.Model(&models.Deal{}).Where("id = ?", deal.ID).
		Updates(map[string]interface{}{"buyer_id": buyerID, "status": deal.Status}).Error
	if err != nil {
		return nil, err
	}
	return deal, nil
}

// UpdateStatus is the seller/admin-driven status change.
func (s *DealService) UpdateStatus(dealID, callerID uint, role, newStatus string) (*models.Deal, error) {
	unlock := lockDeal(dealID)
	defer unlock()

	deal, err := loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsSeller(callerID) && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only the seller or an admin can update the status", ErrForbidden)
	}
	changed, err := transition(deal, newStatus, false)
	if err != nil {
		return nil, err
	}
	if !changed {
		return deal, nil
	}
	if err := s.persistStatus(deal); err != nil {
		return nil, err
	}
	return deal, nil
}

// CompleteViaPayment applies a payment-confirmed completion. Idempotent
// under at-least-once webhook delivery: a replay for an already completed
// deal changes nothing.
func (s *DealService) CompleteViaPayment(dealID, buyerID uint) (*models.Deal, error) {
	unlock := lockDeal(dealID)
	defer unlock()

	deal, err := loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	changed, err := transition(deal, models.DealStatusCompleted, true)
	if err != nil {
		return nil, err
	}
	if !changed {
		return deal, nil
	}
	if !deal.HasBuyer() {
		deal.BuyerID = &buyerID
	}
	err = storage.DB.Model(&models.Deal{}).Where("id = ?", deal.ID).
		Updates(map[string]interface{}{
			"status":       deal.Status,
			"buyer_id":     deal.BuyerID,
			"completed_at": deal.CompletedAt,
		}).Error
	if err != nil {
		return nil, err
	}
	return deal, nil
}

// canDeleteDeal applies the ownership rules: admins always, the seller
// only while no buyer is assigned, the assigned buyer otherwise.
func canDeleteDeal(deal *models.Deal, callerID uint, role string) bool {
	if role == models.RoleAdmin {
		return true
	}
	if deal.IsSeller(callerID) {
		return !deal.HasBuyer()
	}
	return deal.HasBuyer() && *deal.BuyerID == callerID
}

// Delete removes a deal and its bids in one transaction.
func (s *DealService) Delete(dealID, callerID uint, role string) error {
	unlock := lockDeal(dealID)
	defer unlock()

	deal, err := loadDeal(dealID)
	if err != nil {
		return err
	}
	if !canDeleteDeal(deal, callerID, role) {
		return fmt.Errorf("%w: not allowed to delete this deal", ErrForbidden)
	}

	return storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deal_id = ?", dealID).Delete(&models.Bid{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Deal{}, dealID).Error
	})
}

func (s *DealService) persistStatus(deal *models.Deal) error {
	return storage.DB.Model(&models.Deal{}).Where("id = ?", deal.ID).
		Updates(map[string]interface{}{
			"status":       deal.Status,
			"completed_at": deal.CompletedAt,
		}).Error
}
