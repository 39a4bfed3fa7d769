package services

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"deal-market-server/models"
	"deal-market-server/storage"
)

// BidService validates and applies bid placement and acceptance against a
// deal aggregate. Bids move Pending -> Accepted | Rejected and are never
// deleted.
type BidService struct {
	notify Notifier

	// AutoRejectSiblings makes accepting one bid reject the deal's other
	// pending bids. Off by default: historically a seller could accept
	// several bids and settle the deal with whichever buyer paid first.
	AutoRejectSiblings bool
}

func NewBidService(notify Notifier) *BidService {
	return &BidService{
		notify:             notify,
		AutoRejectSiblings: os.Getenv("BID_AUTO_REJECT_SIBLINGS") == "true",
	}
}

func validateNewBid(deal *models.Deal, buyerID uint) error {
	if deal.IsSeller(buyerID) {
		return fmt.Errorf("%w: sellers cannot place bids on their own deals", ErrForbidden)
	}
	if deal.BidBy(buyerID) != nil {
		return fmt.Errorf("%w: you have already placed a bid on this deal", ErrConflict)
	}
	return nil
}

// PlaceBid appends a pending bid, records the system message to the seller
// and fans out the events. Fan-out and the system message are best-effort;
// only the bid write itself can fail the operation.
func (s *BidService) PlaceBid(dealID, buyerID uint, offeredPrice float64) (*models.Deal, error) {
	unlock := lockDeal(dealID)
	defer unlock()

	deal, err := loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if err := validateNewBid(deal, buyerID); err != nil {
		return nil, err
	}

	bid := models.Bid{
		DealID:       dealID,
		BuyerID:      buyerID,
		OfferedPrice: offeredPrice,
		Status:       models.BidStatusPending,
	}
	if err := storage.DB.Create(&bid).Error; err != nil {
		return nil, err
	}
	storage.DB.Preload("Buyer").First(&bid, bid.ID)
	deal.Bids = append(deal.Bids, bid)

	// System chat message so the seller sees the bid in the deal thread.
	content := "New bid placed: $" + strconv.FormatFloat(offeredPrice, 'f', -1, 64)
	msg := models.Message{
		DealID:     dealID,
		SenderID:   buyerID,
		ReceiverID: deal.SellerID,
		Content:    content,
	}
	if err := storage.DB.Create(&msg).Error; err != nil {
		log.Println("failed to record bid notification message:", err)
	} else {
		storage.DB.Preload("Sender").Preload("Receiver").First(&msg, msg.ID)
		s.notify.PublishToUser(deal.SellerID, EventReceiveMessage, msg)
	}

	s.notify.PublishToRoom(dealID, EventNewBid, NewBidEvent{BuyerID: buyerID, OfferedPrice: offeredPrice})

	return deal, nil
}

// SetStatus is the seller's accept/reject decision on a single bid.
func (s *BidService) SetStatus(dealID, bidID, callerID uint, status string) (*models.Deal, error) {
	if status != models.BidStatusAccepted && status != models.BidStatusRejected {
		return nil, fmt.Errorf("%w: bid status must be Accepted or Rejected", ErrValidation)
	}

	unlock := lockDeal(dealID)
	defer unlock()

	deal, err := loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsSeller(callerID) {
		return nil, fmt.Errorf("%w: only the seller can accept or reject bids", ErrForbidden)
	}
	bid := deal.BidByID(bidID)
	if bid == nil {
		return nil, fmt.Errorf("%w: bid %d", ErrNotFound, bidID)
	}

	bid.Status = status
	err = storage.DB.Model(&models.Bid{}).Where("id = ?", bid.ID).
		Update("status", status).Error
	if err != nil {
		return nil, err
	}

	if status == models.BidStatusAccepted && s.AutoRejectSiblings {
		err = storage.DB.Model(&models.Bid{}).
			Where("deal_id = ? AND id <> ? AND status = ?", dealID, bid.ID, models.BidStatusPending).
			Update("status", models.BidStatusRejected).Error
		if err != nil {
			return nil, err
		}
		for i := range deal.Bids {
			if deal.Bids[i].ID != bid.ID && deal.Bids[i].Status == models.BidStatusPending {
				deal.Bids[i].Status = models.BidStatusRejected
			}
		}
	}

	return deal, nil
}
