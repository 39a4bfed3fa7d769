package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DealStatusPending    = "Pending"
	DealStatusInProgress = "In Progress"
	DealStatusCompleted  = "Completed"
	DealStatusCancelled  = "Cancelled"
)

// DealStatuses lists every status a deal may carry, in lifecycle order.
var DealStatuses = []string{
	DealStatusPending,
	DealStatusInProgress,
	DealStatusCompleted,
	DealStatusCancelled,
}

const (
	BidStatusPending  = "Pending"
	BidStatusAccepted = "Accepted"
	BidStatusRejected = "Rejected"
)

// Deal is one sale listing. Bids belong exclusively to their deal and are
// loaded with it; all invariants (one bid per buyer, buyer assigned once,
// immutable after completion) are scoped to a single Deal row plus its bids.
type Deal struct {
	gorm.Model
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:Pending;index"`
	SellerID    uint       `json:"sellerID" gorm:"index;not null"`
	Seller      User       `json:"seller" gorm:"foreignKey:SellerID"`
	BuyerID     *uint      `json:"buyerID" gorm:"index"`
	Buyer       *User      `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Bids        []Bid      `json:"bids"`
}

// Bid rows also carry a composite unique index so the one-bid-per-buyer
// invariant holds even if a writer bypasses the per-deal lock.
type Bid struct {
	gorm.Model
	DealID       uint    `json:"dealID" gorm:"not null;uniqueIndex:idx_bids_deal_buyer"`
	BuyerID      uint    `json:"buyerID" gorm:"index;not null;uniqueIndex:idx_bids_deal_buyer"`
	Buyer        User    `json:"buyer" gorm:"foreignKey:BuyerID"`
	OfferedPrice float64 `json:"offeredPrice"`
	Status       string  `json:"status" gorm:"type:varchar(20);default:Pending"`
}

func (d *Deal) IsSeller(userID uint) bool {
	return d.SellerID == userID
}

func (d *Deal) HasBuyer() bool {
	return d.BuyerID != nil && *d.BuyerID != 0
}

// BidBy returns this buyer's bid on the deal, if any.
func (d *Deal) BidBy(buyerID uint) *Bid {
	for i := range d.Bids {
		if d.Bids[i].BuyerID == buyerID {
			return &d.Bids[i]
		}
	}
	return nil
}

func (d *Deal) BidByID(bidID uint) *Bid {
	for i := range d.Bids {
		if d.Bids[i].ID == bidID {
			return &d.Bids[i]
		}
	}
	return nil
}

// HasBidder reports whether the user placed any bid on the deal.
// Used both for chat authorization and the room-join capability check.
func (d *Deal) HasBidder(userID uint) bool {
	return d.BidBy(userID) != nil
}

// AcceptedBid returns the first accepted bid in submission order, if any.
func (d *Deal) AcceptedBid() *Bid {
	for i := range d.Bids {
		if d.Bids[i].Status == BidStatusAccepted {
			return &d.Bids[i]
		}
	}
	return nil
}
