package services

import (
	"testing"

	"deal-market-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dealWithBids(sellerID uint, bidderIDs ...uint) *models.Deal {
	deal := pendingDeal(sellerID)
	for i, buyerID := range bidderIDs {
		bid := models.Bid{
			DealID:       deal.ID,
			BuyerID:      buyerID,
			OfferedPrice: 450,
			Status:       models.BidStatusPending,
		}
		bid.ID = uint(i + 1)
		deal.Bids = append(deal.Bids, bid)
	}
	return deal
}

func TestValidateNewBidAllowsFirstOffer(t *testing.T) {
	deal := dealWithBids(10)

	assert.NoError(t, validateNewBid(deal, 20))
}

func TestValidateNewBidRejectsSeller(t *testing.T) {
	deal := dealWithBids(10)

	err := validateNewBid(deal, 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestValidateNewBidRejectsDuplicate(t *testing.T) {
	deal := dealWithBids(10, 20)

	err := validateNewBid(deal, 20)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	// A different buyer is still welcome.
	assert.NoError(t, validateNewBid(deal, 30))
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	bids := &BidService{notify: NopNotifier{}}

	_, err := bids.SetStatus(1, 1, 10, "Maybe")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}
