package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeal() *Deal {
	deal := &Deal{Title: "Bike", Price: 500, Status: DealStatusPending, SellerID: 10}
	deal.ID = 1

	first := Bid{DealID: 1, BuyerID: 20, OfferedPrice: 450, Status: BidStatusPending}
	first.ID = 1
	second := Bid{DealID: 1, BuyerID: 30, OfferedPrice: 480, Status: BidStatusPending}
	second.ID = 2
	deal.Bids = []Bid{first, second}
	return deal
}

func TestBidByFindsBuyersOffer(t *testing.T) {
	deal := sampleDeal()

	bid := deal.BidBy(30)
	require.NotNil(t, bid)
	assert.Equal(t, uint(2), bid.ID)

	assert.Nil(t, deal.BidBy(99))
}

func TestBidByID(t *testing.T) {
	deal := sampleDeal()

	bid := deal.BidByID(1)
	require.NotNil(t, bid)
	assert.Equal(t, uint(20), bid.BuyerID)

	assert.Nil(t, deal.BidByID(99))
}

func TestAcceptedBidPicksFirstInSubmissionOrder(t *testing.T) {
	deal := sampleDeal()
	assert.Nil(t, deal.AcceptedBid())

	deal.Bids[1].Status = BidStatusAccepted
	accepted := deal.AcceptedBid()
	require.NotNil(t, accepted)
	assert.Equal(t, uint(30), accepted.BuyerID)
}

func TestHasBuyer(t *testing.T) {
	deal := sampleDeal()
	assert.False(t, deal.HasBuyer())

	buyerID := uint(20)
	deal.BuyerID = &buyerID
	assert.True(t, deal.HasBuyer())
}

func TestHasBidder(t *testing.T) {
	deal := sampleDeal()

	assert.True(t, deal.HasBidder(20))
	assert.False(t, deal.HasBidder(10))
	assert.False(t, deal.HasBidder(99))
}
