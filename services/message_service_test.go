package services

import (
	"testing"

	"deal-market-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReceiverBuyerTalksToSeller(t *testing.T) {
	deal := dealWithBids(10, 20)

	assert.Equal(t, uint(10), resolveReceiver(deal, 20))
}

func TestResolveReceiverSellerPrefersAcceptedBid(t *testing.T) {
	deal := dealWithBids(10, 20, 30)
	deal.Bids[1].Status = models.BidStatusAccepted

	assert.Equal(t, uint(30), resolveReceiver(deal, 10))
}

func TestResolveReceiverSellerFallsBackToFirstBidder(t *testing.T) {
	deal := dealWithBids(10, 20, 30)

	assert.Equal(t, uint(20), resolveReceiver(deal, 10))
}

func TestResolveReceiverSellerWithoutBids(t *testing.T) {
	deal := dealWithBids(10)

	assert.Equal(t, uint(0), resolveReceiver(deal, 10))
}

func summaryFixture() []models.Message {
	seller := models.User{Name: "Sam"}
	seller.ID = 10
	buyer := models.User{Name: "Bella"}
	buyer.ID = 20

	bike := models.Deal{Title: "Bike", Price: 500, Status: models.DealStatusPending}
	bike.ID = 1
	sofa := models.Deal{Title: "Sofa", Price: 900, Status: models.DealStatusCompleted}
	sofa.ID = 2

	newMsg := func(id uint, deal models.Deal, from, to models.User, text string) models.Message {
		dealCopy := deal
		m := models.Message{
			DealID:     deal.ID,
			Deal:       &dealCopy,
			SenderID:   from.ID,
			Sender:     from,
			ReceiverID: to.ID,
			Receiver:   to,
			Content:    text,
		}
		m.ID = id
		return m
	}

	// Newest first, the order the query returns them in.
	return []models.Message{
		newMsg(5, sofa, buyer, seller, "is the sofa still around?"),
		newMsg(4, bike, seller, buyer, "still interested?"),
		newMsg(3, bike, buyer, seller, "can you do 450?"),
		newMsg(2, bike, buyer, seller, "New bid placed: $450"),
	}
}

func TestSummarizeConversationsKeepsLatestPerDeal(t *testing.T) {
	summaries := summarizeConversations(summaryFixture(), 10)

	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, uint(1), s.DealID)
	assert.Equal(t, "Bike", s.DealTitle)
	assert.Equal(t, float64(500), s.Price)
	assert.Equal(t, uint(4), s.LatestMessage.ID)
	assert.Equal(t, "still interested?", s.LatestMessage.Text)
}

func TestSummarizeConversationsSkipsCompletedDeals(t *testing.T) {
	summaries := summarizeConversations(summaryFixture(), 10)

	for _, s := range summaries {
		assert.NotEqual(t, uint(2), s.DealID, "completed deal leaked into summaries")
	}
}

func TestSummarizeConversationsResolvesCounterpart(t *testing.T) {
	// Seller's inbox: counterpart is the buyer they messaged.
	sellerView := summarizeConversations(summaryFixture(), 10)
	require.Len(t, sellerView, 1)
	assert.Equal(t, uint(20), sellerView[0].CounterpartID)
	assert.Equal(t, "Bella", sellerView[0].CounterpartName)

	// Buyer's inbox over the same thread: counterpart is the seller.
	buyerView := summarizeConversations(summaryFixture(), 20)
	require.Len(t, buyerView, 1)
	assert.Equal(t, uint(10), buyerView[0].CounterpartID)
	assert.Equal(t, "Sam", buyerView[0].CounterpartName)
}

func TestSummarizeConversationsEmptyInput(t *testing.T) {
	assert.Empty(t, summarizeConversations(nil, 10))
}
