package services

import (
	"testing"
	"time"

	"deal-market-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingDeal(sellerID uint) *models.Deal {
	deal := &models.Deal{
		Title:       "Bike",
		Description: "Road bike, barely used",
		Price:       500,
		Status:      models.DealStatusPending,
		SellerID:    sellerID,
	}
	deal.ID = 1
	return deal
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	deal := pendingDeal(10)

	_, err := transition(deal, "Haggling", false)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, models.DealStatusPending, deal.Status)
}

func TestTransitionPendingToInProgress(t *testing.T) {
	deal := pendingDeal(10)

	changed, err := transition(deal, models.DealStatusInProgress, false)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.DealStatusInProgress, deal.Status)
	assert.Nil(t, deal.CompletedAt)
}

func TestTransitionSetsCompletedAtOnce(t *testing.T) {
	deal := pendingDeal(10)

	changed, err := transition(deal, models.DealStatusCompleted, false)
	require.NoError(t, err)
	require.True(t, changed)
	require.NotNil(t, deal.CompletedAt)

	first := *deal.CompletedAt

	// Replaying the trusted completion must not move the timestamp.
	changed, err = transition(deal, models.DealStatusCompleted, true)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, *deal.CompletedAt)
}

func TestTransitionCompletedIsImmutableForUsers(t *testing.T) {
	deal := pendingDeal(10)
	deal.Status = models.DealStatusCompleted
	completed := time.Now().Add(-time.Hour)
	deal.CompletedAt = &completed

	for _, status := range []string{
		models.DealStatusPending,
		models.DealStatusInProgress,
		models.DealStatusCancelled,
	} {
		_, err := transition(deal, status, false)
		require.Error(t, err, "status %q", status)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, models.DealStatusCompleted, deal.Status)
	}

	// Completed -> Completed is a harmless no-op, not a conflict.
	changed, err := transition(deal, models.DealStatusCompleted, false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, completed, *deal.CompletedAt)
}

func TestTransitionTrustedTreatsCompletedAsNoOp(t *testing.T) {
	deal := pendingDeal(10)
	deal.Status = models.DealStatusCompleted
	completed := time.Now().Add(-time.Hour)
	deal.CompletedAt = &completed

	changed, err := transition(deal, models.DealStatusCompleted, true)

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, completed, *deal.CompletedAt)
}

func TestValidateAcceptOpenDeal(t *testing.T) {
	assert.NoError(t, validateAccept(pendingDeal(10), 20))
}

func TestValidateAcceptSellerCannotBuyOwnDeal(t *testing.T) {
	err := validateAccept(pendingDeal(10), 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestValidateAcceptBuyerSetAtMostOnce(t *testing.T) {
	deal := pendingDeal(10)
	deal.Status = models.DealStatusInProgress
	assigned := uint(20)
	deal.BuyerID = &assigned

	// Conflicts for a second buyer and for the assigned buyer repeating.
	for _, buyer := range []uint{30, 20} {
		err := validateAccept(deal, buyer)
		require.Error(t, err, "buyer %d", buyer)
		assert.ErrorIs(t, err, ErrConflict)
	}
}

func TestValidateAcceptCompletedDealIsClosed(t *testing.T) {
	deal := pendingDeal(10)
	deal.Status = models.DealStatusCompleted

	err := validateAccept(deal, 20)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCanDeleteDealOwnershipRules(t *testing.T) {
	open := pendingDeal(10)
	sold := pendingDeal(10)
	sold.Status = models.DealStatusInProgress
	assigned := uint(20)
	sold.BuyerID = &assigned

	cases := []struct {
		name     string
		deal     *models.Deal
		callerID uint
		role     string
		want     bool
	}{
		{"admin always", sold, 99, models.RoleAdmin, true},
		{"seller while unassigned", open, 10, models.RoleSeller, true},
		{"seller after buyer assigned", sold, 10, models.RoleSeller, false},
		{"assigned buyer", sold, 20, models.RoleBuyer, true},
		{"other buyer", sold, 30, models.RoleBuyer, false},
		{"stranger on open deal", open, 30, models.RoleBuyer, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, canDeleteDeal(tc.deal, tc.callerID, tc.role), tc.name)
	}
}

func TestTransitionCancelledStillUpdatable(t *testing.T) {
	deal := pendingDeal(10)
	deal.Status = models.DealStatusCancelled

	changed, err := transition(deal, models.DealStatusPending, false)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.DealStatusPending, deal.Status)
}
