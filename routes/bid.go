package routes

import (
	"deal-market-server/services"
	"deal-market-server/utils"

	"github.com/kataras/iris/v12"
)

type PlaceBidInput struct {
	OfferedPrice float64 `json:"offeredPrice" validate:"required,gt=0"`
}

type UpdateBidStatusInput struct {
	BidID  uint   `json:"bidId" validate:"required"`
	Status string `json:"status" validate:"required,oneof=Accepted Rejected"`
}

// PlaceBid appends the calling buyer's offer to the deal. One bid per
// buyer per deal; the seller is notified in the deal thread and over the
// realtime channel.
func PlaceBid(bids *services.BidService) iris.Handler {
	return func(ctx iris.Context) {
		userID, ok := callerID(ctx)
		if !ok {
			return
		}
		dealID, err := ctx.Params().GetUint("id")
		if err != nil {
			ctx.StopWithStatus(iris.StatusBadRequest)
			return
		}

		var input PlaceBidInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}

		deal, svcErr := bids.PlaceBid(dealID, userID, input.OfferedPrice)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(iris.Map{"message": "Bid placed successfully", "deal": deal})
	}
}

// UpdateBidStatus is the seller's accept/reject decision on a single bid.
func UpdateBidStatus(bids *services.BidService) iris.Handler {
	return func(ctx iris.Context) {
		userID, ok := callerID(ctx)
		if !ok {
			return
		}
		dealID, err := ctx.Params().GetUint("id")
		if err != nil {
			ctx.StopWithStatus(iris.StatusBadRequest)
			return
		}

		var input UpdateBidStatusInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}

		deal, svcErr := bids.SetStatus(dealID, input.BidID, userID, input.Status)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}

		ctx.JSON(iris.Map{"message": "Bid " + input.Status + " successfully", "deal": deal})
	}
}
