package routes

import (
	"deal-market-server/models"
	"deal-market-server/services"
	"deal-market-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

type CreateDealInput struct {
	Title       string  `json:"title" validate:"required,max=256"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type UpdateDealStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// CreateDeal lists a new item for sale. Seller-only; the caller becomes
// the deal's immutable owner.
func CreateDeal(deals *services.DealService) iris.Handler {
	return func(ctx iris.Context) {
		userID, ok := callerID(ctx)
		if !ok {
			return
		}

		var input CreateDealInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}

		deal, err := deals.Create(userID, services.CreateDealInput{
			Title:       input.Title,
			Description: input.Description,
			Price:       input.Price,
		})
		if err != nil {
			handleServiceError(err, ctx)
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(iris.Map{"message": "Deal created successfully", "deal": deal})
	}
}

// GetDeals is role-scoped: admins see everything, sellers their own
// listings, buyers the deals still open for bidding.
func GetDeals(deals *services.DealService) iris.Handler {
	return func(ctx iris.Context) {
		userID, ok := callerID(ctx)
		if !ok {
			return
		}
		claims := jwt.Get(ctx).(*utils.AccessToken)

		result, err := deals.List(userID, claims.Role)
		if err != nil {
			handleServiceError(err, ctx)
			return
		}
		ctx.JSON(result)
	}
}

func GetDealDetails(deals *services.DealService) iris.Handler {
	return func(ctx iris.Context) {
		dealID, err := ctx.Params().GetUint("id")
		if err != nil {
			ctx.StopWithStatus(iris.StatusBadRequest)
			return
		}

		deal, svcErr := deals.Details(dealID)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}
		ctx.JSON(deal)
	}
}

func UpdateDealStatus(deals *services.DealService) iris.Handler {
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

		var input UpdateDealStatusInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}

		claims := jwt.Get(ctx).(*utils.AccessToken)
		before, _ := deals.Details(dealID)

		deal, svcErr := deals.UpdateStatus(dealID, userID, claims.Role, input.Status)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}

		if claims.Role == models.RoleAdmin && before != nil {
			utils.Audit(ctx, "deal.status_update", "deal", dealID,
				iris.Map{"status": before.Status}, iris.Map{"status": deal.Status})
		}

		ctx.JSON(iris.Map{"message": "Deal status updated", "deal": deal})
	}
}

// AcceptDeal assigns the calling buyer to the deal and moves it to
// In Progress.
func AcceptDeal(deals *services.DealService) iris.Handler {
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

		deal, svcErr := deals.Accept(dealID, userID)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}
		ctx.JSON(iris.Map{"message": "Deal accepted successfully", "deal": deal})
	}
}

func DeleteDeal(deals *services.DealService) iris.Handler {
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

		claims := jwt.Get(ctx).(*utils.AccessToken)
		before, _ := deals.Details(dealID)

		if svcErr := deals.Delete(dealID, userID, claims.Role); svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}

		if claims.Role == models.RoleAdmin && before != nil {
			utils.Audit(ctx, "deal.delete", "deal", dealID, before, nil)
		}

		ctx.JSON(iris.Map{"message": "Deal deleted successfully"})
	}
}
