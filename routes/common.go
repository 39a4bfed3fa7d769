package routes

import (
	"errors"
	"log"

	"deal-market-server/services"
	"deal-market-server/utils"

	"github.com/kataras/iris/v12"
)

// handleServiceError maps the domain error kinds onto responses. Storage
// errors fall through to a generic 500 and are only logged server-side.
func handleServiceError(err error, ctx iris.Context) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.CreateNotFound(ctx)
	case errors.Is(err, services.ErrForbidden):
		utils.CreateError(iris.StatusForbidden, "Forbidden", err.Error(), ctx)
	case errors.Is(err, services.ErrConflict):
		utils.CreateError(iris.StatusConflict, "Conflict", err.Error(), ctx)
	case errors.Is(err, services.ErrValidation):
		utils.CreateError(iris.StatusBadRequest, "Validation Error", err.Error(), ctx)
	default:
		log.Println("unexpected service error:", err)
		utils.CreateInternalServerError(ctx)
	}
}

// callerID reads the user id the auth middleware stored on the context.
func callerID(ctx iris.Context) (uint, bool) {
	v := ctx.Values().Get("userID")
	if v == nil {
		ctx.StatusCode(iris.StatusUnauthorized)
		ctx.JSON(iris.Map{"message": "User not authenticated"})
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		ctx.StatusCode(iris.StatusUnauthorized)
		ctx.JSON(iris.Map{"message": "Invalid user ID"})
		return 0, false
	}
	return id, true
}
