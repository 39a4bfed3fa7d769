package routes

import (
	"deal-market-server/services"
	"deal-market-server/utils"

	"github.com/kataras/iris/v12"
)

type SendMessageInput struct {
	Content string `json:"content" validate:"required"`
}

// SendMessage posts into a deal's two-party chat thread. The relay
// resolves the counterpart: sellers reach the accepted (or first) bidder,
// bidders reach the seller.
func SendMessage(messages *services.MessageService) iris.Handler {
	return func(ctx iris.Context) {
		userID, ok := callerID(ctx)
		if !ok {
			return
		}
		dealID, err := ctx.Params().GetUint("dealID")
		if err != nil {
			ctx.StopWithStatus(iris.StatusBadRequest)
			return
		}

		var input SendMessageInput
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}

		msg, svcErr := messages.Send(dealID, userID, input.Content)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(msg)
	}
}

// GetDealMessages returns the caller's view of a deal thread in chat order.
func GetDealMessages(messages *services.MessageService) iris.Handler {
	return func(ctx iris.Context) {
		userID, ok := callerID(ctx)
		if !ok {
			return
		}
		dealID, err := ctx.Params().GetUint("dealID")
		if err != nil {
			ctx.StopWithStatus(iris.StatusBadRequest)
			return
		}

		msgs, svcErr := messages.ListForDeal(dealID, userID)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}
		ctx.JSON(msgs)
	}
}

// GetUserMessages lists everything the caller sent, newest first.
func GetUserMessages(messages *services.MessageService) iris.Handler {
	return func(ctx iris.Context) {
		userID, ok := callerID(ctx)
		if !ok {
			return
		}

		msgs, err := messages.ListSentByUser(userID)
		if err != nil {
			handleServiceError(err, ctx)
			return
		}
		ctx.JSON(msgs)
	}
}

// GetDealsWithMessages is the inbox view: one summary per active deal the
// caller has chatted in, carrying the latest message.
func GetDealsWithMessages(messages *services.MessageService) iris.Handler {
	return func(ctx iris.Context) {
		userID, ok := callerID(ctx)
		if !ok {
			return
		}

		summaries, err := messages.ListConversationSummaries(userID)
		if err != nil {
			handleServiceError(err, ctx)
			return
		}
		ctx.JSON(summaries)
	}
}
