package routes

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	"deal-market-server/services"
	"deal-market-server/storage"
	"deal-market-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

var paymentContext = context.Background()

// CreatePaymentIntent opens a Stripe payment for the deal's asking price.
// The deal and buyer ride along as metadata so the webhook can complete
// the right deal later.
func CreatePaymentIntent(deals *services.DealService) iris.Handler {
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

		deal, svcErr := deals.Details(dealID)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}

		params := &stripe.PaymentIntentParams{
			Amount:      stripe.Int64(int64(deal.Price * 100)), // Stripe uses the smallest currency unit
			Currency:    stripe.String(string(stripe.CurrencyINR)),
			Description: stripe.String("Purchase of " + deal.Title),
		}
		params.AddMetadata("dealId", strconv.FormatUint(uint64(deal.ID), 10))
		params.AddMetadata("userId", strconv.FormatUint(uint64(userID), 10))
		params.AddMetadata("dealTitle", deal.Title)

		intent, intentErr := paymentintent.New(params)
		if intentErr != nil {
			log.Println("failed to create payment intent:", intentErr)
			utils.CreateInternalServerError(ctx)
			return
		}

		ctx.JSON(iris.Map{
			"clientSecret": intent.ClientSecret,
			"amount":       deal.Price,
			"dealId":       deal.ID,
			"currency":     "inr",
		})
	}
}

// CompleteDeal is the client-confirmed completion path: the authenticated
// caller who paid becomes the buyer. Idempotent like the webhook path.
func CompleteDeal(deals *services.DealService) iris.Handler {
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

		deal, svcErr := deals.CompleteViaPayment(dealID, userID)
		if svcErr != nil {
			handleServiceError(svcErr, ctx)
			return
		}
		ctx.JSON(deal)
	}
}

// HandleStripeWebhook verifies the gateway signature before any domain
// logic, dedupes replays by event ID and completes the deal on
// payment_intent.succeeded. Always answers 200 once the signature checks
// out: retrying is the gateway's job, not ours.
func HandleStripeWebhook(deals *services.DealService) iris.Handler {
	return func(ctx iris.Context) {
		body, err := ctx.GetBody()
		if err != nil {
			ctx.StopWithStatus(iris.StatusBadRequest)
			return
		}

		event, err := webhook.ConstructEvent(body, ctx.GetHeader("Stripe-Signature"), os.Getenv("STRIPE_WEBHOOK_SECRET"))
		if err != nil {
			log.Println("webhook signature verification failed:", err)
			utils.CreateError(iris.StatusBadRequest, "Webhook Error", "Invalid signature.", ctx)
			return
		}

		// At-least-once delivery: skip events we have already applied. The
		// marker is advisory, correctness rests on CompleteViaPayment being
		// idempotent, so it is only written after a successful apply and a
		// transient failure leaves the event retryable.
		dedupKey := "stripe:event:" + event.ID
		seen, redisErr := storage.Redis.Exists(paymentContext, dedupKey).Result()
		if redisErr != nil {
			log.Println("webhook dedup check failed:", redisErr)
		} else if seen > 0 {
			ctx.JSON(iris.Map{"received": true})
			return
		}

		if event.Type == "payment_intent.succeeded" {
			var intent stripe.PaymentIntent
			if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
				log.Println("failed to parse payment intent event:", err)
				ctx.JSON(iris.Map{"received": true})
				return
			}

			dealID, dealErr := strconv.ParseUint(intent.Metadata["dealId"], 10, 32)
			userID, userErr := strconv.ParseUint(intent.Metadata["userId"], 10, 32)
			if dealErr != nil || userErr != nil {
				log.Println("payment intent missing deal metadata, event:", event.ID)
				ctx.JSON(iris.Map{"received": true})
				return
			}

			if _, err := deals.CompleteViaPayment(uint(dealID), uint(userID)); err != nil {
				log.Printf("failed to complete deal %d from webhook: %v", dealID, err)
			} else {
				log.Printf("deal %d marked as completed", dealID)
				if err := storage.Redis.SetNX(paymentContext, dedupKey, "1", 24*time.Hour).Err(); err != nil {
					log.Println("webhook dedup marker failed:", err)
				}
			}
		}

		ctx.JSON(iris.Map{"received": true})
	}
}
