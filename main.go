package main

import (
	"log"
	"os"

	"deal-market-server/models"
	"deal-market-server/realtime"
	"deal-market-server/routes"
	"deal-market-server/services"
	"deal-market-server/storage"
	"deal-market-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	app := iris.New()
	app.Validator = validator.New()

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, Stripe-Signature")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	// The websocket handshake cannot carry an Authorization header from a
	// browser, so the access token is also accepted as a query parameter.
	accessTokenVerifier.Extractors = append(accessTokenVerifier.Extractors, jwt.FromQuery)

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	hub := realtime.NewHub(services.CanAccessDeal)
	dealService := services.NewDealService()
	bidService := services.NewBidService(hub)
	messageService := services.NewMessageService(hub)
	hub.SetMessageSender(func(dealID, senderID uint, content string) error {
		_, err := messageService.Send(dealID, senderID, content)
		return err
	})
	go hub.Run()

	auth := app.Party("/api/auth")
	{
		auth.Post("/register", routes.Register)
		auth.Post("/login", routes.Login)
		auth.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
	}

	deal := app.Party("/api/deals", accessTokenVerifierMiddleware)
	{
		deal.Post("/", utils.RequireRoles(models.RoleSeller), routes.CreateDeal(dealService))
		deal.Get("/", utils.RequireRoles(models.RoleBuyer, models.RoleSeller, models.RoleAdmin), routes.GetDeals(dealService))
		deal.Get("/{id:uint}", utils.UserIDFromTokenMiddleware, routes.GetDealDetails(dealService))
		deal.Put("/{id:uint}/status", utils.RequireRoles(models.RoleSeller, models.RoleAdmin), routes.UpdateDealStatus(dealService))
		deal.Put("/{id:uint}/buy", utils.RequireRoles(models.RoleBuyer), routes.AcceptDeal(dealService))
		deal.Delete("/{id:uint}", utils.RequireRoles(models.RoleSeller, models.RoleBuyer, models.RoleAdmin), routes.DeleteDeal(dealService))
		deal.Post("/{id:uint}/bid", utils.RequireRoles(models.RoleBuyer), routes.PlaceBid(bidService))
		deal.Put("/{id:uint}/bid", utils.RequireRoles(models.RoleSeller), routes.UpdateBidStatus(bidService))
	}

	message := app.Party("/api/messages", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware)
	{
		message.Get("/user/messages", routes.GetUserMessages(messageService))
		message.Get("/deals-with-messages", routes.GetDealsWithMessages(messageService))
		message.Post("/{dealID:uint}", routes.SendMessage(messageService))
		message.Get("/{dealID:uint}", routes.GetDealMessages(messageService))
	}

	payment := app.Party("/api/payment")
	{
		payment.Post("/create-payment-intent/{dealID:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreatePaymentIntent(dealService))
		payment.Put("/complete-deal/{dealID:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CompleteDeal(dealService))
		payment.Post("/webhook", routes.HandleStripeWebhook(dealService))
	}

	app.Get("/ws", accessTokenVerifierMiddleware, realtime.ServeWS(hub))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	log.Println("Server running on port", port)
	app.Listen(":" + port)
}
