package routes

import (
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/config"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/handlers"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/middleware"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/repository"
	"github.com/RushikeshTemkar2003/Expert-Talk/internal/services"
	chatws "github.com/RushikeshTemkar2003/Expert-Talk/internal/websocket"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	clock := services.SystemClock()
	sessionService := services.NewSessionService(sessionRepo, paymentRepo, userRepo, clock)
	chatService := services.NewChatService(messageRepo, sessionRepo, sessionService, chatHub, clock)
	presenceService := services.NewPresenceService(userRepo)

	authHandler := handlers.NewAuthHandler(userRepo, categoryRepo, presenceService, cfg.JWTSecret)
	expertHandler := handlers.NewExpertHandler(presenceService, categoryRepo)
	sessionHandler := handlers.NewSessionHandler(sessionService, chatService)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)
	paymentHandler := handlers.NewPaymentHandler(paymentRepo)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", middleware.AuthRequired(cfg.JWTSecret), authHandler.Logout)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	experts := authProtected.Group("/experts")
	experts.Get("", expertHandler.ListExperts)
	experts.Patch("/availability", expertHandler.SetAvailability)
	experts.Get("/earnings", expertHandler.Earnings)

	authProtected.Get("/categories", expertHandler.ListCategories)

	sessions := authProtected.Group("/sessions")
	sessions.Post("", sessionHandler.StartSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSessionInfo)
	sessions.Post("/:id/end", sessionHandler.EndSession)
	sessions.Get("/:id/messages", chatHandler.GetMessages)
	sessions.Post("/:id/messages", chatHandler.SendMessage)

	payments := authProtected.Group("/payments")
	payments.Post("/order", paymentHandler.CreateOrder)
	payments.Post("/order/:order_id/confirm", paymentHandler.ConfirmOrder)
	payments.Get("", paymentHandler.ListPayments)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))

	return registerDocsRoutes(app, cfg)
}
