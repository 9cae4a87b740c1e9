package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"coachdesk_app_echo/internal/handlers"
	authMiddleware "coachdesk_app_echo/internal/middleware"
	"coachdesk_app_echo/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; without it the dashboard recomputes every request
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	}

	// Services
	midtransService := services.NewMidtransService()
	entitlementService := services.NewEntitlementService(db)
	sessionService := services.NewSessionService(db)
	leadService := services.NewLeadService(db)
	paymentService := services.NewPaymentService(db, midtransService)
	statsService := services.NewStatsService(db, cache)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Handlers
	authHandler := handlers.NewAuthHandler(authClient)
	clientHandler := handlers.NewClientHandler(db, entitlementService)
	packageHandler := handlers.NewPackageHandler(db, entitlementService, paymentService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	leadHandler := handlers.NewLeadHandler(db, leadService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, midtransService, statsService)
	dashboardHandler := handlers.NewDashboardHandler(statsService)
	settingsHandler := handlers.NewSettingsHandler(db)

	// Public routes
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)
	e.POST("/payments/midtrans/notification", paymentHandler.HandleMidtransNotification)

	// Protected routes
	api := e.Group("/api")
	api.Use(authMiddleware.RequireAuth(authClient))

	api.GET("/clients", clientHandler.ListClients)
	api.POST("/clients", clientHandler.CreateClient)
	api.GET("/clients/:id", clientHandler.GetClient)
	api.PUT("/clients/:id", clientHandler.UpdateClient)
	api.DELETE("/clients/:id", clientHandler.DeleteClient)
	api.GET("/clients/:id/packages", packageHandler.ListClientPackages)
	api.POST("/clients/:id/packages", packageHandler.AssignPackage)

	api.GET("/packages", packageHandler.ListPackages)
	api.POST("/packages", packageHandler.CreatePackage)
	api.PUT("/packages/:id", packageHandler.UpdatePackage)
	api.DELETE("/packages/:id", packageHandler.DeletePackage)

	api.GET("/sessions", sessionHandler.ListSessions)
	api.POST("/sessions", sessionHandler.CreateSession)
	api.PUT("/sessions/:id", sessionHandler.UpdateSession)
	api.POST("/sessions/:id/status", sessionHandler.TransitionSession)
	api.DELETE("/sessions/:id", sessionHandler.DeleteSession)

	api.GET("/leads", leadHandler.ListLeads)
	api.POST("/leads", leadHandler.CreateLead)
	api.PUT("/leads/:id", leadHandler.UpdateLead)
	api.DELETE("/leads/:id", leadHandler.DeleteLead)
	api.POST("/leads/:id/convert", leadHandler.ConvertLead)

	api.GET("/payments", paymentHandler.ListPayments)
	api.POST("/payments", paymentHandler.RecordPayment)
	api.PUT("/payments/:id/status", paymentHandler.UpdatePaymentStatus)
	api.POST("/payments/checkout", paymentHandler.InitiateCheckout)

	api.GET("/dashboard/stats", dashboardHandler.GetStats)

	api.GET("/settings/profile", settingsHandler.GetProfile)
	api.PUT("/settings/profile", settingsHandler.UpdateProfile)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
