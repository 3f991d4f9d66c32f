package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"aquabill/internal/caching"
	"aquabill/internal/handlers"
	"aquabill/internal/jobs/background"
	"aquabill/internal/middleware"
	"aquabill/internal/reporting"
	"aquabill/internal/repositories"
	"aquabill/internal/services"
	"aquabill/pkg/database"
)

const version = "1.0.0"

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	minioSvc, err := services.NewMinioService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}

	// Billing configuration
	billingCfg := services.DefaultBillingConfig()
	if rateStr := os.Getenv("WATER_RATE_PER_UNIT"); rateStr != "" {
		if rate, err := strconv.ParseFloat(rateStr, 64); err == nil && rate > 0 {
			billingCfg.RatePerUnit = rate
		}
	}
	if os.Getenv("ALLOW_OVERPAYMENT") == "false" {
		billingCfg.AllowOverpayment = false
	}

	// Create repositories
	customerRepo := repositories.NewCustomerRepository(pool)
	readingRepo := repositories.NewReadingRepository(pool)
	billRepo := repositories.NewBillRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	userRepo := repositories.NewUserRepository(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// SMS gateway: HTTP provider when configured, log-only otherwise
	var smsGateway services.SMSGateway
	if smsAPIURL := os.Getenv("SMS_API_URL"); smsAPIURL != "" {
		smsGateway = services.NewHTTPSMSGateway(smsAPIURL, os.Getenv("SMS_API_KEY"))
	} else {
		log.Printf("WARNING: SMS_API_URL not set, SMS notifications will only be logged")
		smsGateway = services.NewLogSMSGateway()
	}

	// Create services
	notifier := services.NewBillNotifier(smsGateway, billRepo)
	billingSvc := services.NewBillingService(pool, customerRepo, readingRepo, billRepo, paymentRepo, notifier, billingCfg)
	customerSvc := services.NewCustomerService(customerRepo, cacheSvc)
	reportingSvc := reporting.NewService(pool, cacheSvc)

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(userRepo, jwtSecret)
	customerHandlers := handlers.NewCustomerHandlers(customerSvc)
	billingHandlers := handlers.NewBillingHandlers(billingSvc, readingRepo, paymentRepo)
	billHandlers := handlers.NewBillHandlers(billRepo, minioSvc)
	reportHandlers := handlers.NewReportHandlers(reportingSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background jobs
	scheduler := background.NewJobScheduler(billRepo, reportingSvc)
	if err := scheduler.Start(); err != nil {
		log.Printf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// API routes
	v1 := e.Group("/v1")

	// Authentication routes (no JWT required for signup/login)
	auth := v1.Group("/auth")
	auth.POST("/signup", authHandlers.Signup)
	auth.POST("/login", authHandlers.Login)

	// Protected routes (require a valid JWT)
	jwtConfig := echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Invalid token")
		},
	}
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(jwtConfig))
	protected.Use(middleware.LoadUserContext(userRepo))

	protected.GET("/me", authHandlers.Me)

	// Customer routes
	protected.GET("/customers", customerHandlers.ListCustomers)
	protected.POST("/customers", customerHandlers.CreateCustomer, middleware.RequireRole("admin"))
	protected.GET("/customers/:meterNumber", customerHandlers.GetCustomer)
	protected.PUT("/customers/:meterNumber", customerHandlers.UpdateCustomer, middleware.RequireRole("admin"))
	protected.GET("/customers/:meterNumber/readings", billingHandlers.ListReadings)
	protected.GET("/customers/:meterNumber/bills", billHandlers.ListCustomerBills)

	// Billing routes
	protected.POST("/readings", billingHandlers.SubmitReading, middleware.RequireRole("admin", "reader"))
	protected.POST("/payments", billingHandlers.RecordPayment, middleware.RequireRole("admin", "cashier"))

	// Bill routes
	protected.GET("/bills", billHandlers.ListBills)
	protected.GET("/bills/:id", billHandlers.GetBill)
	protected.GET("/bills/:id/payments", billingHandlers.ListBillPayments)
	protected.POST("/bills/:id/generate-pdf", billHandlers.GenerateBillPDF)

	// Report routes
	protected.GET("/reports/dashboard", reportHandlers.Dashboard)
	protected.GET("/reports/zones", reportHandlers.Zones)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Aquabill server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
