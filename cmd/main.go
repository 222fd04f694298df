package main

import (
	"net/http"

	"phonestore-service/internal/handler"
	mid "phonestore-service/internal/middleware"
	"phonestore-service/internal/vnpay"
	"phonestore-service/pkg/config"
	"phonestore-service/pkg/database"
	"phonestore-service/pkg/jwtutil"
	"phonestore-service/pkg/logger"
	"phonestore-service/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Just log a warning, don't fail if .env file is not found
		// This allows the service to run in environments where env vars are set differently
		// such as production environments with proper environment configuration
		// The fallback values will be used in case env vars are not set
	}

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting phonestore-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize VNPay gateway client
	handler.InitPaymentGateway(vnpay.New(appConfig.VNPay))
	log.Info("VNPay gateway initialized",
		zap.String("tmn_code", appConfig.VNPay.TmnCode),
		zap.Bool("sandbox", appConfig.VNPay.Sandbox))

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Routes
	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// VNPay gateway callbacks are unauthenticated; the gateway signs
	// every request and the handlers verify the signature instead
	paymentAPI := e.Group("/api/payments")
	paymentAPI.GET("/vnpay_return", handler.VNPayReturn)
	paymentAPI.GET("/vnpay_ipn", handler.VNPayIPN)
	paymentAPI.GET("/vnpay_config", handler.VNPayConfig)

	// Brand API routes
	brandAPI := e.Group("/api/brands", mid.AuthMiddleware)
	brandAPI.GET("", handler.ListBrands)
	brandAPI.GET("/:id", handler.GetBrand)
	brandAPI.POST("", handler.CreateBrand)
	brandAPI.PUT("/:id", handler.UpdateBrand)
	brandAPI.DELETE("/:id", handler.DeleteBrand)

	// Product API routes
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", handler.ListProducts)
	productAPI.GET("/:id", handler.GetProduct)
	productAPI.POST("", handler.CreateProduct)
	productAPI.PUT("/:id", handler.UpdateProduct)
	productAPI.DELETE("/:id", handler.DeleteProduct)
	productAPI.POST("/:id/variants", handler.CreateVariant)
	productAPI.PUT("/variants/:variant_id", handler.UpdateVariant)

	// Customer API routes
	customerAPI := e.Group("/api/customers", mid.AuthMiddleware)
	customerAPI.GET("", handler.ListCustomers)
	customerAPI.GET("/:id", handler.GetCustomer)
	customerAPI.POST("", handler.CreateCustomer)
	customerAPI.PUT("/:id", handler.UpdateCustomer)
	customerAPI.DELETE("/:id", handler.DeleteCustomer)

	// Supplier API routes
	supplierAPI := e.Group("/api/suppliers", mid.AuthMiddleware)
	supplierAPI.GET("", handler.ListSuppliers)
	supplierAPI.GET("/:id", handler.GetSupplier)
	supplierAPI.POST("", handler.CreateSupplier)
	supplierAPI.PUT("/:id", handler.UpdateSupplier)
	supplierAPI.DELETE("/:id", handler.DeleteSupplier)

	// Purchase order API routes
	poAPI := e.Group("/api/purchase_orders", mid.AuthMiddleware)
	poAPI.GET("", handler.ListPurchaseOrders)
	poAPI.GET("/:id", handler.GetPurchaseOrder)
	poAPI.POST("", handler.CreatePurchaseOrder)
	poAPI.POST("/:id/approve", handler.ApprovePurchaseOrder)
	poAPI.POST("/:id/cancel", handler.CancelPurchaseOrder)
	poAPI.POST("/:id/receive", handler.ReceivePurchaseOrder)

	// Stock in API routes
	stockInAPI := e.Group("/api/stock_ins", mid.AuthMiddleware)
	stockInAPI.GET("", handler.ListStockIns)
	stockInAPI.GET("/:id", handler.GetStockIn)
	stockInAPI.POST("", handler.CreateStockIn)

	// Stock out API routes
	stockOutAPI := e.Group("/api/stock_outs", mid.AuthMiddleware)
	stockOutAPI.GET("", handler.ListStockOuts)
	stockOutAPI.GET("/:id", handler.GetStockOut)
	stockOutAPI.POST("", handler.CreateStockOut)

	// Inventory API routes
	inventoryAPI := e.Group("/api/inventory", mid.AuthMiddleware)
	inventoryAPI.GET("", handler.ListInventory)
	inventoryAPI.GET("/low_stock", handler.LowStockAlert)
	inventoryAPI.GET("/summary", handler.InventorySummary)

	// Stock movement API routes
	movementAPI := e.Group("/api/stock_movements", mid.AuthMiddleware)
	movementAPI.GET("", handler.ListStockMovements)
	movementAPI.GET("/summary", handler.StockMovementSummary)

	// Order API routes
	orderAPI := e.Group("/api/orders", mid.AuthMiddleware)
	orderAPI.GET("", handler.ListOrders)
	orderAPI.GET("/:id", handler.GetOrder)
	orderAPI.POST("", handler.CreateOrder)
	orderAPI.POST("/:id/cancel", handler.CancelOrder)
	orderAPI.POST("/:id/fulfill", handler.FulfillOrder)
	orderAPI.POST("/:id/create_vnpay_payment", handler.CreateVNPayPayment)
	orderAPI.GET("/:id/payments", handler.ListOrderPayments)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
