package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"example.com/bagstore/internal/middleware"
	"example.com/bagstore/internal/service"
	"example.com/bagstore/pkg/metrics"
)

// ReadinessChecker — функция проверки готовности сервиса.
type ReadinessChecker func(ctx context.Context) error

// Router собирает все обработчики и middleware в один HTTP роутер.
type Router struct {
	engine         *gin.Engine
	authMW         *middleware.AuthMiddleware
	readinessCheck ReadinessChecker
	users          service.UserService
	catalog        service.CatalogService
	cart           service.CartService
	checkout       service.CheckoutService
	orders         service.OrderService
	weighing       service.WeighingService
}

// RouterConfig — параметры для создания роутера.
type RouterConfig struct {
	AuthMW         *middleware.AuthMiddleware
	ReadinessCheck ReadinessChecker // опциональная проверка готовности для /readyz
	Debug          bool             // Режим отладки Gin

	Users    service.UserService
	Catalog  service.CatalogService
	Cart     service.CartService
	Checkout service.CheckoutService
	Orders   service.OrderService
	Weighing service.WeighingService
}

// NewRouter создаёт и настраивает HTTP роутер.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Стандартные middleware Gin
	engine.Use(gin.Recovery())

	// CORS — обработка cross-origin запросов
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	// Security headers — защита от clickjacking, MIME-sniffing, XSS
	engine.Use(middleware.SecurityHeaders())

	// OpenTelemetry tracing — создаёт spans для запросов
	engine.Use(otelgin.Middleware("bagstore"))

	// Prometheus метрики — requests_total, request_duration_seconds
	engine.Use(metrics.GinMetricsMiddleware())

	// Структурное логирование запросов с trace_id
	engine.Use(middleware.RequestLogging())

	r := &Router{
		engine:         engine,
		authMW:         cfg.AuthMW,
		readinessCheck: cfg.ReadinessCheck,
		users:          cfg.Users,
		catalog:        cfg.Catalog,
		cart:           cfg.Cart,
		checkout:       cfg.Checkout,
		orders:         cfg.Orders,
		weighing:       cfg.Weighing,
	}

	r.setupRoutes()
	return r
}

// setupRoutes настраивает все маршруты API.
func (r *Router) setupRoutes() {
	// Health endpoints (без auth)
	r.engine.GET("/health", r.healthCheck)
	r.engine.GET("/healthz", r.livenessCheck)
	r.engine.GET("/readyz", r.readinessCheckHandler)

	// API v1
	v1 := r.engine.Group("/api/v1")

	// === Auth routes (публичные) ===
	authHandler := NewAuthHandler(r.users)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// === Catalog routes (публичные) ===
	catalogHandler := NewCatalogHandler(r.catalog)
	catalog := v1.Group("/catalog")
	{
		catalog.GET("/types", catalogHandler.ListTypes)
		catalog.GET("/types/:id/subtypes", catalogHandler.ListSubtypes)
		catalog.GET("/bags", catalogHandler.SearchBags)
		catalog.GET("/bags/:id", catalogHandler.GetBag)
		catalog.GET("/delivery-types", catalogHandler.ListDeliveryTypes)
		catalog.GET("/payment-methods", catalogHandler.ListPaymentMethods)
		catalog.GET("/order-statuses", catalogHandler.ListOrderStatuses)
	}

	if r.authMW == nil {
		return
	}
	authed := v1.Group("")
	authed.Use(r.authMW.Handle())

	// Logout требует валидный токен
	authed.POST("/auth/logout", authHandler.Logout)

	// === User routes (защищённые) ===
	userHandler := NewUserHandler(r.users)
	me := authed.Group("/users/me")
	{
		me.GET("", userHandler.GetMe)
		me.PUT("", userHandler.UpdateMe)
		me.POST("/password", userHandler.ChangePassword)
		me.GET("/addresses", userHandler.ListAddresses)
		me.POST("/addresses", userHandler.CreateAddress)
		me.PUT("/addresses/:id", userHandler.UpdateAddress)
		me.DELETE("/addresses/:id", userHandler.DeleteAddress)
	}

	// === Cart routes (защищённые) ===
	cartHandler := NewCartHandler(r.cart)
	cart := authed.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddItem)
		cart.PATCH("/items/:bag_id", cartHandler.UpdateQuantity)
		cart.DELETE("/items/:bag_id", cartHandler.RemoveItem)
		cart.DELETE("", cartHandler.Clear)
	}

	// === Checkout routes (защищённые) ===
	checkoutHandler := NewCheckoutHandler(r.checkout)
	authed.POST("/checkout", checkoutHandler.Checkout)
	authed.GET("/checkout/preview", checkoutHandler.Preview)

	// === Order routes (защищённые) ===
	orderHandler := NewOrderHandler(r.orders)
	orders := authed.Group("/orders")
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/receipts", orderHandler.UploadReceipt)
	}

	// === Admin routes (защищённые, только админ) ===
	adminHandler := NewAdminOrderHandler(r.orders, r.weighing)
	admin := authed.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/orders", adminHandler.ListOrders)
		admin.GET("/orders/:id", adminHandler.GetOrder)
		admin.PATCH("/orders/:id/status", adminHandler.SetStatus)
		admin.POST("/orders/:id/lines/:bag_id/weight", adminHandler.RecordWeight)
		admin.GET("/receipts", adminHandler.ListPendingReceipts)
		admin.POST("/receipts/:id/review", adminHandler.ReviewReceipt)
	}
}

// Engine возвращает Gin engine для запуска сервера.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// healthCheck — проверка работоспособности сервиса (legacy).
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "bagstore",
	})
}

// livenessCheck — liveness probe для Kubernetes.
func (r *Router) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// readinessCheckHandler — readiness probe для Kubernetes.
func (r *Router) readinessCheckHandler(c *gin.Context) {
	// Если ReadinessChecker не установлен — считаем сервис готовым
	if r.readinessCheck == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := r.readinessCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
