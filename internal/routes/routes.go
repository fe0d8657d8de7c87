package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/medibook/internal/cache"
	"github.com/example/medibook/internal/config"
	"github.com/example/medibook/internal/handlers"
	"github.com/example/medibook/internal/middleware"
	"github.com/example/medibook/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	bookCache := cache.New(cfg.RedisAddr, cfg.RedisDB, 10*time.Minute)
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	pricing := services.PricingConfig{
		ShippingFlatFee:       cfg.ShippingFlatFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}

	cartService := services.NewCartService(db)
	couponService := services.NewCouponService(db)
	checkoutService := services.NewCheckoutService(db, pricing, bookCache, telegramService)

	momoAdapter := services.NewMoMoAdapter(cfg.MoMoPartnerCode, cfg.MoMoAccessKey, cfg.MoMoSecretKey, cfg.MoMoEndpoint)
	vnpayAdapter := services.NewVNPayAdapter(cfg.VNPayTmnCode, cfg.VNPayHashSecret)
	zalopayAdapter := services.NewZaloPayAdapter(cfg.ZaloPayAppID, cfg.ZaloPayKey2)
	reconciler := services.NewPaymentReconciler(db, telegramService, momoAdapter, vnpayAdapter, zalopayAdapter)

	bookHandler := handlers.NewBookHandler(db, bookCache)
	catalogHandler := handlers.NewCatalogHandler(db)
	cartHandler := handlers.NewCartHandler(cartService)
	couponHandler := handlers.NewCouponHandler(db, couponService)
	orderHandler := handlers.NewOrderHandler(db, checkoutService)
	paymentHandler := handlers.NewPaymentHandler(db, cfg, reconciler, momoAdapter, vnpayAdapter)
	profileHandler := handlers.NewProfileHandler(db)
	adminHandler := handlers.NewAdminHandler(db, checkoutService)

	api := app.Group("/api")

	// Public catalog
	books := api.Group("/books")
	books.Get("/", bookHandler.ListBooks)
	books.Get("/:id", bookHandler.GetBook)

	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:id", catalogHandler.GetCategory)

	// Coupon validation is public so the cart page can preview discounts.
	api.Post("/coupons/validate", couponHandler.Validate)

	api.Get("/payments/methods", paymentHandler.ListMethods)

	// Payment gateway callbacks authenticate themselves via signatures
	// checked in the provider adapters.
	api.Post("/payments/momo/ipn", paymentHandler.MoMoIPN)
	api.Get("/payments/vnpay/ipn", paymentHandler.VNPayIPN)
	api.Post("/payments/zalopay/callback", paymentHandler.ZaloPayCallback)

	// Authenticated storefront
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Get("/cart", cartHandler.GetCart)
	protected.Post("/cart/items", cartHandler.AddItem)
	protected.Put("/cart/items/:id", cartHandler.UpdateItem)
	protected.Delete("/cart/items/:id", cartHandler.RemoveItem)
	protected.Delete("/cart", cartHandler.ClearCart)

	protected.Post("/checkout/quote", orderHandler.Quote)
	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders/:id/cancel", orderHandler.CancelOrder)

	protected.Post("/payments/initiate", paymentHandler.InitiatePayment)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/addresses", profileHandler.ListAddresses)
	protected.Post("/profile/addresses", profileHandler.CreateAddress)
	protected.Put("/profile/addresses/:id", profileHandler.UpdateAddress)
	protected.Delete("/profile/addresses/:id", profileHandler.DeleteAddress)

	// Back office
	admin := api.Group("/admin", middleware.AdminAuthMiddleware(cfg.AdminToken))

	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Get("/orders/recent", adminHandler.RecentOrders)
	admin.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)

	admin.Post("/books", bookHandler.CreateBook)
	admin.Put("/books/:id", bookHandler.UpdateBook)
	admin.Delete("/books/:id", bookHandler.DeleteBook)

	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)

	admin.Get("/coupons", couponHandler.ListCoupons)
	admin.Post("/coupons", couponHandler.CreateCoupon)
	admin.Put("/coupons/:id", couponHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", couponHandler.DeleteCoupon)

	admin.Get("/payments/transactions", paymentHandler.ListTransactions)
}
