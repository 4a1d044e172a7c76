package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdelacruz/tradepost-backend/api/controllers"
	"github.com/jdelacruz/tradepost-backend/api/middleware"
	"github.com/jdelacruz/tradepost-backend/internal/analytics"
	"github.com/jdelacruz/tradepost-backend/internal/auth"
	"github.com/jdelacruz/tradepost-backend/internal/cart"
	checkoutsvc "github.com/jdelacruz/tradepost-backend/internal/checkout"
	"github.com/jdelacruz/tradepost-backend/internal/media"
	"github.com/jdelacruz/tradepost-backend/internal/messages"
	"github.com/jdelacruz/tradepost-backend/internal/notifications"
	"github.com/jdelacruz/tradepost-backend/internal/orders"
	"github.com/jdelacruz/tradepost-backend/internal/products"
	"github.com/jdelacruz/tradepost-backend/internal/realtime"
	"github.com/jdelacruz/tradepost-backend/internal/relationships"
	"github.com/jdelacruz/tradepost-backend/internal/reviews"
	"github.com/jdelacruz/tradepost-backend/internal/wishlist"
	"github.com/jdelacruz/tradepost-backend/pkg/auth/session"
	"github.com/jdelacruz/tradepost-backend/pkg/config"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
	"github.com/jdelacruz/tradepost-backend/pkg/metrics"
	"github.com/jdelacruz/tradepost-backend/pkg/redis"
)

// Params bundles everything the HTTP layer needs. Optional fields may stay
// nil; the affected routes then answer with an internal error.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	HTTPMetrics *metrics.HTTPMetrics
	Sessions    session.AccessSessionChecker
	ReadyChecks []controllers.ReadyCheck

	AuthService      auth.Service
	RegisterService  auth.RegisterService
	ProductService   products.Service
	CartService      cart.Service
	CheckoutService  checkoutsvc.Service
	OrderService     orders.Service
	WishlistService  wishlist.Service
	ReviewService    reviews.Service
	MessageService   messages.Service
	RealtimeService  realtime.Service
	NotifyService    notifications.Service
	CustomerService  relationships.Service
	MediaService     media.Service
	DashboardService analytics.Dashboard
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.ReadyChecks...))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Metrics(p.HTTPMetrics, "auth"))
		r.Use(middleware.Idempotency(p.Redis, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegisterBuyer(p.RegisterService, p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register/seller", controllers.AuthRegisterSeller(p.RegisterService, p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))
	})

	// Public catalog, no auth required.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Use(middleware.Metrics(p.HTTPMetrics, "catalog"))
		r.Get("/products", controllers.CatalogList(p.ProductService, logg))
		r.Get("/products/{productId}", controllers.CatalogGet(p.ProductService, logg))
		r.Get("/products/{productId}/reviews", controllers.ProductReviewsList(p.ReviewService, logg))
		r.Get("/sellers/{sellerId}/reviews", controllers.SellerReviewsList(p.ReviewService, logg))
	})

	// Authenticated buyer surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Metrics(p.HTTPMetrics, "buyer"))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleBuyer))
			r.Get("/", controllers.CartGet(p.CartService, logg))
			r.Post("/items", controllers.CartAddItem(p.CartService, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(p.CartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(p.CartService, logg))
			r.Delete("/", controllers.CartClear(p.CartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleBuyer))
			r.Get("/quote", controllers.CheckoutQuote(p.CheckoutService, logg))
			r.Post("/", controllers.CheckoutExecute(p.CheckoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.BuyerOrdersList(p.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderGet(p.OrderService, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleBuyer)).Post("/{orderId}/confirm-payment", controllers.OrderConfirmPayment(p.OrderService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleBuyer))
			r.Get("/", controllers.WishlistGet(p.WishlistService, logg))
			r.Get("/ids", controllers.WishlistIDs(p.WishlistService, logg))
			r.Post("/items", controllers.WishlistAdd(p.WishlistService, logg))
			r.Delete("/items/{productId}", controllers.WishlistRemove(p.WishlistService, logg))
		})

		r.With(middleware.RequireRole(logg, enums.UserRoleBuyer)).Post("/reviews", controllers.ReviewSubmit(p.ReviewService, logg))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", controllers.ConversationsList(p.MessageService, logg))
			r.Post("/messages", controllers.MessageSend(p.MessageService, logg))
			r.Get("/{conversationId}/messages", controllers.MessagesList(p.MessageService, logg))
			r.Post("/{conversationId}/read", controllers.ConversationMarkRead(p.MessageService, logg))
			r.Post("/{conversationId}/typing", controllers.TypingStart(p.RealtimeService, logg))
			r.Get("/{conversationId}/typing", controllers.TypingPeek(p.RealtimeService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(p.NotifyService, logg))
			r.Get("/unread-count", controllers.NotificationsUnreadCount(p.NotifyService, logg))
			r.Post("/{notificationId}/read", controllers.NotificationMarkRead(p.NotifyService, logg))
			r.Post("/read-all", controllers.NotificationsMarkAllRead(p.NotifyService, logg))
			r.Get("/preferences", controllers.NotificationPreferencesList(p.NotifyService, logg))
			r.Put("/preferences/{key}", controllers.NotificationPreferenceSet(p.NotifyService, logg))
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/presign", controllers.MediaPresign(p.MediaService, logg))
			r.Post("/{mediaId}/confirm", controllers.MediaConfirm(p.MediaService, logg))
			r.Get("/{mediaId}/url", controllers.MediaReadURL(p.MediaService, logg))
		})

		r.Get("/events/stream", controllers.EventsStream(p.RealtimeService, logg))
	})

	// Seller back office.
	r.Route("/api/v1/seller", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireSeller(logg))
		r.Use(middleware.Metrics(p.HTTPMetrics, "seller"))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.SellerProductsList(p.ProductService, logg))
			r.Post("/", controllers.ProductCreate(p.ProductService, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(p.ProductService, logg))
			r.Delete("/{productId}", controllers.ProductUnlist(p.ProductService, logg))
			r.Post("/{productId}/stock", controllers.ProductAdjustStock(p.ProductService, logg))
			r.Get("/{productId}/stock-history", controllers.ProductStockHistory(p.ProductService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.SellerOrdersList(p.OrderService, logg))
			r.Get("/{orderId}", controllers.OrderGet(p.OrderService, logg))
			r.Post("/{orderId}/advance", controllers.OrderAdvance(p.OrderService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(p.OrderService, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomersList(p.CustomerService, logg))
			r.Put("/{buyerId}/tags", controllers.CustomerTag(p.CustomerService, logg))
		})

		r.Post("/reviews/{reviewId}/reply", controllers.ReviewReply(p.ReviewService, logg))
		r.Get("/dashboard", controllers.SellerDashboard(p.DashboardService, logg))
	})

	return r
}
