package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jdelacruz/tradepost-backend/api/controllers"
	"github.com/jdelacruz/tradepost-backend/api/routes"
	"github.com/jdelacruz/tradepost-backend/internal/analytics"
	"github.com/jdelacruz/tradepost-backend/internal/auth"
	"github.com/jdelacruz/tradepost-backend/internal/cart"
	"github.com/jdelacruz/tradepost-backend/internal/checkout"
	"github.com/jdelacruz/tradepost-backend/internal/media"
	"github.com/jdelacruz/tradepost-backend/internal/messages"
	"github.com/jdelacruz/tradepost-backend/internal/notifications"
	"github.com/jdelacruz/tradepost-backend/internal/orders"
	"github.com/jdelacruz/tradepost-backend/internal/products"
	"github.com/jdelacruz/tradepost-backend/internal/realtime"
	"github.com/jdelacruz/tradepost-backend/internal/relationships"
	"github.com/jdelacruz/tradepost-backend/internal/reviews"
	"github.com/jdelacruz/tradepost-backend/internal/sellers"
	"github.com/jdelacruz/tradepost-backend/internal/users"
	"github.com/jdelacruz/tradepost-backend/internal/wishlist"
	"github.com/jdelacruz/tradepost-backend/pkg/auth/session"
	"github.com/jdelacruz/tradepost-backend/pkg/config"
	"github.com/jdelacruz/tradepost-backend/pkg/db"
	"github.com/jdelacruz/tradepost-backend/pkg/logger"
	"github.com/jdelacruz/tradepost-backend/pkg/metrics"
	"github.com/jdelacruz/tradepost-backend/pkg/migrate"
	"github.com/jdelacruz/tradepost-backend/pkg/outbox"
	"github.com/jdelacruz/tradepost-backend/pkg/redis"
	"github.com/jdelacruz/tradepost-backend/pkg/storage/gcs"
	"github.com/jdelacruz/tradepost-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	userRepo := users.NewRepository(dbClient.DB())
	sellerRepo := sellers.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SellerRepo:     sellerRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo, dbClient, events, cfg.Checkout.LowStockThreshold)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, dbClient, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	relationshipService, err := relationships.NewService(relationships.NewRepository(dbClient.DB()), events)
	if err != nil {
		logg.Error(context.Background(), "failed to create relationship service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:              orderRepo,
		Tx:                dbClient,
		Events:            events,
		Cart:              cartService,
		Relationships:     relationshipService,
		Payments:          orders.NewStripeIntentVerifier(stripeClient),
		LowStockThreshold: cfg.Checkout.LowStockThreshold,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		cartRepo,
		sellerRepo,
		orderService,
		checkout.NewStripePaymentProvider(stripeClient),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:     wishlist.NewRepository(dbClient.DB()),
		Products: productRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:   reviews.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Events: events,
		Orders: orderRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	messageService, err := messages.NewService(messages.ServiceParams{
		Repo:   messages.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Events: events,
		Owners: userRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create message service", err)
		os.Exit(1)
	}

	realtimeService, err := realtime.NewService(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime service", err)
		os.Exit(1)
	}

	notifyService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(media.ServiceParams{
		Repo:        media.NewRepository(dbClient.DB()),
		Signer:      gcsClient,
		Bucket:      cfg.GCS.BucketName,
		UploadTTL:   cfg.GCS.UploadURLExpiry,
		DownloadTTL: cfg.GCS.DownloadURLExpiry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	dashboardService, err := analytics.NewDashboard(analytics.NewDashboardRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	readyChecks := []controllers.ReadyCheck{
		{Name: "database", Ping: dbClient.Ping},
		{Name: "redis", Ping: redisClient.Ping},
		{Name: "storage", Ping: gcsClient.Ping},
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:      cfg,
			Logger:      logg,
			Redis:       redisClient,
			HTTPMetrics: metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
			Sessions:    sessionManager,
			ReadyChecks: readyChecks,

			AuthService:      authService,
			RegisterService:  registerService,
			ProductService:   productService,
			CartService:      cartService,
			CheckoutService:  checkoutService,
			OrderService:     orderService,
			WishlistService:  wishlistService,
			ReviewService:    reviewService,
			MessageService:   messageService,
			RealtimeService:  realtimeService,
			NotifyService:    notifyService,
			CustomerService:  relationshipService,
			MediaService:     mediaService,
			DashboardService: dashboardService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
