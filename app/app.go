package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"optovik-store/app/controller"
	"optovik-store/app/router"
	"optovik-store/config"
	"optovik-store/db"
	"optovik-store/logger"
	"optovik-store/pricing"
	"optovik-store/repository"
	"optovik-store/repository/memory"
	"optovik-store/service"
)

// App is the wired application
type App struct {
	Handler http.Handler

	conn        *sql.DB
	queue       *service.CartWriteQueue
	settings    *service.SettingsProvider
	orders      *service.OrderService
	stopSweeper context.CancelFunc
	sweeperDone chan struct{}
}

type repositories struct {
	settings repository.SettingsRepositoryInterface
	products repository.ProductRepositoryInterface
	carts    repository.CartRepositoryInterface
	orders   repository.OrderRepositoryInterface
	audit    repository.AuditLogRepositoryInterface
	media    repository.MediaRepositoryInterface
}

// Initialize initializes the application
func Initialize(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}

	repos := a.openRepositories(ctx, cfg.Database)

	auditService := service.NewAuditService(repos.audit)

	settings := service.NewSettingsProvider(service.SettingsProviderDeps{
		Repository: repos.settings,
		TTL:        cfg.Settings.TTL,
		Audit:      auditService,
	})
	if err := settings.Load(ctx); err != nil {
		logger.Log.Warnf("⚠️  Initial settings load failed, serving defaults: %v", err)
	}
	a.settings = settings

	queue := service.NewCartWriteQueue(service.CartWriteQueueDeps{
		Repository: repos.carts,
		Debounce:   cfg.Cart.Debounce,
		MaxDelay:   cfg.Cart.MaxDelay,
	})
	a.queue = queue

	carts := service.NewCartService(service.CartServiceDeps{
		Products: repos.products,
		Carts:    repos.carts,
		Queue:    queue,
		Settings: settings,
		Memo:     pricing.NewMemo(0),
		IdleTTL:  cfg.Cart.IdleTTL,
	})

	orderDeps := service.OrderServiceDeps{
		Orders:   repos.orders,
		Products: repos.products,
		Carts:    carts,
		Settings: settings,
		Audit:    auditService,
	}
	// Optional integrations are only assigned when configured so the interfaces stay nil.
	if gateway := newPaymentGateway(cfg.Payments); gateway != nil {
		orderDeps.Payments = gateway
	}
	if notifier := service.NewTelegramNotifier(cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, nil); notifier != nil {
		orderDeps.Notifier = notifier
	}
	orders := service.NewOrderService(orderDeps)
	a.orders = orders

	products := service.NewProductService(repos.products, auditService)
	imports := service.NewPriceImportService(repos.products, auditService)

	cache, err := service.NewMediaCache(cfg.Media.CacheDir)
	if err != nil {
		return nil, err
	}
	mediaDeps := service.MediaServiceDeps{
		Media:    repos.media,
		Products: repos.products,
		Cache:    cache,
		FolderID: cfg.Drive.FolderID,
		Audit:    auditService,
	}
	if drive := newDriveSource(ctx, cfg.Drive); drive != nil {
		mediaDeps.Drive = drive
	}
	media := service.NewMediaService(mediaDeps)

	priceList := service.NewPriceListService(repos.products, settings, cfg.Media.ChromePath)

	delivery, err := controller.NewDeliveryController(cfg.Delivery.CarrierBaseURL, cfg.Delivery.CarrierToken, cfg.Delivery.AllowedOrigin)
	if err != nil {
		return nil, err
	}
	if delivery == nil {
		logger.Log.Infof("⚠️  Delivery proxy disabled: CARRIER_API_URL not set")
	}

	controllers := &router.Controllers{
		Cart:      controller.NewCartController(carts),
		Settings:  controller.NewSettingsController(settings),
		Product:   controller.NewProductController(products, imports),
		Order:     controller.NewOrderController(orders),
		Media:     controller.NewMediaController(media),
		Audit:     controller.NewAuditController(auditService),
		PriceList: controller.NewPriceListController(priceList),
		Delivery:  delivery,
	}
	if cfg.Admin.Token == "" {
		logger.Log.Warnf("⚠️  ADMIN_TOKEN not set, admin API is locked")
	}

	a.Handler = router.SetupRoutes(controllers, router.Options{
		AdminToken:     cfg.Admin.Token,
		RequestTimeout: cfg.Server.WriteTimeout,
		OrderRPS:       cfg.Server.OrderRPS,
		OrderBurst:     cfg.Server.OrderBurst,
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	a.startSweeper(carts, sweepInterval(cfg.Cart.IdleTTL))
	return a, nil
}

// openRepositories uses Postgres when it is configured and reachable, and in-memory stores otherwise.
func (a *App) openRepositories(ctx context.Context, cfg config.DatabaseConfig) repositories {
	if cfg.URL != "" {
		conn, err := db.Open(ctx, cfg.URL)
		if err == nil {
			if err = db.EnsureSchema(ctx, conn); err == nil {
				a.conn = conn
				return repositories{
					settings: repository.NewSettingsRepository(conn),
					products: repository.NewProductRepository(conn),
					carts:    repository.NewCartRepository(conn),
					orders:   repository.NewOrderRepository(conn),
					audit:    repository.NewAuditLogRepository(conn),
					media:    repository.NewMediaRepository(conn),
				}
			}
			_ = conn.Close()
		}
		logger.Log.Warnf("⚠️  Database unavailable, falling back to in-memory storage: %v", err)
	} else {
		logger.Log.Warnf("⚠️  No database configured, using in-memory storage. Data is lost on restart")
	}
	return repositories{
		settings: memory.NewSettingsStore(nil),
		products: memory.NewProductStore(),
		carts:    memory.NewCartStore(),
		orders:   memory.NewOrderStore(),
		audit:    memory.NewAuditLogStore(),
		media:    memory.NewMediaStore(),
	}
}

func newPaymentGateway(cfg config.PaymentsConfig) service.PaymentGateway {
	if cfg.StripeAPIKey == "" {
		logger.Log.Infof("⚠️  Card payments disabled: STRIPE_API_KEY not set")
		return nil
	}
	gateway, err := service.NewStripeGateway(cfg.StripeAPIKey, cfg.Currency)
	if err != nil {
		logger.Log.Warnf("⚠️  Card payments disabled: %v", err)
		return nil
	}
	return gateway
}

func newDriveSource(ctx context.Context, cfg config.DriveConfig) service.DriveSource {
	if cfg.CredentialsPath == "" {
		logger.Log.Infof("⚠️  Drive sync disabled: GOOGLE_APPLICATION_CREDENTIALS not set")
		return nil
	}
	drive, err := service.NewDriveService(ctx, cfg.CredentialsPath)
	if err != nil {
		logger.Log.Warnf("⚠️  Drive sync disabled: %v", err)
		return nil
	}
	return drive
}

func (a *App) startSweeper(carts *service.CartService, interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopSweeper = cancel
	a.sweeperDone = make(chan struct{})
	go func() {
		defer close(a.sweeperDone)
		carts.RunSweeper(ctx, interval)
	}()
}

// sweepInterval checks for idle carts a few times per TTL, at most once a minute.
func sweepInterval(idle time.Duration) time.Duration {
	interval := idle / 4
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	return interval
}

// waitFor waits for fn to return or ctx to end, whichever comes first.
func waitFor(ctx context.Context, fn func()) {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Shutdown stops background work, flushes pending cart writes and releases the database
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.stopSweeper != nil {
		a.stopSweeper()
		<-a.sweeperDone
	}
	if a.queue != nil {
		if err := a.queue.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush carts: %w", err))
		}
	}
	if a.settings != nil {
		waitFor(ctx, a.settings.Wait)
	}
	if a.orders != nil {
		waitFor(ctx, a.orders.WaitNotifications)
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		logger.Log.Infof("✓ Database connection closed")
	}
	return errors.Join(errs...)
}
