package router

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"optovik-store/app/controller"
)

type Controllers struct {
	Cart      *controller.CartController
	Settings  *controller.SettingsController
	Product   *controller.ProductController
	Order     *controller.OrderController
	Media     *controller.MediaController
	Audit     *controller.AuditController
	PriceList *controller.PriceListController
	// Delivery is nil when no carrier API is configured.
	Delivery *controller.DeliveryController
}

// Options tune the router's middleware
type Options struct {
	AdminToken     string
	RequestTimeout time.Duration
	OrderRPS       float64
	OrderBurst     int
	// TrustedProxies may set X-Forwarded-For; everyone else is identified by the peer address.
	TrustedProxies []netip.Prefix
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// SetupRoutes builds the HTTP handler for the storefront and admin APIs
func SetupRoutes(c *Controllers, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.OrderRPS <= 0 {
		opts.OrderRPS = 1
	}
	if opts.OrderBurst <= 0 {
		opts.OrderBurst = 5
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(realIP(opts.TrustedProxies))
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", pingHandler)

	// The carrier proxy streams and sets its own CORS headers, so it sits outside the timeout group.
	if c.Delivery != nil {
		r.HandleFunc(controller.DeliveryPrefix+"/*", c.Delivery.Proxy)
	}

	orderLimiter := newIPRateLimiter(opts.OrderRPS, opts.OrderBurst)
	// Every new cart holds memory until it is swept, so creation is limited too.
	cartLimiter := newIPRateLimiter(opts.OrderRPS*4, opts.OrderBurst*4)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.Route("/api", func(r chi.Router) {
			r.Get("/settings/pricing", c.Settings.PublicPricing)

			r.Get("/categories", c.Product.Categories)
			r.Get("/products", c.Product.List)
			r.Get("/products/{productID}", c.Product.Get)
			r.Get("/products/{productID}/media", c.Media.ListByProduct)
			r.Get("/media/{mediaID}/{variant}", c.Media.Image)

			r.Get("/price-list", c.PriceList.HTML)
			r.Get("/price-list.pdf", c.PriceList.PDF)

			r.With(cartLimiter.middleware).Post("/carts", c.Cart.Create)
			r.Route("/carts/{cartID}", func(r chi.Router) {
				r.Get("/", c.Cart.Get)
				r.Delete("/", c.Cart.Clear)
				r.Post("/items", c.Cart.AddItem)
				r.Patch("/items", c.Cart.UpdateItem)
				r.Delete("/items", c.Cart.RemoveItem)
			})

			r.Group(func(r chi.Router) {
				r.Use(orderLimiter.middleware)
				r.Post("/orders", c.Order.Create)
				r.Get("/orders/track", c.Order.Track)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth(opts.AdminToken))

			r.Get("/settings", c.Settings.List)
			r.Get("/settings/gradations", c.Settings.Gradations)
			r.Put("/settings/gradations", c.Settings.UpdateGradations)
			r.Post("/settings/refresh", c.Settings.Refresh)
			r.Put("/settings/{key}", c.Settings.Update)

			r.Get("/products", c.Product.AdminList)
			r.Post("/products", c.Product.Create)
			r.Post("/products/import", c.Product.ImportPrices)
			r.Put("/products/{productID}", c.Product.Update)
			r.Delete("/products/{productID}", c.Product.Deactivate)
			r.Post("/products/{productID}/media", c.Media.Upload)

			r.Delete("/media/{mediaID}", c.Media.Delete)
			r.Post("/media/sync", c.Media.Sync)

			r.Get("/orders", c.Order.List)
			r.Get("/orders/stats", c.Order.Stats)
			r.Get("/orders/export.xlsx", c.Order.Export)
			r.Get("/orders/{orderID}", c.Order.Get)
			r.Patch("/orders/{orderID}/status", c.Order.UpdateStatus)
			r.Post("/orders/{orderID}/sync-payment", c.Order.SyncPayment)

			r.Get("/audit-logs", c.Audit.List)
		})
	})

	return r
}
