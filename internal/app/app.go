// Package app assembles the dashboard: seed data, services, middleware and
// routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"retail-dashboard-api/internal/channels"
	"retail-dashboard-api/internal/config"
	"retail-dashboard-api/internal/events"
	"retail-dashboard-api/internal/fixtures"
	"retail-dashboard-api/internal/handlers"
	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/middleware"
	"retail-dashboard-api/internal/preferences"
	"retail-dashboard-api/internal/repository"
	"retail-dashboard-api/internal/services"
	"retail-dashboard-api/internal/telemetry"
)

// App owns every long-lived component of the server
type App struct {
	cfg       *config.Config
	bundle    *i18n.Bundle
	store     preferences.Store
	queue     *events.EventQueue
	telemetry *telemetry.DashboardApiTelemetry

	orders     *services.OrderService
	inventory  *services.InventoryService
	products   *services.ProductService
	customers  *services.CustomerService
	channels   *services.ChannelService
	dashboard  *services.DashboardService
	incentives *services.IncentiveService
}

// New loads the seed and builds the services described by cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	seed, err := fixtures.Load(cfg.SeedDataPath)
	if err != nil {
		return nil, fmt.Errorf("load seed data: %w", err)
	}

	bundle, err := i18n.LoadBundle()
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	if !i18n.ValidLocale(cfg.DefaultLocale) {
		return nil, fmt.Errorf("default locale %q: %w", cfg.DefaultLocale, i18n.ErrUnsupportedLocale)
	}

	store, err := preferences.Open(cfg.PreferencesDriver, cfg.PreferencesDSN)
	if err != nil {
		return nil, fmt.Errorf("open preferences store: %w", err)
	}

	apiTelemetry := telemetry.NewDashboardApiTelemetry(nil)
	if err := apiTelemetry.InitializeTelemetry(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize api telemetry: %w", err)
	}

	pageSize := config.ParseInt(cfg.PageSize, 10, 1)
	cleanup := config.ParseDuration(cfg.CacheCleanupInterval, time.Minute)

	queue := events.NewEventQueue(events.EventQueueConfig{
		MaxEvents: config.ParseInt(cfg.MaxEventsInQueue, 1000, 4),
		Logger:    slog.Default(),
	})

	orderRepo := repository.NewMemoryRepository(seed.Orders)
	inventoryRepo := repository.NewMemoryRepository(seed.Inventory)

	a := &App{
		cfg:       cfg,
		bundle:    bundle,
		store:     store,
		queue:     queue,
		telemetry: apiTelemetry,
		orders: services.NewOrderService(orderRepo, queue, services.OrderServiceConfig{
			PageSize:        pageSize,
			DraftTTL:        config.ParseDuration(cfg.SplitDraftTTL, 30*time.Minute),
			CleanupInterval: cleanup,
			Metrics:         apiTelemetry,
		}),
		inventory: services.NewInventoryService(inventoryRepo, queue, pageSize, apiTelemetry),
		products:  services.NewProductService(repository.NewMemoryRepository(seed.Products), pageSize),
		customers: services.NewCustomerService(repository.NewMemoryRepository(seed.Customers), orderRepo, pageSize),
		channels: services.NewChannelService(repository.NewMemoryRepository(seed.Channels), queue, services.ChannelServiceConfig{
			PageSize: pageSize,
			Sync: channels.Config{
				Duration:        config.ParseDuration(cfg.SyncDuration, 3*time.Second),
				Steps:           config.ParseInt(cfg.SyncSteps, 5, 1),
				JobTTL:          config.ParseDuration(cfg.SyncJobTTL, 10*time.Minute),
				CleanupInterval: cleanup,
				Logger:          slog.Default(),
			},
			Metrics: apiTelemetry,
		}),
		dashboard:  services.NewDashboardService(orderRepo, inventoryRepo, uint64(config.ParseInt64(cfg.AnalyticsSeed, 42))),
		incentives: services.NewIncentiveService(repository.NewMemoryRepository(seed.Incentives), pageSize),
	}

	slog.Info("Dashboard initialized",
		"orders", len(seed.Orders),
		"products", len(seed.Products),
		"inventory_items", len(seed.Inventory),
		"channels", len(seed.Channels),
		"customers", len(seed.Customers),
		"incentive_plans", len(seed.Incentives),
		"default_locale", cfg.DefaultLocale)
	return a, nil
}

// Router builds the HTTP routes. Telemetry wraps everything so failed
// requests are counted too.
func (a *App) Router() http.Handler {
	orderHandler := handlers.NewOrderHandler(a.orders)
	inventoryHandler := handlers.NewInventoryHandler(a.inventory)
	productHandler := handlers.NewProductHandler(a.products)
	customerHandler := handlers.NewCustomerHandler(a.customers)
	channelHandler := handlers.NewChannelHandler(a.channels)
	dashboardHandler := handlers.NewDashboardHandler(a.dashboard)
	incentiveHandler := handlers.NewIncentiveHandler(a.incentives)
	preferencesHandler := handlers.NewPreferencesHandler(a.bundle)
	eventsHandler := handlers.NewEventsHandler(a.queue, slog.Default())
	healthHandler := handlers.NewHealthHandler(handlers.HealthSources{
		Sync:      a.channels,
		Events:    a.queue,
		Drafts:    a.orders,
		Inventory: a.inventory,
	})

	locale := middleware.NewLocale(a.bundle, a.store, a.cfg.DefaultLocale)

	r := mux.NewRouter()
	r.Use(telemetry.NewTelemetryMiddleware(a.telemetry).Middleware)
	r.Use(middleware.ClientMiddleware)
	r.Use(locale.Middleware)

	// Unmatched routes bypass r.Use, so the same chain is applied by hand
	r.NotFoundHandler = telemetry.NewTelemetryMiddleware(a.telemetry).Middleware(
		middleware.ClientMiddleware(locale.Middleware(http.HandlerFunc(handlers.NotFound))))

	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/navigation", dashboardHandler.GetNavigation).Methods(http.MethodGet)
	v1.HandleFunc("/dashboard", dashboardHandler.GetSummary).Methods(http.MethodGet)

	// Orders: literal paths before {id}
	v1.HandleFunc("/orders", orderHandler.ListOrders).Methods(http.MethodGet)
	v1.HandleFunc("/orders/merge/preview", orderHandler.PreviewMerge).Methods(http.MethodPost)
	v1.HandleFunc("/orders/merge", orderHandler.Merge).Methods(http.MethodPost)
	v1.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods(http.MethodGet)
	v1.HandleFunc("/orders/{id}/split-drafts", orderHandler.StartSplit).Methods(http.MethodPost)

	v1.HandleFunc("/split-drafts/{draftId}", orderHandler.GetDraft).Methods(http.MethodGet)
	v1.HandleFunc("/split-drafts/{draftId}", orderHandler.DiscardDraft).Methods(http.MethodDelete)
	v1.HandleFunc("/split-drafts/{draftId}/buckets", orderHandler.AddBucket).Methods(http.MethodPost)
	v1.HandleFunc("/split-drafts/{draftId}/buckets/{bucketId}", orderHandler.DeleteBucket).Methods(http.MethodDelete)
	v1.HandleFunc("/split-drafts/{draftId}/buckets/{bucketId}/items/{lineId}", orderHandler.RemoveItem).Methods(http.MethodDelete)
	v1.HandleFunc("/split-drafts/{draftId}/moves", orderHandler.MoveItem).Methods(http.MethodPost)
	v1.HandleFunc("/split-drafts/{draftId}/auto-assign", orderHandler.AutoAssign).Methods(http.MethodPost)
	v1.HandleFunc("/split-drafts/{draftId}/commit", orderHandler.CommitSplit).Methods(http.MethodPost)

	v1.HandleFunc("/products", productHandler.ListProducts).Methods(http.MethodGet)
	v1.HandleFunc("/products/{id}", productHandler.GetProduct).Methods(http.MethodGet)

	v1.HandleFunc("/inventory", inventoryHandler.ListInventory).Methods(http.MethodGet)
	v1.HandleFunc("/inventory/{id}", inventoryHandler.GetItem).Methods(http.MethodGet)
	v1.HandleFunc("/inventory/{id}/adjustments", inventoryHandler.AdjustStock).Methods(http.MethodPost)
	v1.HandleFunc("/inventory/{id}/transfers", inventoryHandler.TransferStock).Methods(http.MethodPost)

	v1.HandleFunc("/customers", customerHandler.ListCustomers).Methods(http.MethodGet)
	v1.HandleFunc("/customers/{id}", customerHandler.GetCustomer).Methods(http.MethodGet)

	v1.HandleFunc("/channels", channelHandler.ListChannels).Methods(http.MethodGet)
	v1.HandleFunc("/channels/{id}", channelHandler.GetChannel).Methods(http.MethodGet)
	v1.HandleFunc("/channels/{id}/sync", channelHandler.StartSync).Methods(http.MethodPost)
	v1.HandleFunc("/sync-jobs/{jobId}", channelHandler.GetJob).Methods(http.MethodGet)
	v1.HandleFunc("/sync-jobs/{jobId}", channelHandler.CancelJob).Methods(http.MethodDelete)

	v1.HandleFunc("/incentives", incentiveHandler.ListIncentives).Methods(http.MethodGet)
	v1.HandleFunc("/incentives/validate", incentiveHandler.ValidatePlan).Methods(http.MethodPost)

	v1.HandleFunc("/preferences", preferencesHandler.GetPreferences).Methods(http.MethodGet)
	v1.HandleFunc("/preferences", preferencesHandler.UpdatePreferences).Methods(http.MethodPut)
	v1.HandleFunc("/i18n", preferencesHandler.GetTable).Methods(http.MethodGet)
	v1.HandleFunc("/i18n/translate", preferencesHandler.Translate).Methods(http.MethodGet)

	v1.HandleFunc("/events", eventsHandler.GetEvents).Methods(http.MethodGet)

	return r
}

// Close stops background workers and releases the preferences store
func (a *App) Close() error {
	a.orders.Close()
	a.channels.Close()
	return errors.Join(a.queue.Close(), a.store.Close())
}
