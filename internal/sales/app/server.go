package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chatsales_api/config"
	"chatsales_api/internal/sales/app/web"
	"chatsales_api/internal/sales/app/web/handlers"
	"chatsales_api/internal/sales/business/engine"
	"chatsales_api/internal/sales/business/fallback"
	"chatsales_api/internal/sales/business/payment"
	"chatsales_api/internal/sales/business/recovery"
	"chatsales_api/internal/sales/models"
	"chatsales_api/internal/sales/pkg/clients"
	"chatsales_api/internal/sales/storage"
	"chatsales_api/internal/sales/storage/memory"
	"chatsales_api/pkg/dbconnect/migration"
	"chatsales_api/pkg/dbconnect/postgres"
	"chatsales_api/pkg/dbconnect/redisconnect"
	"chatsales_api/pkg/logger"

	"github.com/shopspring/decimal"
)

const shutdownTimeout = 15 * time.Second

// SalesServer owns every long-lived component of the service.
type SalesServer struct {
	cfg       *config.AppConfig
	log       *logger.BaseLogger
	engine    *engine.Engine
	responder *handlers.Responder
	meta      *clients.MetaClient
	scanner   *recovery.Scanner
	ping      func(ctx context.Context) error
	closers   []func() error
}

func NewSalesServer(cfg *config.AppConfig, log *logger.BaseLogger) *SalesServer {
	return &SalesServer{cfg: cfg, log: log}
}

// Init connects storage and builds the engine. Close releases what Init opened.
func (s *SalesServer) Init(ctx context.Context) error {
	catalog, carts, recoveryStore, err := s.openStorage(ctx)
	if err != nil {
		return err
	}

	var completer fallback.Completer
	if s.cfg.Gemini.APIKey != "" {
		gc, err := fallback.NewGeminiCompleter(ctx, s.cfg.Gemini.APIKey)
		if err != nil {
			s.log.Log("Generative fallback disabled: %v", err)
		} else {
			completer = gc
		}
	} else {
		s.log.Log("GEMINI_API_KEY is not set, generative fallback disabled")
	}
	adapter := fallback.NewAdapter(completer, fallback.Options{
		Timeout:        s.cfg.Gemini.Timeout,
		RatePerMinute:  s.cfg.Gemini.RatePerMin,
		CatalogExcerpt: s.cfg.Engine.CatalogExcerpt,
	}, s.log.WithPrefix("[Fallback]"))

	s.engine = engine.New(engine.Deps{
		Catalog:  catalog,
		Carts:    carts,
		Fallback: adapter,
		Models:   fallback.NewModelResolver(s.cfg.Gemini.Models, s.cfg.Gemini.DefaultModel),
		Links:    payment.NewLinkGenerator(s.cfg.Payment.Provider, s.cfg.Payment.PublicKey, s.cfg.Payment.Currency),
	}, s.cfg.Engine, s.log.WithPrefix("[SalesEngine]"))

	s.responder = handlers.NewResponder(s.engine, engine.NewStaticBots(BotsFromConfig(s.cfg.Bots)), s.log.WithPrefix("[Responder]"))

	if s.cfg.Meta.AccessToken != "" && s.cfg.Meta.PhoneNumberID != "" {
		s.meta = clients.NewMetaClient(s.cfg.Meta.BaseURL, s.cfg.Meta.AccessToken, s.cfg.Meta.PhoneNumberID,
			s.cfg.Meta.RatePerSecond, s.log.WithPrefix("[Meta]"))
	} else {
		s.log.Log("Meta credentials are not set, WhatsApp replies will not be delivered")
	}

	if s.cfg.Recovery.Enabled && s.meta != nil {
		s.scanner = recovery.NewScanner(recoveryStore, s.meta, s.cfg.Recovery, s.log.WithPrefix("[Recovery]"))
	}
	return nil
}

func (s *SalesServer) openStorage(ctx context.Context) (storage.Catalog, storage.CartStore, storage.RecoveryStore, error) {
	switch s.cfg.Storage.Driver {
	case config.StorageMemory:
		catalog, err := SeedCatalog(s.cfg.Catalog)
		if err != nil {
			return nil, nil, nil, err
		}
		carts := memory.NewCartStore(catalog)
		s.log.Log("Using in-memory storage with %d seeded categories", len(s.cfg.Catalog))
		return catalog, carts, carts, nil

	case config.StoragePostgres, "":
		pg := postgres.NewPgConnector(&s.cfg.Postgres, s.cfg.Postgres.MaxOpenConns, s.log.WithPrefix("[Postgres]"))
		db, err := pg.Connect(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("error connecting to PostgreSQL: %w", err)
		}
		s.closers = append(s.closers, pg.Close)
		s.ping = pg.Ping

		if err := migration.Apply(db,
			&storage.SalesSchema{},
			&storage.SalesCategories{},
			&storage.SalesProducts{},
			&storage.SalesCarts{},
			&storage.SalesCartItems{},
		); err != nil {
			return nil, nil, nil, err
		}
		s.log.Log("Sales migrations applied successfully!")

		var catalog storage.Catalog = storage.NewPostgresCatalog(db)
		if s.cfg.Redis.Enabled() {
			client, err := redisconnect.Connect(ctx, s.cfg.Redis, s.log.WithPrefix("[Redis]"))
			if err != nil {
				s.log.Log("Catalog cache disabled: %v", err)
			} else {
				s.closers = append(s.closers, client.Close)
				catalog = storage.NewCachedCatalog(catalog, client, s.cfg.Storage.CacheTTL, s.log.WithPrefix("[CatalogCache]"))
			}
		}
		carts := storage.NewPostgresCartStore(db)
		return catalog, carts, carts, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage driver %q", s.cfg.Storage.Driver)
	}
}

// Responder is available after Init.
func (s *SalesServer) Responder() *handlers.Responder {
	return s.responder
}

func (s *SalesServer) Handler() http.Handler {
	var sender handlers.Sender
	if s.meta != nil {
		sender = s.meta
	}
	return web.SetupRoutes(web.Handlers{
		Messages: handlers.NewMessageHandler(s.responder, s.log.WithPrefix("[API]")),
		Webhook:  handlers.NewWebhookHandler(s.responder, sender, s.cfg.Meta.VerifyToken, s.log.WithPrefix("[Webhook]")),
		Health:   handlers.NewHealthHandler(s.ping, s.log),
	}, s.cfg.Auth.JWTSecret, s.log.WithPrefix("[HTTP]"))
}

// Run serves HTTP and the recovery scanner until ctx is cancelled.
func (s *SalesServer) Run(ctx context.Context) error {
	if s.scanner != nil {
		go s.scanner.Run(ctx)
		s.log.Log("Abandoned cart recovery started")
	}

	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Log("Sales service listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Log("Shutting down sales service")
	return srv.Shutdown(shutdownCtx)
}

func (s *SalesServer) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Log("close failed: %v", err)
		}
	}
	s.closers = nil
}

// BotsFromConfig converts configured bots; hybrid mode is on unless disabled explicitly.
func BotsFromConfig(bots []config.BotConfig) []models.Bot {
	out := make([]models.Bot, 0, len(bots))
	for _, b := range bots {
		rules := make([]models.Rule, 0, len(b.Rules))
		for _, r := range b.Rules {
			rules = append(rules, models.Rule{Pattern: r.Pattern, Response: r.Response})
		}
		out = append(out, models.Bot{
			ID:                 b.ID,
			TenantID:           b.TenantID,
			Name:               b.Name,
			Active:             b.Active,
			HybridMode:         b.Hybrid(),
			Plan:               b.Plan,
			SystemInstructions: b.SystemInstructions,
			Rules:              rules,
		})
	}
	return out
}

// SeedCatalog loads the configured categories and products into an in-memory catalog.
func SeedCatalog(categories []config.SeedCategoryConfig) (*memory.Catalog, error) {
	catalog := memory.NewCatalog()
	for _, c := range categories {
		catalog.AddCategory(models.Category{ID: c.ID, TenantID: c.TenantID, Name: c.Name, Description: c.Description})
		for _, p := range c.Products {
			price, err := decimal.NewFromString(p.Price)
			if err != nil {
				return nil, fmt.Errorf("product %d of %s: invalid price %q: %w", p.ID, c.TenantID, p.Price, err)
			}
			catalog.PutProduct(models.Product{
				ID:          p.ID,
				TenantID:    c.TenantID,
				CategoryID:  c.ID,
				Name:        p.Name,
				Description: p.Description,
				Price:       price,
				Stock:       p.Stock,
				IsActive:    !p.Inactive,
			})
		}
	}
	return catalog, nil
}
