package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"pantrypal/auth"
	"pantrypal/catalog"
	"pantrypal/config"
	"pantrypal/db"
	"pantrypal/discovery"
	"pantrypal/metrics"
	"pantrypal/middleware"
	"pantrypal/mq"
	"pantrypal/pantries"
	"pantrypal/ratelim"
	"pantrypal/rdx"
	"pantrypal/routes"
	"pantrypal/savedrecipes"
	"pantrypal/users"
)

// App is the wired server: handler plus the resources to release on exit.
type App struct {
	Handler http.Handler
	Limiter *ratelim.RateLimiter

	store *db.Store
	cache rdx.Cache
}

// Repositories lets callers swap storage; production uses Mongo.
type Repositories struct {
	Users        users.Repository
	Pantries     pantries.Repository
	SavedRecipes savedrecipes.Repository
}

func mongoRepositories(store *db.Store) Repositories {
	return Repositories{
		Users:        users.NewMongoRepository(store.Users()),
		Pantries:     pantries.NewMongoRepository(store.Pantries()),
		SavedRecipes: savedrecipes.NewMongoRepository(store.SavedRecipes()),
	}
}

// NewApp connects to Mongo, ensures indexes and wires every handler.
func NewApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	store := db.New(cfg.MongoURI, cfg.MongoDatabase, logger)
	if err := store.Connect(ctx); err != nil {
		return nil, err
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = store.Disconnect(context.Background())
		return nil, err
	}

	cache := rdx.New(cfg.RedisAddr, cfg.RedisPassword, logger)
	_ = rdx.Check(ctx, cache, logger)
	app, err := Assemble(cfg, logger, mongoRepositories(store), cache)
	if err != nil {
		_ = cache.Close()
		_ = store.Disconnect(context.Background())
		return nil, err
	}
	app.store = store
	return app, nil
}

// Assemble wires the handler over the given repositories and cache.
func Assemble(cfg *config.Config, logger *logrus.Logger, repos Repositories, cache rdx.Cache) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load ingredient catalog: %w", err)
	}
	logger.WithField("ingredients", cat.Len()).Info("Ingredient catalog loaded")

	reg := metrics.New()
	events := mq.NewLogEmitter(logger)
	sessions := auth.NewSessions(cfg.JWTSecret, cfg.SessionTTL)

	userSvc := users.NewService(repos.Users, cfg.BcryptCost, logger)
	pantrySvc := pantries.NewService(repos.Pantries, userSvc, events, reg, logger)
	savedSvc := savedrecipes.NewService(repos.SavedRecipes, userSvc, events, reg, logger)

	provider := discovery.NewCachedProvider(
		discovery.NewSpoonacular(cfg.SpoonacularURL, cfg.SpoonacularKey, reg),
		cache, cfg.DiscoveryCacheTTL, reg, logger,
	)
	discoverySvc := discovery.NewService(provider, pantrySvc, savedSvc, logger)

	limiter := ratelim.NewRateLimiter()
	handler := routes.NewHandler(routes.Deps{
		Logger:         logger,
		Guard:          middleware.NewGuard(sessions),
		Limiter:        limiter,
		Metrics:        reg,
		AllowedOrigins: cfg.AllowedOrigins,
		Auth:           auth.NewHandler(userSvc, sessions, logger),
		Pantries:       pantries.NewHandler(pantrySvc, logger),
		SavedRecipes:   savedrecipes.NewHandler(savedSvc, logger),
		Discovery:      discovery.NewHandler(discoverySvc, logger),
		Catalog:        catalog.NewHandler(cat, pantrySvc, logger),
	})

	return &App{Handler: handler, Limiter: limiter, cache: cache}, nil
}

func (a *App) Close(ctx context.Context) error {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.store != nil {
		return a.store.Disconnect(ctx)
	}
	return nil
}
