package routes

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"pantrypal/auth"
	"pantrypal/catalog"
	"pantrypal/discovery"
	"pantrypal/metrics"
	"pantrypal/middleware"
	"pantrypal/pantries"
	"pantrypal/ratelim"
	"pantrypal/savedrecipes"
)

// Deps is everything the router needs, built once at startup.
type Deps struct {
	Logger         *logrus.Logger
	Guard          *middleware.Guard
	Limiter        *ratelim.RateLimiter
	Metrics        *metrics.Registry
	AllowedOrigins []string

	Auth         *auth.Handler
	Pantries     *pantries.Handler
	SavedRecipes *savedrecipes.Handler
	Discovery    *discovery.Handler
	Catalog      *catalog.Handler
}

func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

type router struct {
	*httprouter.Router
	metrics *metrics.Registry
}

func (rt router) handle(method, path string, h httprouter.Handle) {
	rt.Handle(method, path, rt.metrics.Instrument(path, h))
}

func AddAuthRoutes(rt router, d Deps) {
	rt.handle(http.MethodPost, "/signup", d.Limiter.RateLimit(d.Auth.Signup))
	rt.handle(http.MethodPost, "/login", d.Limiter.RateLimit(d.Auth.Login))
	rt.handle(http.MethodPost, "/logout", d.Auth.Logout)
	rt.handle(http.MethodGet, "/session", d.Guard.Authenticate(d.Auth.Session))
}

func AddPantryRoutes(rt router, d Deps) {
	rt.handle(http.MethodPut, "/pantries", d.Guard.OptionalAuth(d.Pantries.SavePantry))
	rt.handle(http.MethodPost, "/pantries", d.Guard.OptionalAuth(d.Pantries.SavePantry))
	rt.handle(http.MethodGet, "/pantries", d.Guard.OptionalAuth(d.Pantries.GetPantry))
}

func AddSavedRecipeRoutes(rt router, d Deps) {
	rt.handle(http.MethodPost, "/saved-recipes", d.Guard.OptionalAuth(d.SavedRecipes.AddRecipe))
	rt.handle(http.MethodGet, "/saved-recipes", d.Guard.OptionalAuth(d.SavedRecipes.GetRecipes))
	rt.handle(http.MethodDelete, "/saved-recipes", d.Guard.OptionalAuth(d.SavedRecipes.RemoveRecipe))
}

func AddDiscoveryRoutes(rt router, d Deps) {
	rt.handle(http.MethodGet, "/new-recipes", d.Guard.OptionalAuth(d.Discovery.GetNewRecipes))
}

func AddCatalogRoutes(rt router, d Deps) {
	rt.handle(http.MethodGet, "/ingredients", d.Guard.OptionalAuth(d.Catalog.SearchIngredients))
}

func AddUtilityRoutes(rt router, d Deps) {
	rt.GET("/health", Index)
	rt.GET("/metrics", d.Metrics.Handler())
}

// NewHandler builds the router and wraps it in the middleware chain.
func NewHandler(d Deps) http.Handler {
	rt := router{Router: httprouter.New(), metrics: d.Metrics}

	AddAuthRoutes(rt, d)
	AddPantryRoutes(rt, d)
	AddSavedRecipeRoutes(rt, d)
	AddDiscoveryRoutes(rt, d)
	AddCatalogRoutes(rt, d)
	AddUtilityRoutes(rt, d)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return middleware.Chain(d.Logger, c.Handler(rt.Router))
}
