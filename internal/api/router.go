package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mgoveia/recipevault-be/internal/api/handlers"
	apimw "github.com/mgoveia/recipevault-be/internal/api/middleware"
	"github.com/mgoveia/recipevault-be/internal/auth"
	"github.com/mgoveia/recipevault-be/internal/imagestore"
	"github.com/mgoveia/recipevault-be/internal/models"
	"github.com/mgoveia/recipevault-be/internal/services"
)

// NewRouter creates and configures a new Chi router. mediaDir, when
// non-empty, is served at /media/ (the disk image store); the S3 store serves
// images itself through presigned URLs.
func NewRouter(
	userService services.UserServiceProvider,
	recipeService services.RecipeServiceProvider,
	attributeService services.AttributeServiceProvider,
	images imagestore.Store,
	mediaDir string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, images)
	tagHandler := handlers.NewAttributeHandler(attributeService, models.KindTag)
	ingredientHandler := handlers.NewAttributeHandler(attributeService, models.KindIngredient)

	if mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
	}

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints, rate limited against credential stuffing
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(5, 10))
			r.Post("/users", userHandler.Register)
			r.Post("/users/token", userHandler.Token)
		})

		// Everything below requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userHandler.GetMe)
				r.Put("/", userHandler.UpdateMe)
				r.Patch("/", userHandler.UpdateMe)
				r.Delete("/", userHandler.DeleteMe)
			})

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", recipeHandler.GetAll)
				r.Post("/", recipeHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", recipeHandler.Get)
					r.Put("/", recipeHandler.Update)
					r.Patch("/", recipeHandler.Update)
					r.Delete("/", recipeHandler.Delete)
					r.Post("/image", recipeHandler.UploadImage)
				})
			})

			// Tags and ingredients: list, rename, delete. No create — new
			// attributes come from recipe payloads.
			r.Route("/tags", func(r chi.Router) {
				r.Get("/", tagHandler.GetAll)
				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", tagHandler.Update)
					r.Patch("/", tagHandler.Update)
					r.Delete("/", tagHandler.Delete)
				})
			})

			r.Route("/ingredients", func(r chi.Router) {
				r.Get("/", ingredientHandler.GetAll)
				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", ingredientHandler.Update)
					r.Patch("/", ingredientHandler.Update)
					r.Delete("/", ingredientHandler.Delete)
				})
			})
		})
	})

	return r
}
