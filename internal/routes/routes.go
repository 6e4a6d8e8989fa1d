// Package routes wires repositories, services and handlers onto the
// router. All dependency construction lives here.
package routes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/domain/auth"
	"github.com/roamlog/roamlog/internal/app/domain/experience"
	"github.com/roamlog/roamlog/internal/app/domain/keyword"
	"github.com/roamlog/roamlog/internal/app/domain/photo"
	"github.com/roamlog/roamlog/internal/app/domain/rating"
	"github.com/roamlog/roamlog/internal/app/domain/search"
	"github.com/roamlog/roamlog/internal/app/domain/trip"
	"github.com/roamlog/roamlog/internal/pkg/config"
	"github.com/roamlog/roamlog/internal/pkg/middleware"
)

// Setup builds every repository, service and handler and registers the
// routes. The keyword vocabulary is loaded once here and shared with the
// suggester for the life of the process.
func Setup(r *gin.Engine, pool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) error {
	authenticator, err := newAuthenticator(cfg)
	if err != nil {
		return err
	}

	keywordRepo := keyword.NewRepository(pool, logger)
	photoRepo := photo.NewRepository(pool, logger)
	blobStore := photo.NewHTTPBlobStore(cfg.PhotoStorage.Endpoint, cfg.PhotoStorage.Token)
	photoService := photo.NewService(photoRepo, blobStore, logger)
	photoHandler := photo.NewHandler(photoService, logger)

	vocabulary, err := keywordRepo.AllNames(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load keyword vocabulary: %w", err)
	}
	suggester := keyword.NewSuggester(vocabulary)

	searchRepo := search.NewRepository(pool, logger)
	searchService := search.NewService(searchRepo, keywordRepo, photoRepo, cfg.Search, logger)
	searchHandler := search.NewHandler(searchService, logger)

	experienceRepo := experience.NewRepository(pool, logger)
	experienceService := experience.NewService(experienceRepo, keywordRepo, photoRepo, blobStore, logger)
	experienceHandler := experience.NewHandler(experienceService, logger)

	ratingRepo := rating.NewRepository(pool, logger)
	ratingService := rating.NewService(ratingRepo, logger)
	ratingHandler := rating.NewHandler(ratingService, logger)

	tripRepo := trip.NewRepository(pool, logger)
	tripService := trip.NewService(tripRepo, logger)
	tripHandler := trip.NewHandler(tripService, logger)

	keywordHandler := keyword.NewHandler(suggester, logger)

	r.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	optional := middleware.OptionalIdentity(authenticator)
	required := middleware.RequireIdentity(authenticator)

	searchGroup := r.Group("/search", optional)
	{
		searchGroup.GET("/keyword", searchHandler.ByKeyword)
		searchGroup.GET("/location", searchHandler.ByLocation)
		searchGroup.GET("/combined", searchHandler.Combined)
		searchGroup.POST("/bounds", searchHandler.ByBounds)
		searchGroup.GET("/suggestions", searchHandler.Suggestions)
	}

	experiences := r.Group("/experiences")
	{
		experiences.GET("", optional, experienceHandler.List)
		experiences.GET("/most-added", tripHandler.MostAdded)
		experiences.GET("/mine", required, experienceHandler.ListMine)
		experiences.GET("/:id", optional, experienceHandler.Get)
		experiences.POST("", required, experienceHandler.Create)
		experiences.PUT("/:id", required, experienceHandler.Update)
		experiences.DELETE("/:id", required, experienceHandler.Delete)
		experiences.GET("/:id/rating", optional, ratingHandler.Aggregate)
		experiences.POST("/:id/rating", required, ratingHandler.Rate)
		experiences.DELETE("/:id/photos/:photoId", required, photoHandler.Delete)
	}

	r.POST("/keywords/suggest", keywordHandler.SuggestKeywords)

	trips := r.Group("/trips")
	{
		trips.GET("/mine", required, tripHandler.ListMine)
		trips.GET("/:id", optional, tripHandler.Get)
		trips.POST("", required, tripHandler.Create)
		trips.PUT("/:id", required, tripHandler.Update)
		trips.DELETE("/:id", required, tripHandler.Delete)
		trips.POST("/:id/experiences", required, tripHandler.AddExperience)
		trips.PUT("/:id/experiences/order", required, tripHandler.Reorder)
		trips.DELETE("/:id/experiences/:experienceId", required, tripHandler.RemoveExperience)
	}

	return nil
}

func newAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	switch cfg.Auth.Mode {
	case "jwt":
		return auth.NewJWTAuthenticator(cfg.Auth.JWTSecret), nil
	case "header", "":
		return auth.NewHeaderAuthenticator(), nil
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.Auth.Mode)
	}
}
