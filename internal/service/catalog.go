package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/repository"
	"github.com/utafrali/StorefrontGo/pkg/slug"
)

// ShowcaseSize is how many products the storefront page presents.
const ShowcaseSize = 3

const showcaseCacheKey = "storefront:showcase"

// seedProduct describes one product the storefront ships with.
type seedProduct struct {
	name        string
	description string
	price       int64
}

// The fixed showcase. Prices are in cents.
var seedProducts = []seedProduct{
	{name: "Premium Laptop", description: "High-performance laptop for professionals", price: 129999},
	{name: "Wireless Headphones", description: "Noise-cancelling over-ear headphones", price: 24999},
	{name: "Smart Watch", description: "Fitness tracking smart watch", price: 39999},
}

// CatalogService serves the product showcase and seeds the fixed catalog.
type CatalogService struct {
	repo     repository.ProductRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service. A nil cache client disables
// showcase caching.
func NewCatalogService(repo repository.ProductRepository, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Showcase returns the active products presented on the storefront, at most
// ShowcaseSize of them. Cache failures fall back to the database.
func (s *CatalogService) Showcase(ctx context.Context) ([]domain.Product, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, showcaseCacheKey).Bytes()
		if err == nil {
			var products []domain.Product
			if err := json.Unmarshal(data, &products); err == nil {
				return products, nil
			}
			s.logger.WarnContext(ctx, "showcase cache entry corrupt, falling back to database")
		} else if err != redis.Nil {
			s.logger.WarnContext(ctx, "showcase cache read failed", slog.String("error", err.Error()))
		}
	}

	products, err := s.repo.ListActive(ctx, ShowcaseSize)
	if err != nil {
		return nil, fmt.Errorf("list showcase products: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, showcaseCacheKey, data, s.cacheTTL).Err(); err != nil {
				s.logger.WarnContext(ctx, "showcase cache write failed", slog.String("error", err.Error()))
			}
		}
	}

	return products, nil
}

// SeedDefaults inserts the fixed showcase products, skipping any that were
// already seeded. Safe to run on every startup.
func (s *CatalogService) SeedDefaults(ctx context.Context) (int, error) {
	inserted := 0
	for _, seed := range seedProducts {
		p := &domain.Product{
			ID:          uuid.New().String(),
			Name:        seed.name,
			Slug:        slug.Generate(seed.name),
			Description: seed.description,
			Price:       seed.price,
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		}

		ok, err := s.repo.CreateIfAbsent(ctx, p)
		if err != nil {
			return inserted, fmt.Errorf("seed product %q: %w", seed.name, err)
		}
		if ok {
			inserted++
			s.logger.InfoContext(ctx, "seeded product",
				slog.String("product_id", p.ID),
				slog.String("slug", p.Slug),
				slog.Int64("price", p.Price),
			)
		}
	}

	if inserted > 0 && s.cache != nil {
		if err := s.cache.Del(ctx, showcaseCacheKey).Err(); err != nil {
			s.logger.WarnContext(ctx, "showcase cache invalidation failed", slog.String("error", err.Error()))
		}
	}

	return inserted, nil
}
