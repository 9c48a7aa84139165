package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vivetti/salesdesk-backend/internal/repo"
	"github.com/vivetti/salesdesk-backend/pkg/auth"
	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	pkgerrors "github.com/vivetti/salesdesk-backend/pkg/errors"
	"github.com/vivetti/salesdesk-backend/pkg/logger"
	"github.com/vivetti/salesdesk-backend/pkg/metrics"
)

const (
	// DefaultSearchLimit caps article search results.
	DefaultSearchLimit = 40
	cacheScope         = "catalog"
)

type catalogRepository interface {
	SearchArticles(ctx context.Context, query string, limit int) ([]models.Article, error)
	FindArticle(ctx context.Context, code string) (*models.Article, error)
	ListCustomers(ctx context.Context, agentID *string, query string) ([]models.Customer, error)
	FindCustomer(ctx context.Context, id int64) (*models.Customer, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(scope string, parts ...string) string
}

// Service exposes catalog lookups used while authoring quotes.
type Service interface {
	SearchArticles(ctx context.Context, query string, limit int) ([]Article, error)
	GetArticle(ctx context.Context, code string) (*Article, error)
	ListCustomers(ctx context.Context, op auth.Operator, query string) ([]Customer, error)
	GetCustomer(ctx context.Context, op auth.Operator, id int64) (*Customer, error)
}

// ServiceParams wires the catalog service. Cache is optional.
type ServiceParams struct {
	Repo        catalogRepository
	Cache       cacheStore
	CacheTTL    time.Duration
	SearchLimit int
	Metrics     *metrics.CacheMetrics
	Logger      *logger.Logger
}

type service struct {
	repo        catalogRepository
	cache       cacheStore
	cacheTTL    time.Duration
	searchLimit int
	metrics     *metrics.CacheMetrics
	logg        *logger.Logger
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Cache != nil && params.CacheTTL <= 0 {
		return nil, fmt.Errorf("catalog cache ttl must be positive")
	}
	limit := params.SearchLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &service{
		repo:        params.Repo,
		cache:       params.Cache,
		cacheTTL:    params.CacheTTL,
		searchLimit: limit,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

func (s *service) SearchArticles(ctx context.Context, query string, limit int) ([]Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Article{}, nil
	}
	if limit <= 0 || limit > s.searchLimit {
		limit = s.searchLimit
	}

	var key string
	if s.cache != nil {
		key = s.cache.CacheKey(cacheScope, "articles", strings.ToLower(query), strconv.Itoa(limit))
		if cached, ok := s.readCache(ctx, key); ok {
			return cached, nil
		}
	}

	rows, err := s.repo.SearchArticles(ctx, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search articles")
	}
	articles := make([]Article, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, articleFromModel(row))
	}

	if s.cache != nil {
		s.writeCache(ctx, key, articles)
	}
	return articles, nil
}

func (s *service) GetArticle(ctx context.Context, code string) (*Article, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article code is required")
	}
	row, err := s.repo.FindArticle(ctx, code)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found").WithDetails(map[string]any{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
	}
	article := articleFromModel(*row)
	return &article, nil
}

func (s *service) ListCustomers(ctx context.Context, op auth.Operator, query string) ([]Customer, error) {
	rows, err := s.repo.ListCustomers(ctx, op.AgentScope(), query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	customers := make([]Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, customerFromModel(row))
	}
	return customers, nil
}

// GetCustomer reports customers owned by another agent as not found.
func (s *service) GetCustomer(ctx context.Context, op auth.Operator, id int64) (*Customer, error) {
	row, err := s.repo.FindCustomer(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	customer := customerFromModel(*row)
	if !op.CanAccessAgent(customer.AgentID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return &customer, nil
}

func (s *service) readCache(ctx context.Context, key string) ([]Article, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.Miss(cacheScope)
		return nil, false
	}
	var articles []Article
	if err := json.Unmarshal([]byte(raw), &articles); err != nil {
		s.metrics.Miss(cacheScope)
		return nil, false
	}
	s.metrics.Hit(cacheScope)
	return articles, true
}

func (s *service) writeCache(ctx context.Context, key string, articles []Article) {
	payload, err := json.Marshal(articles)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "catalog cache write failed")
	}
}
