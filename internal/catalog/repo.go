package catalog

import (
	"context"
	"strings"

	"github.com/vivetti/salesdesk-backend/pkg/db/models"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository reads the article catalog and customer directory.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SearchArticles matches the query against code or description, case-insensitively.
func (r *Repository) SearchArticles(ctx context.Context, query string, limit int) ([]models.Article, error) {
	pattern := likePattern(query)
	var articles []models.Article
	err := r.db.WithContext(ctx).
		Where(`LOWER(code) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("code ASC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// FindArticle returns the article with the given code.
func (r *Repository) FindArticle(ctx context.Context, code string) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// ListCustomers returns customers ordered by name. A nil agentID lists every customer.
func (r *Repository) ListCustomers(ctx context.Context, agentID *string, query string) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).Model(&models.Customer{})
	if agentID != nil {
		q = q.Where("agent_id = ?", *agentID)
	}
	if strings.TrimSpace(query) != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(query))
	}
	var customers []models.Customer
	if err := q.Order("name ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// FindCustomer returns the customer with the given id.
func (r *Repository) FindCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func likePattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}
