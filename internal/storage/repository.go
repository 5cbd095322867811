package storage

import (
	"context"
	"errors"

	"github.com/searchvault/internal/models"
)

// ErrDuplicateURL means an article with the same original URL already
// exists. CreateArticle returns it when a racing writer got there first;
// the losing run counts a duplicate, not a failure.
var ErrDuplicateURL = errors.New("article URL already exists")

// Repository defines the interface for data persistence
type Repository interface {
	// Query config operations
	CreateQueryConfig(ctx context.Context, cfg *models.QueryConfig) error
	GetQueryConfigByID(ctx context.Context, id uint) (*models.QueryConfig, error)
	ListQueryConfigs(ctx context.Context, filter QueryFilter) ([]*models.QueryConfig, error)
	UpdateQueryConfig(ctx context.Context, cfg *models.QueryConfig) error
	DeleteQueryConfig(ctx context.Context, id uint) error

	// Article operations
	ExistsByURL(ctx context.Context, url string) (bool, error)
	CreateArticle(ctx context.Context, article *models.Article) error
	GetArticleByID(ctx context.Context, id uint) (*models.Article, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]*models.Article, error)
	DeleteArticle(ctx context.Context, id uint) error

	// Maintenance
	Migrate() error
	Close() error
}

// QueryFilter defines filtering options for query configs
type QueryFilter struct {
	Automated *bool
	Enabled   *bool
	Limit     int
	Offset    int
}

// ArticleFilter defines filtering options for articles
type ArticleFilter struct {
	QueryConfigID *uint
	Limit         int
	Offset        int
	OrderBy       string // "created_at", "word_count"
	OrderDesc     bool
}

// DefaultArticleFilter returns a filter with sensible defaults
func DefaultArticleFilter() ArticleFilter {
	return ArticleFilter{
		Limit:     50,
		OrderBy:   "created_at",
		OrderDesc: true,
	}
}
