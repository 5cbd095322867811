package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/searchvault/internal/models"
	"github.com/searchvault/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.QueryConfig{},
		&models.Article{},
		&models.Asset{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Query config operations

func (r *Repository) CreateQueryConfig(ctx context.Context, cfg *models.QueryConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *Repository) GetQueryConfigByID(ctx context.Context, id uint) (*models.QueryConfig, error) {
	var cfg models.QueryConfig
	if err := r.db.WithContext(ctx).First(&cfg, id).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *Repository) ListQueryConfigs(ctx context.Context, filter storage.QueryFilter) ([]*models.QueryConfig, error) {
	var configs []*models.QueryConfig
	query := r.db.WithContext(ctx).Model(&models.QueryConfig{})

	if filter.Automated != nil {
		query = query.Where("automated = ?", *filter.Automated)
	}
	if filter.Enabled != nil {
		query = query.Where("schedule_enabled = ?", *filter.Enabled)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Order("id ASC").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *Repository) UpdateQueryConfig(ctx context.Context, cfg *models.QueryConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *Repository) DeleteQueryConfig(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.QueryConfig{}, id).Error
}

// Article operations

func (r *Repository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("url = ?", url).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateArticle inserts the article and its assets in one transaction.
// The URL unique index is the serialization point: a racing writer's
// constraint violation is surfaced as storage.ErrDuplicateURL so the
// loser discards its in-flight article instead of failing the run.
func (r *Repository) CreateArticle(ctx context.Context, article *models.Article) error {
	err := r.db.WithContext(ctx).Create(article).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed: articles.url") {
		return storage.ErrDuplicateURL
	}
	return err
}

func (r *Repository) GetArticleByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("Assets").First(&article, id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *Repository) ListArticles(ctx context.Context, filter storage.ArticleFilter) ([]*models.Article, error) {
	var articles []*models.Article
	query := r.db.WithContext(ctx).Model(&models.Article{}).Preload("Assets")

	if filter.QueryConfigID != nil {
		query = query.Where("query_config_id = ?", *filter.QueryConfigID)
	}

	// Ordering
	orderCol := "created_at"
	if filter.OrderBy != "" {
		orderCol = filter.OrderBy
	}
	if filter.OrderDesc {
		query = query.Order(orderCol + " DESC")
	} else {
		query = query.Order(orderCol + " ASC")
	}

	// Pagination
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// DeleteArticle removes the article and cascades to its assets
func (r *Repository) DeleteArticle(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&models.Asset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Article{}, id).Error
	})
}

// Ensure Repository implements storage.Repository
var _ storage.Repository = (*Repository)(nil)
