// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/domain/catalog"
	"gorm.io/gorm"
)

// Migration handles catalog schema and seed data
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// RunAutoMigrations creates or updates the catalog tables
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running catalog auto-migrations")

	if err := m.db.AutoMigrate(&catalog.Product{}); err != nil {
		return fmt.Errorf("failed to migrate catalog products: %w", err)
	}
	return nil
}

// SeedProducts inserts the given products unless a product with the same id exists
func (m *Migration) SeedProducts(products []catalog.Product) error {
	var count int64
	m.db.Model(&catalog.Product{}).Count(&count)
	if count >= int64(len(products)) {
		m.logger.WithField("count", count).Info("Catalog already seeded")
		return nil
	}

	for _, prod := range products {
		var existing catalog.Product
		result := m.db.Where("id = ?", prod.ID).First(&existing)
		if result.Error == nil {
			continue
		}
		if err := m.db.Create(&prod).Error; err != nil {
			m.logger.WithError(err).WithField("product_id", prod.ID).Warn("Failed to seed product")
			continue
		}
		m.logger.WithField("product_id", prod.ID).Info("Seeded product")
	}

	return nil
}
