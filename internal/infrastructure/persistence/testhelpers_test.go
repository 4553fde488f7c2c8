package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/costledger/internal/domain/catalog"
	"github.com/erp/costledger/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the ledger schema.
// SQLite ignores FOR UPDATE, so these tests cover query shape and workflow
// results; lock behaviour is covered against PostgreSQL.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCard(sku string) (*catalog.ProductCard, error) {
	return catalog.NewProductCard(sku, "Card "+sku)
}

func seedCard(t *testing.T, db *gorm.DB, sku string) *catalog.ProductCard {
	t.Helper()
	card, err := newCard(sku)
	require.NoError(t, err)
	require.NoError(t, NewGormCardRepository(db).Create(context.Background(), card))
	return card
}

// day returns a fixed receipt date n days after the first of January 2024
func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}
