package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PixelBlog/app/models"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/database"
	"github.com/ManuelReschke/PixelBlog/internal/pkg/env"
)

// openTestDB connects to the MySQL test database or skips the test when none is reachable.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := env.GetEnv("TEST_DB_DSN", "")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=2s",
			env.GetEnv("DB_USER", "pixelblog"),
			env.GetEnv("DB_PASSWORD", "pixelblog"),
			env.GetEnv("DB_HOST", "127.0.0.1"),
			env.GetEnv("DB_PORT", "3306"),
			env.GetEnv("DB_NAME", "pixelblog_test"),
		)
	}

	db, err := database.Open(dsn)
	if err != nil {
		t.Skipf("Skipping MySQL-dependent test: no reachable database (%v)", err)
	}
	sqlDB, err := db.DB()
	if err != nil || sqlDB.Ping() != nil {
		t.Skipf("Skipping MySQL-dependent test: ping failed (%v)", err)
	}

	require.NoError(t, database.AutoMigrate(db))
	resetBlogTables(t, db)
	t.Cleanup(func() {
		resetBlogTables(t, db)
		_ = sqlDB.Close()
	})
	return db
}

func resetBlogTables(t *testing.T, db *gorm.DB) {
	t.Helper()

	for _, table := range []string{
		models.BlogPost{}.TableName(),
		models.BlogCategory{}.TableName(),
		models.User{}.TableName(),
	} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
}

func seedAuthorAndCategory(t *testing.T, db *gorm.DB) (*models.User, *models.BlogCategory) {
	t.Helper()

	user := &models.User{Name: "Olena Kovalenko", Email: "olena@example.com", Status: models.STATUS_ACTIVE, APIKeyHash: models.HashAPIKey("pb_test")}
	require.NoError(t, db.Create(user).Error)

	category := &models.BlogCategory{Title: "Releases", Slug: "releases"}
	require.NoError(t, db.Create(category).Error)

	return user, category
}
