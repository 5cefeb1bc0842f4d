package repository

import (
	"testing"
	"time"

	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupRepoTestDB opens a private in-memory database. One connection keeps
// every statement on the same memory database.
func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Message{}, &domain.Group{}, &domain.Connection{}))
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, names ...string) map[string]*domain.User {
	t.Helper()
	out := make(map[string]*domain.User, len(names))
	for _, n := range names {
		u := &domain.User{Username: n, KnownAs: n, LastActive: time.Now()}
		require.NoError(t, db.Create(u).Error)
		out[n] = u
	}
	return out
}
