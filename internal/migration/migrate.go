package migration

import (
	"github.com/nmarofsky/DatingApp/internal/domain"
	"gorm.io/gorm"
)

// Run executes AutoMigrate for the messaging tables
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Message{},
		&domain.Group{},
		&domain.Connection{},
	)
}

// ClearConnections drops connection rows left behind by a previous process.
// Only safe when this process is the sole instance; with shared Redis
// fan-out the rows may belong to live peers.
func ClearConnections(db *gorm.DB) (int64, error) {
	res := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Connection{})
	return res.RowsAffected, res.Error
}

// SeedUsers inserts users when the table is empty, for local development
func SeedUsers(db *gorm.DB, users []domain.User) error {
	var count int64
	if err := db.Model(&domain.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 || len(users) == 0 {
		return nil
	}
	return db.Create(&users).Error
}

// DevUsers is the fixed set of accounts seeded for local development
func DevUsers() []domain.User {
	return []domain.User{
		{Username: "lisa", KnownAs: "Lisa", Gender: "female"},
		{Username: "karen", KnownAs: "Karen", Gender: "female"},
		{Username: "todd", KnownAs: "Todd", Gender: "male"},
		{Username: "bob", KnownAs: "Bob", Gender: "male"},
	}
}
