package domain

import "time"

// User is the read model of a member owned by the identity service.
// The messaging core only looks users up by name.
type User struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username   string    `gorm:"column:username;type:varchar(50);uniqueIndex" json:"username"`
	KnownAs    string    `gorm:"column:known_as;type:varchar(100)" json:"knownAs"`
	Gender     string    `gorm:"column:gender;type:varchar(20)" json:"gender"`
	PhotoURL   string    `gorm:"column:photo_url;type:varchar(500)" json:"photoUrl,omitempty"`
	Created    time.Time `gorm:"column:created;autoCreateTime" json:"created"`
	LastActive time.Time `gorm:"column:last_active" json:"lastActive"`
}

func (User) TableName() string {
	return "users"
}
