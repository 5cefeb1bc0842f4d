package domain

import "strings"

// Group records which connections are subscribed to a two-party conversation.
// Groups are created on first use and never deleted.
type Group struct {
	Name        string       `gorm:"column:name;primaryKey;type:varchar(110)" json:"name"`
	Connections []Connection `gorm:"foreignKey:GroupName;references:Name" json:"connections"`
}

func (Group) TableName() string {
	return "message_groups"
}

// Connection is one live realtime session subscribed to a Group
type Connection struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ConnectionID string `gorm:"column:connection_id;uniqueIndex;type:varchar(64)" json:"connectionId"`
	Username     string `gorm:"column:username;type:varchar(50);index" json:"username"`
	GroupName    string `gorm:"column:group_name;type:varchar(110);index" json:"-"`
}

func (Connection) TableName() string {
	return "connections"
}

// HasUser reports whether any connection in the group belongs to username
func (g *Group) HasUser(username string) bool {
	for _, c := range g.Connections {
		if strings.EqualFold(c.Username, username) {
			return true
		}
	}
	return false
}

// GroupName derives the conversation key shared by both participants:
// the two usernames joined in ordinal order.
func GroupName(caller, other string) string {
	if caller < other {
		return caller + "-" + other
	}
	return other + "-" + caller
}
