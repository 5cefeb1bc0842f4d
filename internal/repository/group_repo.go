package repository

import (
	"context"
	"errors"

	"github.com/nmarofsky/DatingApp/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository conversation group data access
type GroupRepository interface {
	GetGroup(ctx context.Context, name string) (*domain.Group, error)
	GetGroupForConnection(ctx context.Context, connectionID string) (*domain.Group, error)
	AddConnection(ctx context.Context, groupName string, conn domain.Connection) (*domain.Group, error)
	RemoveConnection(ctx context.Context, connectionID string) (*domain.Group, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// GetGroup loads a group with its connections. Returns nil, nil when absent.
func (r *groupRepository) GetGroup(ctx context.Context, name string) (*domain.Group, error) {
	return findGroup(r.db.WithContext(ctx), name)
}

// GetGroupForConnection finds the group holding connectionID. Returns nil, nil when absent.
func (r *groupRepository) GetGroupForConnection(ctx context.Context, connectionID string) (*domain.Group, error) {
	db := r.db.WithContext(ctx)
	name, err := groupNameForConnection(db, connectionID)
	if err != nil || name == "" {
		return nil, err
	}
	return findGroup(db, name)
}

// AddConnection creates the group if needed and appends conn to it in one
// transaction. Connections are rows of their own, so two participants
// joining at once both land.
func (r *groupRepository) AddConnection(ctx context.Context, groupName string, conn domain.Connection) (*domain.Group, error) {
	var group *domain.Group
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.Group{Name: groupName}).Error; err != nil {
			return err
		}

		conn.GroupName = groupName
		if err := tx.Create(&conn).Error; err != nil {
			return err
		}

		var err error
		group, err = findGroup(tx, groupName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// RemoveConnection deletes the connection and returns the group it belonged
// to, reloaded. Removing an unknown connection is a no-op returning nil, nil.
func (r *groupRepository) RemoveConnection(ctx context.Context, connectionID string) (*domain.Group, error) {
	var group *domain.Group
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := groupNameForConnection(tx, connectionID)
		if err != nil || name == "" {
			return err
		}

		if err := tx.Where("connection_id = ?", connectionID).
			Delete(&domain.Connection{}).Error; err != nil {
			return err
		}

		group, err = findGroup(tx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func findGroup(db *gorm.DB, name string) (*domain.Group, error) {
	var group domain.Group
	err := db.Preload("Connections", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("name = ?", name).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if group.Connections == nil {
		group.Connections = []domain.Connection{}
	}
	return &group, nil
}

func groupNameForConnection(db *gorm.DB, connectionID string) (string, error) {
	var conn domain.Connection
	err := db.Where("connection_id = ?", connectionID).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return conn.GroupName, nil
}
