package db

import (
	"context"
	"errors"
	"strings"

	"keja/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrEmptyTopic is returned when a room references a blank topic name
var ErrEmptyTopic = errors.New("topic name is required")

// FindOrCreateTopic returns the topic called name, inserting it first when it
// does not exist. The unique index on name makes concurrent callers converge
// on the same row: a losing insert is ignored and the winner is read back.
func FindOrCreateTopic(ctx context.Context, conn *gorm.DB, name string) (*domain.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyTopic
	}
	tx := conn.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&domain.Topic{Name: name}).Error; err != nil {
		return nil, err
	}
	// Read back whichever insert won
	var topic domain.Topic
	if err := tx.Where("name = ?", name).First(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

// ContainsFold builds a case-insensitive substring condition on column that
// behaves the same on MySQL, Postgres and SQLite (whose LOWER is replaced by a
// Unicode-aware one in Open). Pair it with ContainsPattern.
func ContainsFold(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '!'"
}

// ContainsPattern is the LIKE argument matching ContainsFold
func ContainsPattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
