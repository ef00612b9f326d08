package db_test

import (
	"context"
	"testing"

	"keja/internal/db"
	"keja/internal/dbtest"
	"keja/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateTopic(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()

	first, err := db.FindOrCreateTopic(ctx, conn, "Nairobi")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	// Same name resolves to the same row
	second, err := db.FindOrCreateTopic(ctx, conn, "  Nairobi ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, conn.Model(&domain.Topic{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	other, err := db.FindOrCreateTopic(ctx, conn, "Mombasa")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestFindOrCreateTopic_Blank(t *testing.T) {
	conn := dbtest.New(t)
	_, err := db.FindOrCreateTopic(context.Background(), conn, "   ")
	assert.ErrorIs(t, err, db.ErrEmptyTopic)
}

func TestContainsFold(t *testing.T) {
	conn := dbtest.New(t)
	for _, name := range []string{"Downtown Loft", "100% Sunny", "Uptown"} {
		require.NoError(t, conn.Create(&domain.Topic{Name: name}).Error)
	}

	var names []string
	require.NoError(t, conn.Model(&domain.Topic{}).
		Where(db.ContainsFold("name"), db.ContainsPattern("TOWN")).
		Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"Downtown Loft", "Uptown"}, names)

	// Wildcards in user input match literally
	names = nil
	require.NoError(t, conn.Model(&domain.Topic{}).
		Where(db.ContainsFold("name"), db.ContainsPattern("0%")).
		Pluck("name", &names).Error)
	assert.Equal(t, []string{"100% Sunny"}, names)

	// LOWER folds beyond ASCII
	require.NoError(t, conn.Create(&domain.Topic{Name: "Ärzte Über"}).Error)
	names = nil
	require.NoError(t, conn.Model(&domain.Topic{}).
		Where(db.ContainsFold("name"), db.ContainsPattern("ÄRZTE ü")).
		Pluck("name", &names).Error)
	assert.Equal(t, []string{"Ärzte Über"}, names)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%test city%", db.ContainsPattern("Test City"))
	assert.Equal(t, "%a!%b!_c!!%", db.ContainsPattern("a%b_c!"))
}
