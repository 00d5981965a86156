package database

import (
	"context"
	"testing"

	"postovik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGetMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetSetting(context.Background(), models.KeySourceAPIKey)
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestSettingsUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	require.NoError(t, db.SetSetting(ctx, models.KeySourceFeedID, "111"))

	value, err := db.GetSetting(ctx, models.KeySourceFeedID)
	require.NoError(t, err)
	assert.Equal(t, "111", value)

	// Последняя запись выигрывает
	require.NoError(t, db.SetSetting(ctx, models.KeySourceFeedID, "222"))

	value, err = db.GetSetting(ctx, models.KeySourceFeedID)
	require.NoError(t, err)
	assert.Equal(t, "222", value)
}

func TestSettingsAll(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SetSetting(ctx, "b_key", "2"))
	require.NoError(t, db.SetSetting(ctx, "a_key", "1"))

	settings, err := db.AllSettings(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "a_key", settings[0].Key)
	assert.Equal(t, "b_key", settings[1].Key)
	assert.False(t, settings[0].UpdatedAt.IsZero())
}
