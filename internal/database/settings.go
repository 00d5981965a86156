package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postovik/internal/models"
)

// GetSetting возвращает сохраненное значение настройки.
// Если ключ не сохранен — ErrSettingNotFound, дефолт подставляет вызывающий.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting сохраняет настройку, последняя запись выигрывает.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// AllSettings возвращает все сохраненные настройки.
func (db *DB) AllSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return settings, nil
}
