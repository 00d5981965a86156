package database

import (
	"context"
	"fmt"
	"time"

	"postovik/internal/models"
)

// HasSynced проверяет, доставлялся ли пост ранее.
func (db *DB) HasSynced(ctx context.Context, postID string) (bool, error) {
	var count int
	err := db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM synced_posts WHERE post_id = ?`, postID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check synced post: %w", err)
	}
	return count > 0, nil
}

// MarkSynced записывает пост в реестр. Повторная запись того же post_id
// схлопывается в no-op: INSERT OR IGNORE, никакой ошибки уникальности наружу.
func (db *DB) MarkSynced(ctx context.Context, post models.SyncedPost) error {
	if post.SyncedAt.IsZero() {
		post.SyncedAt = time.Now().UTC()
	}

	_, err := db.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO synced_posts (post_id, title, url, synced_at) VALUES (?, ?, ?, ?)`,
		post.PostID, post.Title, post.URL, post.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to mark post synced: %w", err)
	}
	return nil
}

// RecentSynced возвращает последние доставленные посты, свежие первыми.
func (db *DB) RecentSynced(ctx context.Context, limit int) ([]models.SyncedPost, error) {
	if limit <= 0 {
		limit = models.DefaultRecentLimit
	}

	rows, err := db.db.QueryContext(ctx,
		`SELECT post_id, title, url, synced_at FROM synced_posts ORDER BY synced_at DESC, post_id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent synced posts: %w", err)
	}
	defer rows.Close()

	var posts []models.SyncedPost
	for rows.Next() {
		var p models.SyncedPost
		if err := rows.Scan(&p.PostID, &p.Title, &p.URL, &p.SyncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan synced post: %w", err)
		}
		posts = append(posts, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// CountSynced возвращает общее число записей в реестре.
func (db *DB) CountSynced(ctx context.Context) (int64, error) {
	var count int64
	err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synced_posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count synced posts: %w", err)
	}
	return count, nil
}
