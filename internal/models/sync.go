package models

import "time"

// Cycle states, reported in logs and in SyncResult.State.
const (
	CycleStateCompleted = "completed"
	CycleStateFailed    = "failed"
	CycleStateSkipped   = "skipped"
)

// ItemError описывает ошибку обработки одного поста внутри цикла.
type ItemError struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// SyncResult — агрегированный результат одного цикла синхронизации.
type SyncResult struct {
	CycleID        string      `json:"cycle_id"`
	State          string      `json:"state"`
	ItemsExamined  int         `json:"items_examined"`
	ItemsDelivered int         `json:"items_delivered"`
	ItemsSkipped   int         `json:"items_skipped"`
	Errors         []ItemError `json:"errors,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
}

// AddError записывает ошибку по конкретному посту.
func (r *SyncResult) AddError(itemID, reason string) {
	r.Errors = append(r.Errors, ItemError{ItemID: itemID, Reason: reason})
}

// Duration returns elapsed wall time of the cycle.
func (r *SyncResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Status — ответ на запрос состояния сервиса.
type Status struct {
	TotalSynced int64        `json:"total_synced"`
	RecentPosts []SyncedPost `json:"recent_posts"`
	Configured  bool         `json:"configured"`
	Durable     bool         `json:"durable"`
}
