package repository

import "postovik/internal/domain"

// compositeStore собирает хранилище из независимых реестра и настроек.
// Нужен, когда реестр обернут в failover, а настройки ходят в sqlite напрямую.
type compositeStore struct {
	domain.Ledger
	domain.SettingsStore
}

func NewCompositeStore(ledger domain.Ledger, settings domain.SettingsStore) domain.Store {
	return compositeStore{Ledger: ledger, SettingsStore: settings}
}
