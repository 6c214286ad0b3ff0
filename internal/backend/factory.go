// Package backend wires the configured ledger implementation.
package backend

import (
	"fmt"

	"tally/internal/config"
	"tally/internal/ledger"
	"tally/internal/ledger/memory"
	"tally/internal/storage"
)

// Open returns the ledger store selected by LEDGER_BACKEND. The caller
// owns the returned store and must Close it.
func Open(cfg *config.Config) (ledger.Store, error) {
	switch cfg.LedgerBackend {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		repo, err := storage.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}
}
