// Package services orchestrates writes that touch more than one
// system. The transaction service persists first and treats the export
// queue as best effort, so the API never fails because the broker is
// down.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/ledger"
)

// SyncPublisher enqueues an export request for a transaction. A nil
// publisher disables the export pipeline.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id, userID int64) error
}

type TransactionService struct {
	store     ledger.Store
	publisher SyncPublisher
}

func NewTransactionService(store ledger.Store, publisher SyncPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// Create validates and persists a transaction, then queues it for
// export. A publish failure is logged and swallowed; the row is safe
// in the store and the reconciler will pick it up later.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, created.ID, created.UserID)
	return created, nil
}

// Update replaces a transaction and re-queues it for export.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, updated.ID, updated.UserID)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteTransaction(ctx, id)
}

func (s *TransactionService) publishSync(ctx context.Context, id, userID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, userID); err != nil {
		slog.ErrorContext(ctx, "failed to publish sync message",
			"id", id, "error", err)
	}
}
