// Package worker drains the transaction export queue: it fetches each
// referenced transaction from SQLite, appends it to the spreadsheet and
// records the outcome on the row. A periodic reconciler re-exports
// anything still pending, so a lost AMQP message is never fatal.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/report"
	"tally/internal/storage"
)

// RowAppender pushes one transaction to the export destination.
type RowAppender interface {
	AppendTransaction(ctx context.Context, t core.Transaction) error
}

type SyncWorker struct {
	repo      *storage.Repository
	appender  RowAppender
	engine    *report.Engine
	batchSize int
}

func NewSyncWorker(repo *storage.Repository, appender RowAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		repo:      repo,
		appender:  appender,
		engine:    report.NewEngine(repo),
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports the transaction named by one AMQP message.
// Messages for rows that no longer exist are acknowledged quietly.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "processing sync message", "id", msg.ID)

	t, err := w.repo.Transaction(ctx, msg.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		slog.WarnContext(ctx, "transaction deleted before export, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	if err := w.export(ctx, t); err != nil {
		return err
	}

	w.checkBudget(ctx, t)
	return nil
}

// ProcessPending re-exports transactions still marked pending. This is
// the recovery path for lost messages and broker downtime.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.repo.PendingTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "processing pending transactions", "count", len(pending))

	for _, t := range pending {
		if err := w.export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "failed to export transaction", "id", t.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains a larger pending backlog once at boot to
// recover from worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.repo.PendingTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "no pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "found pending transactions on startup", "count", len(pending))

	synced, failed := 0, 0
	for _, t := range pending {
		if err := w.export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "failed to export transaction during startup",
				"id", t.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "startup sync completed",
		"total", len(pending), "synced", synced, "errors", failed)
	return nil
}

// Run consumes the queue and runs the reconciler on a timer until ctx
// is canceled.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "reconciliation pass failed", "error", err)
				}
			}
		}
	}()

	return client.ConsumeTransactionSync(ctx, func(msg *amqp.TransactionSyncMessage) error {
		return w.HandleSyncMessage(ctx, msg)
	})
}

func (w *SyncWorker) export(ctx context.Context, t core.Transaction) error {
	if err := w.appender.AppendTransaction(ctx, t); err != nil {
		if markErr := w.repo.MarkSyncError(ctx, t.ID, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append transaction: %w", err)
	}

	if err := w.repo.MarkSynced(ctx, t.ID); err != nil {
		// The export itself worked; the reconciler will retry the mark.
		slog.ErrorContext(ctx, "failed to mark as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "exported transaction",
		"id", t.ID,
		"amount_cents", t.Amount.Cents,
		"type", string(t.Type))
	return nil
}

// checkBudget logs a warning when an exported expense pushes the month
// over its overall budget.
func (w *SyncWorker) checkBudget(ctx context.Context, t core.Transaction) {
	if t.Type != core.Expense {
		return
	}
	p := core.Period{Month: int(t.Date.UTC().Month()), Year: t.Date.UTC().Year()}
	overview, err := w.engine.MonthlyOverview(ctx, t.UserID, p)
	if err != nil {
		slog.ErrorContext(ctx, "budget check failed", "id", t.ID, "error", err)
		return
	}
	if overview.Budget.Cents > 0 && overview.Spent.Cents > overview.Budget.Cents {
		slog.WarnContext(ctx, "monthly budget exceeded",
			"user_id", t.UserID,
			"month", p.Month,
			"year", p.Year,
			"budget_cents", overview.Budget.Cents,
			"spent_cents", overview.Spent.Cents)
	}
}
