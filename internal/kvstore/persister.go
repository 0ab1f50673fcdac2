package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"fintrack/internal/app"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Persister mirrors committed state into a Store. It loads the three keys at
// startup and, as a commit hook, rewrites only the keys a change touched.
type Persister struct {
	store  Store
	logger *log.Logger
}

func NewPersister(store Store, logger *log.Logger) *Persister {
	if logger == nil {
		logger = log.Discard()
	}
	return &Persister{store: store, logger: logger.WithComponent(log.ComponentPersist)}
}

// Load reads the persisted snapshot. Missing keys load as empty and
// malformed values are logged and skipped. Only store failures are returned.
func (p *Persister) Load(ctx context.Context) (app.Snapshot, error) {
	snap := app.Snapshot{
		Transactions: []core.Transaction{},
		Budgets:      core.Budgets{},
	}

	if raw, ok, err := p.store.Get(ctx, KeyTransactions); err != nil {
		return app.Snapshot{}, fmt.Errorf("load %s: %w", KeyTransactions, err)
	} else if ok {
		var txs []core.Transaction
		if err := json.Unmarshal([]byte(raw), &txs); err != nil {
			p.logger.WarnContext(ctx, "Ignoring malformed stored value", log.FieldKey, KeyTransactions, log.FieldError, err)
		} else if txs != nil {
			snap.Transactions = txs
		}
	}

	if raw, ok, err := p.store.Get(ctx, KeyBudgets); err != nil {
		return app.Snapshot{}, fmt.Errorf("load %s: %w", KeyBudgets, err)
	} else if ok {
		var budgets core.Budgets
		if err := json.Unmarshal([]byte(raw), &budgets); err != nil {
			p.logger.WarnContext(ctx, "Ignoring malformed stored value", log.FieldKey, KeyBudgets, log.FieldError, err)
		} else if budgets != nil {
			snap.Budgets = budgets
		}
	}

	if raw, ok, err := p.store.Get(ctx, KeyDarkMode); err != nil {
		return app.Snapshot{}, fmt.Errorf("load %s: %w", KeyDarkMode, err)
	} else if ok {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			p.logger.WarnContext(ctx, "Ignoring malformed stored value", log.FieldKey, KeyDarkMode, log.FieldError, err)
		}
		snap.DarkMode = on
	}

	return snap, nil
}

// Hook writes the keys touched by change. Failures are logged, never
// returned.
func (p *Persister) Hook(ctx context.Context, change app.Change, snap app.Snapshot) {
	if change.Has(app.ChangeTransactions) {
		p.write(ctx, KeyTransactions, snap.Transactions)
	}
	if change.Has(app.ChangeBudgets) {
		p.write(ctx, KeyBudgets, snap.Budgets)
	}
	if change.Has(app.ChangeTheme) {
		if err := p.store.Set(ctx, KeyDarkMode, strconv.FormatBool(snap.DarkMode)); err != nil {
			p.logger.WarnContext(ctx, "Failed to persist key", log.FieldKey, KeyDarkMode, log.FieldError, err)
		}
	}
}

func (p *Persister) write(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to encode key", log.FieldKey, key, log.FieldError, err)
		return
	}
	if err := p.store.Set(ctx, key, string(b)); err != nil {
		p.logger.WarnContext(ctx, "Failed to persist key", log.FieldKey, key, log.FieldError, err)
		return
	}
	p.logger.DebugContext(ctx, "Key persisted", log.FieldKey, key, "bytes", len(b))
}
