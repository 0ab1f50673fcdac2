package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// CommitHook observes a successful mutation. Hooks run synchronously under
// the App lock, in registration order, and must not call back into the App.
// Hooks that talk to the network queue their work and return at once.
type CommitHook func(ctx context.Context, change Change, snap Snapshot)

// Loader reads the persisted snapshot at startup.
type Loader interface {
	Load(ctx context.Context) (Snapshot, error)
}

// TransactionInput is the raw text of the entry form.
type TransactionInput struct {
	Description string      `json:"description"`
	Amount      string      `json:"amount"`
	Type        core.TxType `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Note        string      `json:"note"`
}

// App serializes every mutation and view computation behind one mutex.
type App struct {
	mu     sync.Mutex
	state  State
	hooks  []CommitHook
	now    func() time.Time
	logger *log.Logger
}

type Option func(*App)

// WithClock replaces time.Now for ids, default dates and the default filter.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(a *App) { a.logger = l.WithComponent(log.ComponentApp) }
}

func WithHooks(hooks ...CommitHook) Option {
	return func(a *App) { a.hooks = append(a.hooks, hooks...) }
}

// New returns an App with empty stores and the default filter.
func New(opts ...Option) *App {
	a := &App{
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.state = State{
		Transactions: []core.Transaction{},
		Budgets:      core.Budgets{},
		Filter:       ledger.DefaultFilter(a.now()),
	}
	return a
}

// OnCommit registers h for every later commit.
func (a *App) OnCommit(h CommitHook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, h)
}

// Dispatch reduces the current state with action and, on success, runs the
// hooks. A failed action leaves the state untouched and runs no hook.
func (a *App) Dispatch(ctx context.Context, action Action) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dispatchLocked(ctx, action)
}

func (a *App) dispatchLocked(ctx context.Context, action Action) error {
	next, change, err := Reduce(a.state, action)
	if err != nil {
		return err
	}
	a.state = next
	if change == 0 {
		return nil
	}
	a.logger.DebugContext(ctx, "State committed", log.FieldChange, change.String())
	if len(a.hooks) == 0 {
		return nil
	}
	snap := a.state.Snapshot()
	for _, h := range a.hooks {
		h(ctx, change, snap)
	}
	return nil
}

// Load replaces the persisted part of the state with what loader returns.
// Hooks are not run.
func (a *App) Load(ctx context.Context, loader Loader) error {
	snap, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	next, _, err := Reduce(a.state, Replace{Data: snap})
	if err != nil {
		return err
	}
	a.state = next
	a.logger.InfoContext(ctx, "State loaded",
		log.FieldCount, len(next.Transactions),
		"budgets", len(next.Budgets),
		"dark_mode", next.DarkMode)
	return nil
}

// AddTransaction validates the form input, assigns a fresh id and prepends
// the transaction.
func (a *App) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.parseInput(in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = a.nextID()
	if err := a.dispatchLocked(ctx, AddTransaction{Tx: tx}); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// EditTransaction replaces the fields of transaction id with the form input.
// When the edit switches the type, a category outside the new type's list is
// replaced by that type's default.
func (a *App) EditTransaction(ctx context.Context, id int64, in TransactionInput) (core.Transaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.state.find(id)
	if i < 0 {
		return core.Transaction{}, ErrTransactionNotFound
	}
	typ := in.Type
	if typ == "" {
		typ = core.Expense
	}
	if typ.Valid() && typ != a.state.Transactions[i].Type {
		in.Category = core.NormalizeCategory(typ, strings.TrimSpace(in.Category))
	}
	tx, err := a.parseInput(in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id
	if err := a.dispatchLocked(ctx, EditTransaction{ID: id, Fields: tx}); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (a *App) DeleteTransaction(ctx context.Context, id int64, confirmed bool) error {
	return a.Dispatch(ctx, DeleteTransaction{ID: id, Confirmed: confirmed})
}

// SetBudget parses amountText and sets the ceiling for category.
func (a *App) SetBudget(ctx context.Context, category, amountText string) error {
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return err
	}
	return a.Dispatch(ctx, SetBudget{Category: strings.TrimSpace(category), Amount: amount})
}

func (a *App) DeleteBudget(ctx context.Context, category string, confirmed bool) error {
	return a.Dispatch(ctx, DeleteBudget{Category: category, Confirmed: confirmed})
}

func (a *App) SetFilter(ctx context.Context, f ledger.Filter) error {
	return a.Dispatch(ctx, SetFilter{Filter: f})
}

// ShiftFilter moves the selected month by months and the selected year by
// years, then returns the new filter.
func (a *App) ShiftFilter(ctx context.Context, months, years int) (ledger.Filter, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	f := a.state.Filter.ShiftMonth(months).ShiftYear(years)
	if err := a.dispatchLocked(ctx, SetFilter{Filter: f}); err != nil {
		return ledger.Filter{}, err
	}
	return f, nil
}

func (a *App) SetDarkMode(ctx context.Context, on bool) error {
	return a.Dispatch(ctx, SetDarkMode{On: on})
}

// Import replaces the stores present in data.
func (a *App) Import(ctx context.Context, data Snapshot) error {
	return a.Dispatch(ctx, Import{Data: data})
}

// State returns a deep copy of the current state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Clone()
}

// Snapshot returns a deep copy of the persisted part of the state.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Snapshot()
}

// Transaction looks up a single transaction by id.
func (a *App) Transaction(id int64) (core.Transaction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.state.find(id)
	if i < 0 {
		return core.Transaction{}, false
	}
	return a.state.Transactions[i], true
}

// View recomputes every derived aggregate from the current state.
func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return BuildView(a.state)
}

// parseInput turns form text into a transaction without an id. An empty type
// means expense and an empty date means today.
func (a *App) parseInput(in TransactionInput) (core.Transaction, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return core.Transaction{}, core.ErrEmptyDescription
	}
	if strings.TrimSpace(in.Amount) == "" {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	typ := in.Type
	if typ == "" {
		typ = core.Expense
	}
	if !typ.Valid() {
		return core.Transaction{}, core.ErrInvalidType
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return core.Transaction{}, core.ErrEmptyCategory
	}
	if !core.IsKnownCategory(typ, category) {
		return core.Transaction{}, core.ErrUnknownCategory
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = core.Today(a.now())
	}
	if err := core.ValidateDate(date); err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Description: desc,
		Amount:      amount,
		Type:        typ,
		Category:    category,
		Date:        date,
		Note:        strings.TrimSpace(in.Note),
	}, nil
}

// nextID uses the clock in Unix milliseconds and bumps past the largest id
// in the store on collision.
func (a *App) nextID() int64 {
	id := a.now().UnixMilli()
	if m := a.state.maxID(); id <= m {
		id = m + 1
	}
	return id
}
