package calculator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/weighbill/internal/models"
	"github.com/mmynk/weighbill/internal/storage"
)

var (
	// ErrNothingToSave is returned by SaveBill when the working bill is empty.
	ErrNothingToSave = errors.New("nothing to save")

	// ErrNothingToCommit is returned by CommitMini when the mini value is zero.
	ErrNothingToCommit = errors.New("nothing to commit")
)

// LineInput is a line to append to the working bill.
type LineInput struct {
	ItemName string
	Grams    *float64
	Price    *float64
}

// Hooks observe accumulator events. Each hook is optional and runs after the
// state lock is released.
type Hooks struct {
	LineCommitted func(line models.LineItem)
	BillSaved     func(receipt models.Receipt)
	PersistFailed func(key string, err error)
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithClock replaces the clock used to timestamp receipts.
func WithClock(now func() time.Time) Option {
	return func(a *Accumulator) {
		a.now = now
	}
}

// WithIDGenerator replaces the receipt ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(a *Accumulator) {
		a.newID = newID
	}
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Accumulator) {
		a.logger = logger
	}
}

// WithHooks registers event hooks.
func WithHooks(hooks Hooks) Option {
	return func(a *Accumulator) {
		a.hooks = hooks
	}
}

// Accumulator owns the working bill, the mini value and the saved-bill
// history. It is safe for concurrent use; mutations are applied one at a time
// in the order they acquire the lock.
type Accumulator struct {
	store  storage.KV
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
	hooks  Hooks

	mu      sync.Mutex
	lines   []models.LineItem
	total   int64
	mini    int64
	version uint64
	failed  []persistFailure

	subs registry
}

type persistFailure struct {
	key string
	err error
}

// NewAccumulator creates an empty accumulator persisting to store.
func NewAccumulator(store storage.KV, opts ...Option) *Accumulator {
	a := &Accumulator{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
		lines:  []models.LineItem{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Mini returns the current mini value.
func (a *Accumulator) Mini() int64 {
	a.mu.Lock()
	defer a.unlock()
	return a.mini
}

// SetMini overwrites the mini value with the rounded amount.
func (a *Accumulator) SetMini(amount float64) int64 {
	return a.updateMini(func(int64) int64 {
		return RoundToUnit(clampAmount(amount))
	})
}

// AddToMini adds delta to the mini value and rounds the result.
func (a *Accumulator) AddToMini(delta float64) int64 {
	return a.updateMini(func(mini int64) int64 {
		return RoundToUnit(clampAmount(float64(mini) + delta))
	})
}

// MultiplyMini overwrites the mini value with base times multiplier, rounded.
func (a *Accumulator) MultiplyMini(base, multiplier float64) int64 {
	return a.updateMini(func(int64) int64 {
		return RoundToUnit(clampAmount(clampAmount(base) * clampAmount(multiplier)))
	})
}

// ClearMini resets the mini value to zero.
func (a *Accumulator) ClearMini() int64 {
	return a.updateMini(func(int64) int64 { return 0 })
}

// AddPreset adds the rounded price of grams at pricePerKg to the mini value.
func (a *Accumulator) AddPreset(pricePerKg, grams float64) int64 {
	return a.AddToMini(float64(RoundToUnit(GramsToPrice(pricePerKg, grams))))
}

func (a *Accumulator) updateMini(fn func(int64) int64) int64 {
	a.mu.Lock()
	a.mini = fn(a.mini)
	version, mini := a.bumpLocked()
	a.unlock()

	a.subs.publish(version, mini)
	return mini
}

// bumpLocked records a mini change and returns the version to publish.
func (a *Accumulator) bumpLocked() (uint64, int64) {
	a.version++
	return a.version, a.mini
}

// SubscribeMini calls fn with the current mini value and again after every
// change. The returned function removes the subscription and may be called
// more than once. A panicking fn is recovered and does not affect other
// subscribers.
func (a *Accumulator) SubscribeMini(fn func(mini int64)) (unsubscribe func()) {
	a.mu.Lock()
	sub, unsubscribe := a.subs.add(fn)
	version, mini := a.version, a.mini
	a.unlock()

	sub.deliver(version, mini)
	return unsubscribe
}

// Subscribers returns the number of live mini subscriptions.
func (a *Accumulator) Subscribers() int {
	return a.subs.count()
}

// CommitLine appends a line priced at RoundToUnit(price). The mini value is
// left untouched.
func (a *Accumulator) CommitLine(ctx context.Context, in LineInput) models.LineItem {
	a.mu.Lock()
	line := a.appendLocked(ctx, in)
	a.unlock()

	a.lineCommitted(line)
	return line
}

// CommitMini appends a line priced at the current mini value and resets the
// mini. It returns ErrNothingToCommit when the mini value is zero.
func (a *Accumulator) CommitMini(ctx context.Context, itemName string, grams *float64) (models.LineItem, error) {
	a.mu.Lock()
	if a.mini <= 0 {
		a.unlock()
		return models.LineItem{}, ErrNothingToCommit
	}
	price := float64(a.mini)
	line := a.appendLocked(ctx, LineInput{ItemName: itemName, Grams: grams, Price: &price})
	a.mini = 0
	version, mini := a.bumpLocked()
	a.unlock()

	a.subs.publish(version, mini)
	a.lineCommitted(line)
	return line, nil
}

func (a *Accumulator) appendLocked(ctx context.Context, in LineInput) models.LineItem {
	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		name = models.DefaultItemName
	}
	line := models.LineItem{
		ItemName: name,
		Grams:    finiteOrNil(in.Grams),
		Price:    finiteOrNil(in.Price),
	}
	if line.Price != nil {
		line.LineTotal = RoundToUnit(*line.Price)
	}

	a.lines = append(a.lines, line)
	a.recomputeLocked()
	a.persistBillLocked(ctx)
	return line.Clone()
}

// RemoveLine deletes the line at index. It reports false and changes nothing
// when index is out of range.
func (a *Accumulator) RemoveLine(ctx context.Context, index int) bool {
	a.mu.Lock()
	defer a.unlock()

	if index < 0 || index >= len(a.lines) {
		return false
	}
	a.lines = append(a.lines[:index:index], a.lines[index+1:]...)
	a.recomputeLocked()
	a.persistBillLocked(ctx)
	return true
}

// ClearAll empties the working bill.
func (a *Accumulator) ClearAll(ctx context.Context) {
	a.mu.Lock()
	defer a.unlock()

	a.lines = []models.LineItem{}
	a.recomputeLocked()
	a.persistBillLocked(ctx)
}

// SaveBill moves the working bill into the history as a new receipt and
// returns it. It returns ErrNothingToSave, changing nothing, when the bill is
// empty. A history that cannot be read also leaves everything unchanged; a
// corrupt one is replaced.
func (a *Accumulator) SaveBill(ctx context.Context) (*models.Receipt, error) {
	a.mu.Lock()
	if len(a.lines) == 0 {
		a.unlock()
		return nil, ErrNothingToSave
	}

	receipt := models.Receipt{
		ID:    a.newID(),
		TS:    a.now().UnixMilli(),
		Lines: models.CloneLines(a.lines),
		Total: a.total,
	}

	history, err := a.readHistoryLocked(ctx)
	if err != nil {
		a.unlock()
		return nil, fmt.Errorf("failed to save bill: %w", err)
	}
	history = append([]models.Receipt{receipt}, history...)
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	a.persistLocked(ctx, storage.KeyHistory, history)

	a.lines = []models.LineItem{}
	a.recomputeLocked()
	a.persistBillLocked(ctx)
	a.unlock()

	if a.hooks.BillSaved != nil {
		a.hooks.BillSaved(receipt.Clone())
	}
	saved := receipt.Clone()
	return &saved, nil
}

// History returns the saved receipts, most recent first. A missing history is
// empty; a corrupt one is logged and treated as empty.
func (a *Accumulator) History(ctx context.Context) ([]models.Receipt, error) {
	a.mu.Lock()
	defer a.unlock()

	history, err := a.readHistoryLocked(ctx)
	if err != nil {
		return nil, err
	}
	return history, nil
}

// UpdateHistory applies fn to the saved receipts and persists the result.
// Nothing is written when fn returns an error.
func (a *Accumulator) UpdateHistory(ctx context.Context, fn func([]models.Receipt) ([]models.Receipt, error)) error {
	a.mu.Lock()
	defer a.unlock()

	history, err := a.readHistoryLocked(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(history)
	if err != nil {
		return err
	}
	if len(updated) > HistoryLimit {
		updated = updated[:HistoryLimit]
	}
	a.persistLocked(ctx, storage.KeyHistory, updated)
	return nil
}

// Restore loads the working bill persisted by a previous process. The total
// is recomputed from the lines. A corrupt snapshot leaves the bill empty.
func (a *Accumulator) Restore(ctx context.Context) error {
	var bill models.Bill
	ok, err := storage.GetJSON(ctx, a.store, storage.KeyBill, &bill)
	if err != nil && !ok {
		return fmt.Errorf("failed to load working bill: %w", err)
	}
	if err != nil {
		a.logger.Warn("Discarding corrupt working bill", "error", err)
		bill = models.Bill{}
	}

	lines := models.CloneLines(bill.Lines)
	for i := range lines {
		if strings.TrimSpace(lines[i].ItemName) == "" {
			lines[i].ItemName = models.DefaultItemName
		}
		if lines[i].LineTotal < 0 {
			lines[i].LineTotal = 0
		}
	}

	a.mu.Lock()
	a.lines = lines
	a.recomputeLocked()
	a.mini = 0
	version, mini := a.bumpLocked()
	a.unlock()

	a.subs.publish(version, mini)
	return nil
}

// Snapshot returns a copy of the working bill.
func (a *Accumulator) Snapshot() models.Bill {
	a.mu.Lock()
	defer a.unlock()
	return models.Bill{Lines: models.CloneLines(a.lines), Total: a.total}
}

func (a *Accumulator) recomputeLocked() {
	a.total = models.SumLines(a.lines)
}

func (a *Accumulator) readHistoryLocked(ctx context.Context) ([]models.Receipt, error) {
	var history []models.Receipt
	ok, err := storage.GetJSON(ctx, a.store, storage.KeyHistory, &history)
	if err != nil && !ok {
		return nil, fmt.Errorf("failed to load bill history: %w", err)
	}
	if err != nil {
		a.logger.Warn("Discarding corrupt bill history", "error", err)
		return []models.Receipt{}, nil
	}
	if history == nil {
		history = []models.Receipt{}
	}
	return history, nil
}

func (a *Accumulator) persistBillLocked(ctx context.Context) {
	a.persistLocked(ctx, storage.KeyBill, models.Bill{
		Lines: models.CloneLines(a.lines),
		Total: a.total,
	})
}

// persistLocked writes v under key. Failures are logged and queued for the
// PersistFailed hook, never returned; the in-memory state stays authoritative.
func (a *Accumulator) persistLocked(ctx context.Context, key string, v any) {
	if err := storage.SetJSON(ctx, a.store, key, v); err != nil {
		a.logger.Warn("Failed to persist", "key", key, "error", err)
		a.failed = append(a.failed, persistFailure{key: key, err: err})
	}
}

// unlock releases the state lock, then reports persist failures recorded
// while it was held.
func (a *Accumulator) unlock() {
	failed := a.failed
	a.failed = nil
	a.mu.Unlock()

	if a.hooks.PersistFailed == nil {
		return
	}
	for _, f := range failed {
		a.hooks.PersistFailed(f.key, f.err)
	}
}

func (a *Accumulator) lineCommitted(line models.LineItem) {
	if a.hooks.LineCommitted != nil {
		a.hooks.LineCommitted(line)
	}
}

func finiteOrNil(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := clampAmount(*v)
	return &f
}
