// Package session owns the live state of one split: the receipt being split,
// its assignment store and the guard around the in-flight receipt analysis.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mmynk/splitty/internal/assignment"
	"github.com/mmynk/splitty/internal/calculator"
	"github.com/mmynk/splitty/internal/metrics"
	"github.com/mmynk/splitty/internal/models"
	"github.com/mmynk/splitty/internal/recognizer"
)

var (
	// ErrBusy is returned when an analysis is started while another one for
	// the same session is still in flight.
	ErrBusy = errors.New("receipt analysis already in progress")

	// ErrStaleResponse is returned when an analysis finishes after the session
	// was reset or a newer receipt was loaded. The response is discarded.
	ErrStaleResponse = errors.New("analysis result is stale and was discarded")

	ErrNoReceipt = errors.New("session has no receipt")
)

// Session is a single split in progress. It is safe for concurrent use.
type Session struct {
	ID      string
	OwnerID string

	mu      sync.Mutex
	receipt *models.Receipt
	store   *assignment.Store
	billID  string

	// generation is bumped by every receipt change and by Reset. An analysis
	// only applies its result if the generation it started under is current.
	generation uint64

	analyzing *semaphore.Weighted
	running   *analysis
	lastUsed  atomic.Int64
}

// analysis is the recognizer call currently holding the analyzing slot.
type analysis struct {
	cancel  context.CancelFunc
	release func()
}

func newSession(id, ownerID string) *Session {
	s := &Session{
		ID:        id,
		OwnerID:   ownerID,
		store:     assignment.NewStore(nil),
		analyzing: semaphore.NewWeighted(1),
	}
	s.touch()
	return s
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// LastUsed reports when the session was last accessed.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Token returns the current request token.
func (s *Session) Token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// BillID is the saved bill this session was resumed from or last saved to.
func (s *Session) BillID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.billID
}

// SetBillID records the bill the session was saved as.
func (s *Session) SetBillID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billID = id
}

// Analyze sends image to rec and, if the session has not moved on in the
// meantime, loads the recognized receipt. The roster is kept; assignments
// are cleared because they referred to the previous receipt's items.
//
// Only one analysis may run at a time; a concurrent call fails with ErrBusy.
func (s *Session) Analyze(ctx context.Context, rec recognizer.Recognizer, token string, image []byte) (*calculator.Result, error) {
	if !s.analyzing.TryAcquire(1) {
		return nil, ErrBusy
	}
	var once sync.Once
	release := func() { once.Do(func() { s.analyzing.Release(1) }) }
	defer release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	run := &analysis{cancel: cancel, release: release}

	s.mu.Lock()
	s.generation++
	started := s.generation
	s.running = run
	s.mu.Unlock()

	receipt, err := rec.Analyze(ctx, token, image)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.running == run {
		s.running = nil
	}

	if s.generation != started {
		slog.Info("Discarding stale analysis",
			"session_id", s.ID,
			"started", started,
			"current", s.generation,
		)
		return nil, ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}

	s.loadLocked(receipt, s.store.People())
	return s.computeLocked()
}

// discardAnalysisLocked cancels the in-flight analysis and frees its slot so
// a new upload is accepted right away.
func (s *Session) discardAnalysisLocked() {
	if s.running == nil {
		return
	}
	s.running.cancel()
	s.running.release()
	s.running = nil
}

// LoadReceipt replaces the receipt, keeping the roster.
func (s *Session) LoadReceipt(receipt *models.Receipt) (*calculator.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.generation++
	s.discardAnalysisLocked()
	s.loadLocked(receipt, s.store.People())
	return s.computeLocked()
}

func (s *Session) loadLocked(receipt *models.Receipt, people []string) {
	store := assignment.NewStore(receipt.LineItems())
	for _, name := range people {
		// Names already passed validation once.
		_ = store.AddPerson(name)
	}
	s.receipt = receipt
	s.store = store
	s.billID = ""
}

// Restore loads a saved bill into the session.
func (s *Session) Restore(bill *models.SavedBill) (*calculator.Result, error) {
	receipt, err := models.NewReceipt(bill.Receipt)
	if err != nil {
		return nil, err
	}

	// The live items come from the split state, which may have diverged
	// from the receipt through edits.
	store, err := assignment.Restore(bill.SplitState)
	if err != nil {
		return nil, fmt.Errorf("failed to restore split state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.generation++
	s.discardAnalysisLocked()
	s.receipt = receipt
	s.store = store
	s.billID = bill.ID
	return s.computeLocked()
}

// Reset discards the receipt, the roster and any in-flight analysis.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.generation++
	s.discardAnalysisLocked()
	s.receipt = nil
	s.store = assignment.NewStore(nil)
	s.billID = ""
}

// Split recomputes the current split.
func (s *Session) Split() (*calculator.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.computeLocked()
}

// Snapshot returns the receipt and split state for persistence.
func (s *Session) Snapshot() (models.Receipt, models.SplitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.receipt == nil {
		return models.Receipt{}, models.SplitState{}, ErrNoReceipt
	}
	receipt := *s.receipt
	receipt.Items = s.receipt.LineItems()
	return receipt, s.store.State(), nil
}

// People returns the roster.
func (s *Session) People() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.People()
}

// AddPerson adds name to the roster. People may be added before a receipt
// is loaded, in which case the returned result is nil.
func (s *Session) AddPerson(name string) (*calculator.Result, error) {
	return s.mutate(false, func(st *assignment.Store) error {
		return st.AddPerson(name)
	})
}

// RemovePerson removes name from the roster and from every item.
func (s *Session) RemovePerson(name string) (*calculator.Result, error) {
	return s.mutate(false, func(st *assignment.Store) error {
		st.RemovePerson(name)
		return nil
	})
}

func (s *Session) AssignPerson(itemKey, name string) (*calculator.Result, error) {
	return s.mutate(true, func(st *assignment.Store) error {
		return st.AssignPerson(itemKey, name)
	})
}

func (s *Session) UnassignPerson(itemKey, name string) (*calculator.Result, error) {
	return s.mutate(true, func(st *assignment.Store) error {
		return st.UnassignPerson(itemKey, name)
	})
}

// AddItem appends an item and returns it with its assigned key.
func (s *Session) AddItem(item models.LineItem) (models.LineItem, *calculator.Result, error) {
	var added models.LineItem
	result, err := s.mutate(true, func(st *assignment.Store) error {
		var err error
		added, err = st.AddItem(item)
		return err
	})
	return added, result, err
}

func (s *Session) EditItem(itemKey string, patch assignment.ItemPatch) (models.LineItem, *calculator.Result, error) {
	var edited models.LineItem
	result, err := s.mutate(true, func(st *assignment.Store) error {
		var err error
		edited, err = st.EditItem(itemKey, patch)
		return err
	})
	return edited, result, err
}

func (s *Session) DeleteItem(itemKey string) (*calculator.Result, error) {
	return s.mutate(true, func(st *assignment.Store) error {
		return st.DeleteItem(itemKey)
	})
}

// SettleUp computes the split and the transfers that repay payer.
func (s *Session) SettleUp(payer string) (*calculator.Result, []calculator.Transfer, error) {
	result, err := s.Split()
	if err != nil {
		return nil, nil, err
	}
	transfers, err := calculator.SettleUp(result, payer)
	if err != nil {
		return nil, nil, err
	}
	return result, transfers, nil
}

// mutate applies fn to the store and recomputes. Input errors leave the
// store unchanged.
func (s *Session) mutate(needsReceipt bool, fn func(*assignment.Store) error) (*calculator.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if needsReceipt && s.receipt == nil {
		return nil, ErrNoReceipt
	}
	if err := fn(s.store); err != nil {
		return nil, err
	}
	if s.receipt == nil {
		return nil, nil
	}
	return s.computeLocked()
}

func (s *Session) computeLocked() (*calculator.Result, error) {
	if s.receipt == nil {
		return nil, ErrNoReceipt
	}

	result, err := calculator.ComputeSplit(s.receipt, s.store)
	if err != nil {
		var recErr *calculator.ReconciliationError
		if errors.As(err, &recErr) {
			metrics.ReconciliationFailed()
			slog.Error("Split did not reconcile",
				"session_id", s.ID,
				"check", recErr.Check,
				"expected", recErr.Expected,
				"actual", recErr.Actual,
			)
		}
		return nil, err
	}

	codes := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		codes[i] = string(w.Code)
	}
	metrics.SplitComputed(codes)
	return result, nil
}
