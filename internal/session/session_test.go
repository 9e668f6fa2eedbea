package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitty/internal/assignment"
	"github.com/mmynk/splitty/internal/calculator"
	"github.com/mmynk/splitty/internal/models"
	"github.com/mmynk/splitty/internal/recognizer"
)

func dinerReceipt() models.Receipt {
	return models.Receipt{
		Establishment: "Diner",
		Currency:      "$",
		Items: []models.LineItem{
			{Key: "burger", Name: "Burger", Quantity: 1, PricePerUnit: 10, TotalPrice: 10},
			{Key: "fries", Name: "Fries", Quantity: 1, PricePerUnit: 5, TotalPrice: 5},
		},
		Tax: models.Present(1),
		Tip: models.Present(2),
	}
}

// gatedRecognizer blocks every Analyze call until release is closed.
type gatedRecognizer struct {
	started chan struct{}
	release chan struct{}
	receipt models.Receipt
}

func newGatedRecognizer(r models.Receipt) *gatedRecognizer {
	return &gatedRecognizer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		receipt: r,
	}
}

func (g *gatedRecognizer) Analyze(ctx context.Context, token string, image []byte) (*models.Receipt, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return models.NewReceipt(g.receipt)
}

func loaded(t *testing.T) *Session {
	t.Helper()
	s := newSession("s1", "owner")
	r, err := models.NewReceipt(dinerReceipt())
	require.NoError(t, err)
	_, err = s.LoadReceipt(r)
	require.NoError(t, err)
	return s
}

func TestSession_BurgerAndFries(t *testing.T) {
	s := loaded(t)

	_, err := s.AddPerson("Alice")
	require.NoError(t, err)
	_, err = s.AddPerson("Bob")
	require.NoError(t, err)
	_, err = s.AssignPerson("burger", "Alice")
	require.NoError(t, err)
	result, err := s.AssignPerson("fries", "Bob")
	require.NoError(t, err)

	alice, _ := result.Person("Alice")
	bob, _ := result.Person("Bob")
	assert.InDelta(t, 11.5, alice.Total, 1e-9)
	assert.InDelta(t, 6.5, bob.Total, 1e-9)
	assert.InDelta(t, 18.0, result.GrandTotal, 1e-9)
	assert.Zero(t, result.UnassignedAmount)
}

func TestSession_PeopleBeforeReceipt(t *testing.T) {
	s := newSession("s1", "owner")

	result, err := s.AddPerson("Alice")
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = s.AssignPerson("burger", "Alice")
	assert.ErrorIs(t, err, ErrNoReceipt)

	_, err = s.Split()
	assert.ErrorIs(t, err, ErrNoReceipt)

	r, err := models.NewReceipt(dinerReceipt())
	require.NoError(t, err)
	result, err = s.LoadReceipt(r)
	require.NoError(t, err)
	require.Len(t, result.People, 1)
	assert.Equal(t, "Alice", result.People[0].Name)
}

func TestSession_MutationsRecompute(t *testing.T) {
	s := loaded(t)
	_, err := s.AddPerson("Alice")
	require.NoError(t, err)
	_, err = s.AssignPerson("fries", "Alice")
	require.NoError(t, err)

	qty := 3
	edited, result, err := s.EditItem("fries", assignment.ItemPatch{Quantity: &qty})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, edited.TotalPrice, 1e-9)
	assert.InDelta(t, 25.0, result.Subtotal, 1e-9)

	added, result, err := s.AddItem(models.LineItem{Name: "Pie", Quantity: 1, PricePerUnit: 4})
	require.NoError(t, err)
	assert.NotEmpty(t, added.Key)
	assert.InDelta(t, 29.0, result.Subtotal, 1e-9)
	assert.Contains(t, result.UnassignedItems, added.Key)

	result, err = s.DeleteItem("burger")
	require.NoError(t, err)
	assert.InDelta(t, 19.0, result.Subtotal, 1e-9)

	result, err = s.RemovePerson("Alice")
	require.NoError(t, err)
	assert.Empty(t, result.People)
	assert.InDelta(t, 3.0, result.UnattributedSharedCost, 1e-9)
}

func TestSession_InputErrors(t *testing.T) {
	s := loaded(t)

	_, err := s.AssignPerson("burger", "Nobody")
	assert.ErrorIs(t, err, assignment.ErrUnknownPerson)

	_, err = s.AddPerson("Alice")
	require.NoError(t, err)
	_, err = s.AssignPerson("missing", "Alice")
	assert.ErrorIs(t, err, assignment.ErrUnknownItem)

	_, _, err = s.AddItem(models.LineItem{Key: "burger", Name: "Dup", Quantity: 1, PricePerUnit: 1})
	assert.ErrorIs(t, err, assignment.ErrDuplicateItemKey)
}

func TestSession_Analyze(t *testing.T) {
	s := newSession("s1", "owner")
	rec := &recognizer.StaticRecognizer{Receipt: dinerReceipt()}

	result, err := s.Analyze(context.Background(), rec, "tok", []byte("img"))
	require.NoError(t, err)
	assert.InDelta(t, 18.0, result.GrandTotal, 1e-9)

	_, err = s.Analyze(context.Background(), rec, "", []byte("img"))
	assert.ErrorIs(t, err, recognizer.ErrAuthRequired)
}

func TestSession_AnalyzeBusy(t *testing.T) {
	s := newSession("s1", "owner")
	rec := newGatedRecognizer(dinerReceipt())

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background(), rec, "tok", nil)
		done <- err
	}()
	<-rec.started

	_, err := s.Analyze(context.Background(), rec, "tok", nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(rec.release)
	require.NoError(t, <-done)

	// The guard is released once the first call finishes.
	rec.release = make(chan struct{})
	close(rec.release)
	_, err = s.Analyze(context.Background(), rec, "tok", nil)
	assert.NoError(t, err)
}

func TestSession_ResetDiscardsInflightAnalysis(t *testing.T) {
	s := newSession("s1", "owner")
	rec := newGatedRecognizer(dinerReceipt())

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background(), rec, "tok", nil)
		done <- err
	}()
	<-rec.started

	before := s.Token()
	s.Reset()
	assert.Greater(t, s.Token(), before)

	close(rec.release)
	assert.ErrorIs(t, <-done, ErrStaleResponse)

	_, err := s.Split()
	assert.ErrorIs(t, err, ErrNoReceipt)
}

func TestSession_AnalyzeAfterResetIsAccepted(t *testing.T) {
	s := newSession("s1", "owner")
	slow := newGatedRecognizer(dinerReceipt())

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background(), slow, "tok", nil)
		done <- err
	}()
	<-slow.started

	s.Reset()

	// The slow call is never released; the reset alone must free the slot.
	fresh := &recognizer.StaticRecognizer{Receipt: dinerReceipt()}
	result, err := s.Analyze(context.Background(), fresh, "tok", nil)
	require.NoError(t, err)
	assert.InDelta(t, 18.0, result.GrandTotal, 1e-9)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStaleResponse)
	case <-time.After(5 * time.Second):
		t.Fatal("discarded analysis was not canceled")
	}

	got, err := s.Split()
	require.NoError(t, err)
	assert.InDelta(t, 18.0, got.GrandTotal, 1e-9)
}

func TestSession_AnalyzeFailureKeepsReceipt(t *testing.T) {
	s := loaded(t)
	rec := &recognizer.StaticRecognizer{Err: &recognizer.ServiceError{Code: "unavailable", Message: "down"}}

	_, err := s.Analyze(context.Background(), rec, "tok", nil)
	var svcErr *recognizer.ServiceError
	require.True(t, errors.As(err, &svcErr))

	result, err := s.Split()
	require.NoError(t, err)
	assert.InDelta(t, 18.0, result.GrandTotal, 1e-9)
}

func TestSession_SnapshotAndRestore(t *testing.T) {
	s := loaded(t)
	_, err := s.AddPerson("Alice")
	require.NoError(t, err)
	_, err = s.AddPerson("Bob")
	require.NoError(t, err)
	_, err = s.AssignPerson("burger", "Alice")
	require.NoError(t, err)
	_, err = s.AssignPerson("burger", "Bob")
	require.NoError(t, err)
	want, err := s.Split()
	require.NoError(t, err)

	receipt, state, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"burger": {"Alice", "Bob"}}, state.Assignments())

	resumed := newSession("s2", "owner")
	got, err := resumed.Restore(&models.SavedBill{ID: "b1", Receipt: receipt, SplitState: state})
	require.NoError(t, err)

	assert.Equal(t, "b1", resumed.BillID())
	assert.Equal(t, want.People, got.People)
	assert.Equal(t, want.UnassignedItems, got.UnassignedItems)
}

func TestSession_SettleUp(t *testing.T) {
	s := loaded(t)
	for _, name := range []string{"Alice", "Bob"} {
		_, err := s.AddPerson(name)
		require.NoError(t, err)
	}
	_, err := s.AssignPerson("burger", "Alice")
	require.NoError(t, err)
	_, err = s.AssignPerson("fries", "Bob")
	require.NoError(t, err)

	_, transfers, err := s.SettleUp("Alice")
	require.NoError(t, err)
	assert.Equal(t, []calculator.Transfer{{From: "Bob", To: "Alice", Amount: 6.5}}, transfers)

	_, _, err = s.SettleUp("Carol")
	assert.ErrorIs(t, err, calculator.ErrUnknownPayer)
}

func TestSession_LastUsedAdvances(t *testing.T) {
	s := newSession("s1", "owner")
	s.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())
	old := s.LastUsed()

	_, err := s.AddPerson("Alice")
	require.NoError(t, err)
	assert.True(t, s.LastUsed().After(old))
}
