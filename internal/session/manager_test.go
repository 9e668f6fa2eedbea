package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitty/internal/models"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create("alice-id")
	require.NotEmpty(t, s.ID)

	got, err := m.Get("alice-id", s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("bob-id", s.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = m.Get("alice-id", "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	m.Close(s.ID)
	m.Close(s.ID)
	_, err = m.Get("alice-id", s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, m.Len())
}

func TestManager_Resume(t *testing.T) {
	m := NewManager(time.Hour)
	receipt := dinerReceipt()
	bill := &models.SavedBill{
		ID:      "bill-1",
		OwnerID: "alice-id",
		Receipt: receipt,
		SplitState: models.SplitState{
			People: []string{"Alice", "Bob"},
			Items: []models.LineItem{
				{Key: "burger", Name: "Burger", Quantity: 1, PricePerUnit: 10, TotalPrice: 10, Assignees: []string{"Alice"}},
				{Key: "fries", Name: "Fries", Quantity: 1, PricePerUnit: 5, TotalPrice: 5, Assignees: []string{"Bob"}},
			},
		},
	}

	s, result, err := m.Resume("alice-id", bill)
	require.NoError(t, err)
	assert.Equal(t, "bill-1", s.BillID())
	alice, _ := result.Person("Alice")
	assert.InDelta(t, 11.5, alice.Total, 1e-9)
	assert.Equal(t, 1, m.Len())

	_, _, err = m.Resume("bob-id", bill)
	assert.ErrorIs(t, err, ErrForbidden)

	bill.SplitState.Items[0].Assignees = []string{"Carol"}
	_, _, err = m.Resume("alice-id", bill)
	assert.Error(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestManager_Sweep(t *testing.T) {
	m := NewManager(10 * time.Minute)
	stale := m.Create("u")
	fresh := m.Create("u")
	stale.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())

	evicted := m.Sweep(time.Now())
	assert.Equal(t, 1, evicted)

	_, err := m.Get("u", stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get("u", fresh.ID)
	assert.NoError(t, err)
}

func TestManager_SweepDisabled(t *testing.T) {
	m := NewManager(0)
	s := m.Create("u")
	s.lastUsed.Store(0)

	assert.Zero(t, m.Sweep(time.Now()))
	assert.Equal(t, 1, m.Len())
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager(time.Millisecond)
	s := m.Create("u")
	s.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
