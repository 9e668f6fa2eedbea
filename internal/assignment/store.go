// Package assignment holds the mutable state of a split session: the roster
// of people and the live item list with each item's assignees.
//
// Input errors are rejected here so the allocation engine only ever sees a
// consistent store. A Store is not safe for concurrent use; the owning
// session serialises access.
package assignment

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/splitty/internal/models"
)

var (
	ErrUnknownPerson    = errors.New("unknown person")
	ErrUnknownItem      = errors.New("unknown item")
	ErrDuplicateItemKey = errors.New("duplicate item key")
	ErrInvalidItem      = errors.New("invalid item")
	ErrInvalidPerson    = errors.New("invalid person name")
)

// ItemPatch describes an edit to an item. Nil fields are left unchanged.
type ItemPatch struct {
	Name         *string
	Quantity     *int
	PricePerUnit *float64

	// TotalPrice is only honoured when neither Quantity nor PricePerUnit is
	// set; it then derives the unit price.
	TotalPrice *float64
}

// Store is the roster plus the item list of one session.
type Store struct {
	people []string
	items  []models.LineItem
}

// NewStore seeds a store from receipt items. Assignees on the input are ignored.
func NewStore(items []models.LineItem) *Store {
	s := &Store{items: make([]models.LineItem, 0, len(items))}
	for _, item := range items {
		item = item.Clone()
		item.Assignees = nil
		s.items = append(s.items, item)
	}
	return s
}

// Restore rebuilds a store from a saved split state.
// Every assignee must be on the roster and item keys must be unique.
func Restore(state models.SplitState) (*Store, error) {
	s := &Store{}
	for _, name := range state.People {
		if err := s.AddPerson(name); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(state.Items))
	for _, item := range state.Items {
		item = item.Clone()
		if item.Key == "" {
			return nil, fmt.Errorf("%w: item %q has no key", ErrInvalidItem, item.Name)
		}
		if seen[item.Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItemKey, item.Key)
		}
		seen[item.Key] = true
		if err := item.Normalize(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidItem, err)
		}

		var assignees []string
		for _, name := range item.Assignees {
			if !s.HasPerson(name) {
				return nil, fmt.Errorf("%w: %s assigned to %q", ErrUnknownPerson, name, item.Name)
			}
			if !slices.Contains(assignees, name) {
				assignees = append(assignees, name)
			}
		}
		item.Assignees = assignees
		s.items = append(s.items, item)
	}
	return s, nil
}

// People returns the roster in display order.
func (s *Store) People() []string {
	return slices.Clone(s.people)
}

// HasPerson reports whether name is on the roster.
func (s *Store) HasPerson(name string) bool {
	return slices.Contains(s.people, name)
}

// Items returns a copy of the live item list.
func (s *Store) Items() []models.LineItem {
	out := make([]models.LineItem, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Item returns a copy of the item with the given key.
func (s *Store) Item(key string) (models.LineItem, error) {
	idx := s.indexOf(key)
	if idx < 0 {
		return models.LineItem{}, fmt.Errorf("%w: %s", ErrUnknownItem, key)
	}
	return s.items[idx].Clone(), nil
}

// State snapshots the store for persistence.
func (s *Store) State() models.SplitState {
	return models.SplitState{
		People: s.People(),
		Items:  s.Items(),
	}
}

// AddPerson appends name to the roster. Adding an existing name is a no-op.
func (s *Store) AddPerson(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidPerson
	}
	if s.HasPerson(name) {
		return nil
	}
	s.people = append(s.people, name)
	return nil
}

// RemovePerson drops name from the roster and from every item. Idempotent.
func (s *Store) RemovePerson(name string) {
	s.people = slices.DeleteFunc(s.people, func(p string) bool { return p == name })
	for i := range s.items {
		s.items[i].Assignees = slices.DeleteFunc(s.items[i].Assignees, func(p string) bool { return p == name })
	}
}

// AssignPerson adds name to the item's assignees. Assigning twice is a no-op.
func (s *Store) AssignPerson(itemKey, name string) error {
	if !s.HasPerson(name) {
		return fmt.Errorf("%w: %s", ErrUnknownPerson, name)
	}
	idx := s.indexOf(itemKey)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemKey)
	}
	if !slices.Contains(s.items[idx].Assignees, name) {
		s.items[idx].Assignees = append(s.items[idx].Assignees, name)
	}
	return nil
}

// UnassignPerson removes name from the item's assignees; no-op if absent.
func (s *Store) UnassignPerson(itemKey, name string) error {
	idx := s.indexOf(itemKey)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemKey)
	}
	s.items[idx].Assignees = slices.DeleteFunc(s.items[idx].Assignees, func(p string) bool { return p == name })
	return nil
}

// AddItem appends an ad-hoc item and returns it as stored.
// An empty key is generated; supplied assignees are discarded.
func (s *Store) AddItem(item models.LineItem) (models.LineItem, error) {
	item = item.Clone()
	item.Assignees = nil
	if item.Key == "" {
		item.Key = uuid.New().String()
	}
	if s.indexOf(item.Key) >= 0 {
		return models.LineItem{}, fmt.Errorf("%w: %s", ErrDuplicateItemKey, item.Key)
	}
	// The unit price is authoritative; a bare total derives it in Normalize.
	if item.PricePerUnit > 0 {
		item.TotalPrice = float64(item.Quantity) * item.PricePerUnit
	}
	if err := item.Normalize(); err != nil {
		return models.LineItem{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	s.items = append(s.items, item)
	return item.Clone(), nil
}

// EditItem applies patch to the item with the given key and returns the result.
// Changing quantity or unit price recomputes the total price.
func (s *Store) EditItem(itemKey string, patch ItemPatch) (models.LineItem, error) {
	idx := s.indexOf(itemKey)
	if idx < 0 {
		return models.LineItem{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemKey)
	}

	item := s.items[idx].Clone()
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.PricePerUnit != nil {
		item.PricePerUnit = *patch.PricePerUnit
	}

	switch {
	case patch.Quantity != nil || patch.PricePerUnit != nil:
		item.TotalPrice = float64(item.Quantity) * item.PricePerUnit
	case patch.TotalPrice != nil:
		if item.Quantity < 1 {
			return models.LineItem{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidItem)
		}
		item.TotalPrice = *patch.TotalPrice
		item.PricePerUnit = item.TotalPrice / float64(item.Quantity)
	}

	if err := item.Normalize(); err != nil {
		return models.LineItem{}, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	s.items[idx] = item
	return item.Clone(), nil
}

// DeleteItem removes the item and its assignments.
func (s *Store) DeleteItem(itemKey string) error {
	idx := s.indexOf(itemKey)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemKey)
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	return nil
}

func (s *Store) indexOf(key string) int {
	return slices.IndexFunc(s.items, func(item models.LineItem) bool { return item.Key == key })
}
