// Package sqlite provides a SQLite-backed implementation of storage.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitty/internal/models"
	"github.com/mmynk/splitty/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath, creating parent directories and
// applying the schema.
func New(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBill persists a bill: the receipt as recognized, the roster, the
// live items and their assignments.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.SavedBill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.Timestamp == 0 {
		bill.Timestamp = time.Now().Unix()
	}
	if bill.Title == "" {
		bill.Title = generateTitle(bill.Receipt.Establishment, bill.Timestamp)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r := bill.Receipt
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bills (id, owner_id, title, establishment, currency,
			tax, tip, additional_charges, reported_subtotal, reported_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.OwnerID, bill.Title, r.Establishment, r.Currency,
		r.Tax, r.Tip, r.AdditionalCharges, r.ReportedSubtotal, r.ReportedTotal, bill.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	for i, item := range r.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO receipt_items (bill_id, position, item_key, name, quantity, price_per_unit, total_price) VALUES (?, ?, ?, ?, ?, ?, ?)",
			bill.ID, i, item.Key, item.Name, item.Quantity, item.PricePerUnit, item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to insert receipt item: %w", err)
		}
	}

	for i, name := range bill.SplitState.People {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO bill_people (bill_id, position, name) VALUES (?, ?, ?)",
			bill.ID, i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert person: %w", err)
		}
	}

	for i, item := range bill.SplitState.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO bill_items (bill_id, position, item_key, name, quantity, price_per_unit, total_price) VALUES (?, ?, ?, ?, ?, ?, ?)",
			bill.ID, i, item.Key, item.Name, item.Quantity, item.PricePerUnit, item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for j, person := range item.Assignees {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO item_assignments (bill_id, item_key, position, person) VALUES (?, ?, ?, ?)",
				bill.ID, item.Key, j, person,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBill retrieves a bill by ID with its receipt and split state.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.SavedBill, error) {
	bill := &models.SavedBill{}
	r := &bill.Receipt
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, establishment, currency,
			tax, tip, additional_charges, reported_subtotal, reported_total, created_at
		FROM bills WHERE id = ?`,
		billID,
	).Scan(&bill.ID, &bill.OwnerID, &bill.Title, &r.Establishment, &r.Currency,
		&r.Tax, &r.Tip, &r.AdditionalCharges, &r.ReportedSubtotal, &r.ReportedTotal, &bill.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrBillNotFound, billID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if r.Items, err = s.queryItems(ctx,
		"SELECT item_key, name, quantity, price_per_unit, total_price FROM receipt_items WHERE bill_id = ? ORDER BY position",
		billID,
	); err != nil {
		return nil, fmt.Errorf("failed to get receipt items: %w", err)
	}

	if bill.SplitState.People, err = s.queryPeople(ctx, billID); err != nil {
		return nil, fmt.Errorf("failed to get people: %w", err)
	}

	items, err := s.queryItems(ctx,
		"SELECT item_key, name, quantity, price_per_unit, total_price FROM bill_items WHERE bill_id = ? ORDER BY position",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}

	assignments, err := s.queryAssignments(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item assignments: %w", err)
	}
	for i := range items {
		items[i].Assignees = assignments[items[i].Key]
	}
	bill.SplitState.Items = items

	return bill, nil
}

func (s *SQLiteStore) queryItems(ctx context.Context, query, billID string) ([]models.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, query, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.Key, &item.Name, &item.Quantity, &item.PricePerUnit, &item.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) queryPeople(ctx context.Context, billID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM bill_people WHERE bill_id = ? ORDER BY position",
		billID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		people = append(people, name)
	}
	return people, rows.Err()
}

func (s *SQLiteStore) queryAssignments(ctx context.Context, billID string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_key, person FROM item_assignments WHERE bill_id = ? ORDER BY item_key, position",
		billID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make(map[string][]string)
	for rows.Next() {
		var key, person string
		if err := rows.Scan(&key, &person); err != nil {
			return nil, err
		}
		assignments[key] = append(assignments[key], person)
	}
	return assignments, rows.Err()
}

// ListBills returns summaries of ownerID's bills, newest first.
func (s *SQLiteStore) ListBills(ctx context.Context, ownerID string) ([]models.BillSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.title, b.establishment, b.currency, b.created_at,
			(SELECT COUNT(*) FROM bill_people p WHERE p.bill_id = b.id),
			(SELECT COALESCE(SUM(i.total_price), 0) FROM bill_items i WHERE i.bill_id = b.id)
		FROM bills b
		WHERE b.owner_id = ?
		ORDER BY b.created_at DESC, b.id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	summaries := []models.BillSummary{}
	for rows.Next() {
		var sum models.BillSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Establishment, &sum.Currency, &sum.Timestamp,
			&sum.PeopleCount, &sum.ItemsTotal); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return summaries, nil
}

// DeleteBill removes a bill and everything saved with it.
func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrBillNotFound, billID)
	}
	return nil
}

// generateTitle names a bill after where it was spent and when.
func generateTitle(establishment string, timestamp int64) string {
	date := time.Unix(timestamp, 0).Format("Jan 2, 2006")
	if establishment == "" {
		return fmt.Sprintf("Bill - %s", date)
	}
	return fmt.Sprintf("%s - %s", establishment, date)
}
