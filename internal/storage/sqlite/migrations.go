package sqlite

import (
	"context"
	"database/sql"
)

// schema is applied on every start. Charge columns are BLOB so that SQLite
// applies no type conversion and a charge keeps its three states: NULL when
// absent, a REAL when present and the original text when it could not be
// read. NUMERIC would turn text such as "1e400" into a number.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bills (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    title TEXT NOT NULL,
    establishment TEXT NOT NULL,
    currency TEXT NOT NULL,
    tax BLOB,
    tip BLOB,
    additional_charges BLOB,
    reported_subtotal BLOB,
    reported_total BLOB,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS receipt_items (
    bill_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    item_key TEXT NOT NULL,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    price_per_unit REAL NOT NULL,
    total_price REAL NOT NULL,
    PRIMARY KEY (bill_id, position),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bill_people (
    bill_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (bill_id, name),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS bill_items (
    bill_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    item_key TEXT NOT NULL,
    name TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    price_per_unit REAL NOT NULL,
    total_price REAL NOT NULL,
    PRIMARY KEY (bill_id, item_key),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS item_assignments (
    bill_id TEXT NOT NULL,
    item_key TEXT NOT NULL,
    position INTEGER NOT NULL,
    person TEXT NOT NULL,
    PRIMARY KEY (bill_id, item_key, person),
    FOREIGN KEY (bill_id, item_key) REFERENCES bill_items(bill_id, item_key) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_bills_owner_id ON bills(owner_id, created_at);
CREATE INDEX IF NOT EXISTS idx_receipt_items_bill_id ON receipt_items(bill_id);
CREATE INDEX IF NOT EXISTS idx_bill_people_bill_id ON bill_people(bill_id);
CREATE INDEX IF NOT EXISTS idx_bill_items_bill_id ON bill_items(bill_id);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
