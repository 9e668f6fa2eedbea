// Package models defines the core domain models for Splitty.
//
// # Models
//
//   - Receipt: the parsed output of the receipt recognizer. Immutable once
//     built with NewReceipt.
//   - LineItem: one purchasable entry on a receipt, keyed by a synthetic Key.
//     Names are display-only and may repeat (two identical drinks).
//   - Amount: a money value that is present, absent ("not applicable") or
//     present but not numeric. Absent is distinct from zero for display and
//     counts as zero in sums.
//   - SplitState / SavedBill: the persisted shape of a split session.
//   - User: a registered account.
//
// # Design Principles
//
//  1. Receipts are validated once at the boundary (NewReceipt) so downstream
//     code never sees a malformed receipt.
//  2. Item identity is the Key, never the Name.
//  3. People are identified by case-sensitive name strings within a session.
//  4. Use ID strings instead of pointers for relationships.
package models
