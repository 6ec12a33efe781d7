package domain

import "time"

// MovementKind identifies what caused a stock change.
type MovementKind string

const (
	MovementCreate   MovementKind = "create"
	MovementPurchase MovementKind = "purchase"
	MovementRestock  MovementKind = "restock"
	MovementAdjust   MovementKind = "adjust"
	MovementDelete   MovementKind = "delete"
)

// StockMovement is an append-only audit record of a stock change.
type StockMovement struct {
	SweetID       string       `json:"sweet_id"`
	Kind          MovementKind `json:"kind"`
	Delta         int64        `json:"delta"`
	QuantityAfter int64        `json:"quantity_after"`
	UserID        string       `json:"user_id,omitempty"`
	At            time.Time    `json:"at"`
}
