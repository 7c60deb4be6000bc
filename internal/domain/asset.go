package domain

import (
	"time"

	"github.com/google/uuid"
)

// AssetStatus is the admin-review state of a listed item.
type AssetStatus string

const (
	AssetStatusPending  AssetStatus = "pending"
	AssetStatusApproved AssetStatus = "approved"
	AssetStatusRejected AssetStatus = "rejected"
)

// Asset is an item a seller wants to auction.  Only approved assets can back
// an auction; the wider catalog (images, descriptions, edits) lives outside
// this engine.
type Asset struct {
	ID         uuid.UUID   `json:"id"          db:"id"`
	OwnerID    uuid.UUID   `json:"owner_id"    db:"owner_id"`
	Title      string      `json:"title"       db:"title"`
	Status     AssetStatus `json:"status"      db:"status"`
	ReviewedBy *uuid.UUID  `json:"reviewed_by" db:"reviewed_by"`
	CreatedAt  time.Time   `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"  db:"updated_at"`
}

// IsApproved reports whether the asset passed admin review.
func (a *Asset) IsApproved() bool {
	return a.Status == AssetStatusApproved
}
