package model

import (
	"time"

	"github.com/google/uuid"
)

// Category labels transactions. Deleting a category never deletes the
// transactions that reference it.
type Category struct {
	CreatedAt time.Time
	Name      string
	Icon      string
	Color     string
	ID        uuid.UUID
}
