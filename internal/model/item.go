package model

import (
	"strings"
	"time"

	"github.com/zaiko-app/zaiko/internal/lifecycle"
)

// Item represents a single listing owned by one user.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     int64           `json:"price"`
	Shipping  int64           `json:"shipping"`
	Notes     string          `json:"notes,omitempty"`
	OwnerID   int64           `json:"user_id"`
	Status    lifecycle.Stage `json:"status"`
	HasPhoto  bool            `json:"has_photo"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Completed reports whether the item has reached the terminal stage.
func (i Item) Completed() bool {
	return lifecycle.IsCompleted(i.Status)
}

// Draft holds the user-editable fields of a new item.
type Draft struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Shipping int64  `json:"shipping"`
	Notes    string `json:"notes,omitempty"`
}

// HasName reports whether the draft carries a non-blank name.
func (d Draft) HasName() bool {
	return strings.TrimSpace(d.Name) != ""
}

// ItemUpdate is a full overwrite of an item's editable fields.
type ItemUpdate struct {
	Name     string          `json:"name"`
	Price    int64           `json:"price"`
	Shipping int64           `json:"shipping"`
	Notes    string          `json:"notes"`
	Status   lifecycle.Stage `json:"status"`
}

// UpdateOf returns the editable fields of item as an overwrite.
func UpdateOf(item Item) ItemUpdate {
	return ItemUpdate{
		Name:     item.Name,
		Price:    item.Price,
		Shipping: item.Shipping,
		Notes:    item.Notes,
		Status:   item.Status,
	}
}
