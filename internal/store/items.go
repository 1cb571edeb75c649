package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
)

// ErrInvalidItem is returned when item fields violate the table constraints.
var ErrInvalidItem = errors.New("invalid item")

const itemColumns = `id, owner_id, name, price, shipping, notes, status,
		        photo IS NOT NULL, created_at, updated_at`

// ValidateItem checks the fields every stored item must satisfy.
func ValidateItem(name string, price, shipping int64, status lifecycle.Stage) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidItem)
	}
	if price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	if shipping < 0 {
		return fmt.Errorf("%w: shipping must not be negative", ErrInvalidItem)
	}
	if !lifecycle.Valid(status) {
		return fmt.Errorf("%w: %w", ErrInvalidItem, lifecycle.ErrUnknownStage)
	}
	return nil
}

// CreateItem creates a new item for ownerID in the first lifecycle stage.
func CreateItem(ctx context.Context, db *sql.DB, ownerID int64, d model.Draft) (*model.Item, error) {
	status := lifecycle.First()
	if err := ValidateItem(d.Name, d.Price, d.Shipping, status); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, owner_id, name, price, shipping, notes, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, d.Name, d.Price, d.Shipping, d.Notes, status,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, ownerID, id)
}

// GetItem returns one of ownerID's items by ID. Items owned by someone
// else are reported as missing.
func GetItem(ctx context.Context, db *sql.DB, ownerID int64, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns ownerID's items, newest first. An empty view returns
// every item.
func ListItems(ctx context.Context, db *sql.DB, ownerID int64, view lifecycle.View) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ?`
	args := []any{ownerID}

	switch view {
	case "":
	case lifecycle.ViewCompleted:
		query += ` AND status = ?`
		args = append(args, lifecycle.Last())
	case lifecycle.ViewActive:
		query += ` AND status != ?`
		args = append(args, lifecycle.Last())
	default:
		return nil, fmt.Errorf("listing items: unknown view %q", view)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem overwrites an item's editable fields. It reports false when
// ownerID has no item with that ID.
func UpdateItem(ctx context.Context, db *sql.DB, ownerID int64, id string, u model.ItemUpdate) (bool, error) {
	if err := ValidateItem(u.Name, u.Price, u.Shipping, u.Status); err != nil {
		return false, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, price = ?, shipping = ?, notes = ?, status = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		u.Name, u.Price, u.Shipping, u.Notes, u.Status, id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}
	return affected(result)
}

// SetItemStatus changes only an item's lifecycle stage.
func SetItemStatus(ctx context.Context, db *sql.DB, ownerID int64, id string, status lifecycle.Stage) (bool, error) {
	if !lifecycle.Valid(status) {
		return false, fmt.Errorf("%w: %w", ErrInvalidItem, lifecycle.ErrUnknownStage)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		status, id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("setting item status: %w", err)
	}
	return affected(result)
}

// DeleteItem permanently removes an item.
func DeleteItem(ctx context.Context, db *sql.DB, ownerID int64, id string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return affected(result)
}

// SetItemPhoto stores the listing photo of an item.
func SetItemPhoto(ctx context.Context, db *sql.DB, ownerID int64, id string, photo []byte, mime string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		photo, mime, id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("setting item photo: %w", err)
	}
	return affected(result)
}

// GetItemPhoto returns an item's photo and MIME type. Data is nil when the
// item has no photo or does not exist.
func GetItemPhoto(ctx context.Context, db *sql.DB, ownerID int64, id string) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var notes sql.NullString
	err := s.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Price, &item.Shipping,
		&notes, &item.Status, &item.HasPhoto, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Notes = notes.String
	return item, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking affected rows: %w", err)
	}
	return n > 0, nil
}
