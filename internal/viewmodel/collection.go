// Package viewmodel keeps the signed-in user's items in memory and applies
// changes to them once the remote store has accepted them.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
)

var (
	// ErrEmptyName is returned when an item has a blank name.
	ErrEmptyName = errors.New("item name is required")
	// ErrNotConfirmed is returned when the user declines a deletion.
	ErrNotConfirmed = errors.New("deletion not confirmed")
	// ErrNoSuchItem is returned when an id is not in the collection.
	ErrNoSuchItem = errors.New("item not in collection")
)

// ItemStore is the remote item table. Every call is scoped to the signed-in
// user by the store itself.
type ItemStore interface {
	// ListItems returns all items, newest first.
	ListItems(ctx context.Context) ([]model.Item, error)
	// InsertItem creates an item and returns the rows it inserted.
	InsertItem(ctx context.Context, d model.Draft) ([]model.Item, error)
	// UpdateItem overwrites an item and returns the rows it updated.
	UpdateItem(ctx context.Context, id string, u model.ItemUpdate) ([]model.Item, error)
	UpdateStatus(ctx context.Context, id string, status lifecycle.Stage) error
	DeleteItem(ctx context.Context, id string) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to a Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Collection is the in-memory list of items. It is safe for concurrent use;
// store calls run without holding the lock.
type Collection struct {
	store ItemStore
	log   *slog.Logger

	mu      sync.Mutex
	items   []model.Item
	loadSeq uint64
	epoch   uint64 // bumped by Clear
	editing *model.Item
}

// NewCollection returns an empty collection backed by store. A nil logger
// falls back to slog.Default().
func NewCollection(store ItemStore, logger *slog.Logger) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection{store: store, log: logger}
}

// Load replaces the collection with the store's items. On failure the
// previous items are kept. A response that arrives after a newer Load (or
// Clear) was issued is dropped.
func (c *Collection) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	items, err := c.store.ListItems(ctx)
	if err != nil {
		c.log.Error("failed to load items", "error", err)
		return fmt.Errorf("loading items: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		c.log.Debug("dropping stale item list", "seq", seq, "latest", c.loadSeq)
		return nil
	}
	c.items = append([]model.Item(nil), items...)
	return nil
}

// Create inserts the draft. On success the returned row is put at the top of
// the collection and the draft is reset. When the store confirms the insert
// but returns no row, the collection is reloaded instead.
func (c *Collection) Create(ctx context.Context, d *model.Draft) error {
	if d == nil || !d.HasName() {
		return ErrEmptyName
	}

	epoch := c.currentEpoch()
	rows, err := c.store.InsertItem(ctx, *d)
	if err != nil {
		c.log.Error("failed to create item", "name", d.Name, "error", err)
		return fmt.Errorf("creating item: %w", err)
	}
	*d = model.Draft{}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debug("collection cleared during insert, not adding item")
		return nil
	}
	if len(rows) > 0 {
		c.items = append([]model.Item{rows[0]}, c.items...)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.log.Warn("insert returned no rows, reloading")
	return c.Load(ctx)
}

// Update overwrites item's editable fields in the store and then replaces
// the local copy with the stored row. The edit buffer is cleared on success.
func (c *Collection) Update(ctx context.Context, item model.Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return ErrEmptyName
	}
	if !lifecycle.Valid(item.Status) {
		return fmt.Errorf("%w: %q", lifecycle.ErrUnknownStage, item.Status)
	}

	epoch := c.currentEpoch()
	rows, err := c.store.UpdateItem(ctx, item.ID, model.UpdateOf(item))
	if err != nil {
		c.log.Error("failed to update item", "item", item.ID, "error", err)
		return fmt.Errorf("updating item %s: %w", item.ID, err)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debug("collection cleared during update", "item", item.ID)
		return nil
	}
	if c.editing != nil && c.editing.ID == item.ID {
		c.editing = nil
	}
	if len(rows) > 0 {
		c.replace(rows[0])
	}
	c.mu.Unlock()

	if len(rows) == 0 {
		c.log.Warn("update returned no rows, reloading", "item", item.ID)
		return c.Load(ctx)
	}
	return nil
}

// SetStatus moves item one stage in the given direction. Nothing is sent
// when the item is already at that end of the sequence.
func (c *Collection) SetStatus(ctx context.Context, item model.Item, dir lifecycle.Direction) error {
	next, err := lifecycle.Move(item.Status, dir)
	if err != nil {
		return err
	}
	if next == item.Status {
		return nil
	}

	epoch := c.currentEpoch()
	if err := c.store.UpdateStatus(ctx, item.ID, next); err != nil {
		c.log.Error("failed to change item status", "item", item.ID, "status", next, "error", err)
		return fmt.Errorf("moving item %s to %s: %w", item.ID, next, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return nil
	}
	if i := c.indexOf(item.ID); i >= 0 {
		c.items[i].Status = next
	}
	return nil
}

// Delete removes an item after confirm agrees.
func (c *Collection) Delete(ctx context.Context, id string, confirm Confirmer) error {
	prompt := "Delete this item?"
	if item, ok := c.Get(id); ok {
		prompt = fmt.Sprintf("Delete %q?", item.Name)
	}
	if confirm == nil || !confirm.Confirm(prompt) {
		return ErrNotConfirmed
	}

	if err := c.store.DeleteItem(ctx, id); err != nil {
		c.log.Error("failed to delete item", "item", id, "error", err)
		return fmt.Errorf("deleting item %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.items = append(c.items[:i:i], c.items[i+1:]...)
	}
	if c.editing != nil && c.editing.ID == id {
		c.editing = nil
	}
	return nil
}

// Items returns a copy of the whole collection, newest first.
func (c *Collection) Items() []model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Item(nil), c.items...)
}

// View returns the items that belong in v, newest first.
func (c *Collection) View(v lifecycle.View) []model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Item
	for _, item := range c.items {
		if v.Includes(item.Status) {
			out = append(out, item)
		}
	}
	return out
}

// Get returns the item with the given id.
func (c *Collection) Get(id string) (model.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	return model.Item{}, false
}

// Edit starts editing the item with the given id. Only one item is edited
// at a time.
func (c *Collection) Edit(id string) (model.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return model.Item{}, ErrNoSuchItem
	}
	item := c.items[i]
	c.editing = &item
	return item, nil
}

// Editing returns the item being edited, if any.
func (c *Collection) Editing() (model.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return model.Item{}, false
	}
	return *c.editing, true
}

// CancelEdit discards the edit buffer.
func (c *Collection) CancelEdit() {
	c.mu.Lock()
	c.editing = nil
	c.mu.Unlock()
}

// Clear drops every item. In-flight loads and writes that finish afterwards
// leave the collection empty.
func (c *Collection) Clear() {
	c.mu.Lock()
	c.items = nil
	c.editing = nil
	c.loadSeq++
	c.epoch++
	c.mu.Unlock()
}

func (c *Collection) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// indexOf must be called with mu held.
func (c *Collection) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// replace must be called with mu held.
func (c *Collection) replace(item model.Item) {
	if i := c.indexOf(item.ID); i >= 0 {
		c.items[i] = item
	}
}
