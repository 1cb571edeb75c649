package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/zaiko-app/zaiko/internal/finance"
	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
)

// ItemDetail is a single item with its derived values.
type ItemDetail struct {
	Item      *model.Item       `json:"item"`
	Breakdown finance.Breakdown `json:"breakdown"`
	NextLabel string            `json:"next_label,omitempty"`
}

func itemPath(id string) string {
	return "/api/items/" + url.PathEscape(id)
}

// ListItems returns all of the signed-in user's items, newest first.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	return c.ListView(ctx, "")
}

// ListView returns the items of one view. An empty view returns all items.
func (c *Client) ListView(ctx context.Context, view lifecycle.View) ([]model.Item, error) {
	path := "/api/items"
	if view != "" {
		path += "?view=" + url.QueryEscape(string(view))
	}

	var items []model.Item
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertItem creates an item and returns the rows the server sent back.
func (c *Client) InsertItem(ctx context.Context, d model.Draft) ([]model.Item, error) {
	var rows []model.Item
	if err := c.doJSON(ctx, http.MethodPost, "/api/items", d, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetItem returns one item with its fee breakdown.
func (c *Client) GetItem(ctx context.Context, id string) (*ItemDetail, error) {
	var detail ItemDetail
	if err := c.doJSON(ctx, http.MethodGet, itemPath(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateItem overwrites an item's editable fields and returns the updated rows.
func (c *Client) UpdateItem(ctx context.Context, id string, u model.ItemUpdate) ([]model.Item, error) {
	var rows []model.Item
	if err := c.doJSON(ctx, http.MethodPut, itemPath(id), u, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus changes only an item's stage.
func (c *Client) UpdateStatus(ctx context.Context, id string, status lifecycle.Stage) error {
	body := map[string]lifecycle.Stage{"status": status}
	return c.doJSON(ctx, http.MethodPatch, itemPath(id)+"/status", body, nil)
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, itemPath(id), nil, nil)
}

// Summary returns per-stage counts and profit totals.
func (c *Client) Summary(ctx context.Context) (*finance.Summary, error) {
	var s finance.Summary
	if err := c.doJSON(ctx, http.MethodGet, "/api/items/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UploadPhoto sends a listing photo for an item.
func (c *Client) UploadPhoto(ctx context.Context, id, filename string, r io.Reader) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return fmt.Errorf("building upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building upload: %w", err)
	}

	return c.do(ctx, http.MethodPut, itemPath(id)+"/photo", mw.FormDataContentType(), &body, nil)
}

// Photo downloads an item's stored photo.
func (c *Client) Photo(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	if err := c.do(ctx, http.MethodGet, itemPath(id)+"/photo", "", nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// CreateUser creates an account. Only admins may call it.
func (c *Client) CreateUser(ctx context.Context, username, password, role string) (*model.User, error) {
	body := map[string]string{"username": username, "password": password, "role": role}
	var u model.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/users", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
