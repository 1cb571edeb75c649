package client

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/zaiko-app/zaiko/internal/api"
	"github.com/zaiko-app/zaiko/internal/auth"
	"github.com/zaiko-app/zaiko/internal/db"
	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
	"github.com/zaiko-app/zaiko/internal/store"
)

const testPassword = "password"

// newTestServer starts the real API over an in-memory database with one user.
func newTestServer(t *testing.T, username, role string) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if _, err := store.CreateUser(context.Background(), database, username, string(hash), role); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	server := httptest.NewServer(api.NewRouter(database, auth.NewIssuer("test-secret")))
	t.Cleanup(server.Close)
	return server
}

func signedIn(t *testing.T, server *httptest.Server, username string) *Client {
	t.Helper()
	c := New(server.URL, server.Client())
	sessions := NewSessions(c, "")
	if _, err := sessions.SignIn(context.Background(), ProviderPassword, Credentials{Username: username, Password: testPassword}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return c
}

func TestItemRoundTrip(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	c := signedIn(t, server, "mika")
	ctx := context.Background()

	rows, err := c.InsertItem(ctx, model.Draft{Name: "Denim jacket", Price: 4800, Shipping: 750})
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("InsertItem returned %d rows, want 1", len(rows))
	}
	created := rows[0]
	if created.ID == "" || created.Status != lifecycle.First() {
		t.Fatalf("unexpected created item: %+v", created)
	}

	items, err := c.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("ListItems = %+v", items)
	}

	u := model.UpdateOf(created)
	u.Price = 5200
	rows, err = c.UpdateItem(ctx, created.ID, u)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if len(rows) != 1 || rows[0].Price != 5200 {
		t.Fatalf("UpdateItem returned %+v", rows)
	}

	if err := c.UpdateStatus(ctx, created.ID, lifecycle.Listed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	detail, err := c.GetItem(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if detail.Item.Status != lifecycle.Listed {
		t.Errorf("status = %s, want listed", detail.Item.Status)
	}
	if detail.Breakdown.Commission != 520 || detail.Breakdown.Profit != 3930 {
		t.Errorf("breakdown = %+v", detail.Breakdown)
	}

	summary, err := c.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Active != 1 || summary.ListedValue != 5200 {
		t.Errorf("summary = %+v", summary)
	}

	if err := c.DeleteItem(ctx, created.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	_, err = c.GetItem(ctx, created.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetItem after delete: err = %v, want ErrNotFound", err)
	}
}

func TestListView(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	c := signedIn(t, server, "mika")
	ctx := context.Background()

	for _, name := range []string{"Scarf", "Boots"} {
		if _, err := c.InsertItem(ctx, model.Draft{Name: name, Price: 1000}); err != nil {
			t.Fatalf("InsertItem: %v", err)
		}
	}
	items, _ := c.ListItems(ctx)
	if err := c.UpdateStatus(ctx, items[0].ID, lifecycle.Received); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	completed, err := c.ListView(ctx, lifecycle.ViewCompleted)
	if err != nil {
		t.Fatalf("ListView: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != items[0].ID {
		t.Errorf("completed = %+v", completed)
	}
	active, _ := c.ListView(ctx, lifecycle.ViewActive)
	if len(active) != 1 || active[0].ID != items[1].ID {
		t.Errorf("active = %+v", active)
	}
}

func TestAPIErrors(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	ctx := context.Background()

	anon := New(server.URL, server.Client())
	_, err := anon.ListItems(ctx)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("anonymous ListItems: err = %v, want ErrUnauthorized", err)
	}

	c := signedIn(t, server, "mika")
	_, err = c.InsertItem(ctx, model.Draft{Name: "Hat", Price: -5})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Fatalf("negative price: err = %v, want 400 APIError", err)
	}
	if apiErr.Message == "" {
		t.Error("APIError carries no server message")
	}

	err = c.UpdateStatus(ctx, "missing", lifecycle.Listed)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus on missing item: err = %v, want ErrNotFound", err)
	}
}

func TestPhotoUpload(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	c := signedIn(t, server, "mika")
	ctx := context.Background()

	rows, err := c.InsertItem(ctx, model.Draft{Name: "Lamp", Price: 3000})
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 5, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	if err := c.UploadPhoto(ctx, rows[0].ID, "lamp.png", &buf); err != nil {
		t.Fatalf("UploadPhoto: %v", err)
	}
	data, err := c.Photo(ctx, rows[0].ID)
	if err != nil {
		t.Fatalf("Photo: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Errorf("stored photo is not a JPEG")
	}
}

func TestSessionsSignInPersistsToken(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	path := filepath.Join(t.TempDir(), "zaiko", "session.json")
	ctx := context.Background()

	sessions := NewSessions(New(server.URL, server.Client()), path)
	sess, err := sessions.SignIn(ctx, ProviderPassword, Credentials{Username: "mika", Password: testPassword})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.Username != "mika" || sess.Token == "" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// A fresh provider restores the saved token.
	restored := NewSessions(New(server.URL, server.Client()), path)
	cur, err := restored.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur == nil || cur.UserID != sess.UserID {
		t.Fatalf("restored session = %+v, want user %d", cur, sess.UserID)
	}

	if err := restored.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	// The first provider's token was revoked along with the file.
	stale := New(server.URL, server.Client())
	stale.SetToken(sess.Token)
	_, err = stale.ListItems(ctx)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("revoked token: err = %v, want ErrUnauthorized", err)
	}

	again := NewSessions(New(server.URL, server.Client()), path)
	cur, err = again.Current(ctx)
	if err != nil || cur != nil {
		t.Errorf("Current after sign-out = %+v, %v; want nil", cur, err)
	}
}

func TestSessionsRejectedTokenIsDiscarded(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	ctx := context.Background()

	c := New(server.URL, server.Client())
	c.SetToken("not-a-token")
	sessions := NewSessions(c, "")

	cur, err := sessions.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur != nil {
		t.Errorf("Current = %+v, want nil", cur)
	}
	if c.Token() != "" {
		t.Error("rejected token was kept")
	}
}

func TestSessionsSignInWrongPassword(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	sessions := NewSessions(New(server.URL, server.Client()), "")

	_, err := sessions.SignIn(context.Background(), ProviderPassword, Credentials{Username: "mika", Password: "nope"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	_, err = sessions.SignIn(context.Background(), "oauth", Credentials{})
	if err == nil {
		t.Error("unsupported provider accepted")
	}
}

func TestSessionsSubscribe(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	sessions := NewSessions(New(server.URL, server.Client()), "")
	ctx := context.Background()

	var mu sync.Mutex
	var seen []*model.Session
	unsubscribe := sessions.Subscribe(func(s *model.Session) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	if _, err := sessions.SignIn(ctx, ProviderPassword, Credentials{Username: "mika", Password: testPassword}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if err := sessions.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	unsubscribe()
	unsubscribe()
	if _, err := sessions.SignIn(ctx, ProviderPassword, Credentials{Username: "mika", Password: testPassword}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("got %d notifications, want 2", len(seen))
	}
	if seen[0] == nil || seen[0].Username != "mika" {
		t.Errorf("first notification = %+v, want mika", seen[0])
	}
	if seen[1] != nil {
		t.Errorf("second notification = %+v, want nil", seen[1])
	}
}

func TestChangePassword(t *testing.T) {
	server := newTestServer(t, "mika", model.RoleUser)
	sessions := NewSessions(New(server.URL, server.Client()), "")
	ctx := context.Background()

	if _, err := sessions.SignIn(ctx, ProviderPassword, Credentials{Username: "mika", Password: testPassword}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if err := sessions.ChangePassword(ctx, testPassword, "a-longer-secret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := NewSessions(New(server.URL, server.Client()), "").SignIn(ctx, ProviderPassword,
		Credentials{Username: "mika", Password: "a-longer-secret"}); err != nil {
		t.Errorf("SignIn with new password: %v", err)
	}
}
