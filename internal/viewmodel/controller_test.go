package viewmodel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/zaiko-app/zaiko/internal/lifecycle"
	"github.com/zaiko-app/zaiko/internal/model"
)

// fakeSessions is a session source whose current session is set by tests.
type fakeSessions struct {
	mu      sync.Mutex
	current *model.Session
	err     error
	subs    map[int]func(*model.Session)
	next    int
}

func newFakeSessions(current *model.Session) *fakeSessions {
	return &fakeSessions{current: current, subs: make(map[int]func(*model.Session))}
}

func (f *fakeSessions) Current(ctx context.Context) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.err
}

func (f *fakeSessions) Subscribe(fn func(*model.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeSessions) set(s *model.Session) {
	f.mu.Lock()
	f.current = s
	subs := make([]func(*model.Session), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (f *fakeSessions) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

var mika = &model.Session{UserID: 1, Username: "mika", Role: model.RoleUser}

func TestControllerLoadsForCurrentSession(t *testing.T) {
	store := &fakeStore{list: listOf(item("a", lifecycle.Listed))}
	sessions := newFakeSessions(mika)
	c := NewController(sessions, store, discardLogger())
	defer c.Close()

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := ids(c.Items.Items()); !equal(got, []string{"a"}) {
		t.Errorf("Items = %v, want [a]", got)
	}
	if c.Session() != mika {
		t.Errorf("Session = %+v", c.Session())
	}
}

func TestControllerSignedOutStartsEmpty(t *testing.T) {
	store := &fakeStore{list: listOf(item("a", lifecycle.Listed))}
	c := NewController(newFakeSessions(nil), store, discardLogger())
	defer c.Close()

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if list, _, _, _, _ := store.calls(); list != 0 {
		t.Errorf("loaded %d times while signed out", list)
	}
}

func TestControllerFollowsSessionChanges(t *testing.T) {
	store := &fakeStore{list: listOf(item("a", lifecycle.Listed))}
	sessions := newFakeSessions(nil)
	c := NewController(sessions, store, discardLogger())
	defer c.Close()

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sessions.set(mika)
	if got := len(c.Items.Items()); got != 1 {
		t.Fatalf("after sign-in: %d items, want 1", got)
	}

	sessions.set(nil)
	if got := len(c.Items.Items()); got != 0 {
		t.Errorf("after sign-out: %d items, want 0", got)
	}
	if c.Session() != nil {
		t.Error("session kept after sign-out")
	}
}

func TestControllerCloseUnsubscribes(t *testing.T) {
	store := &fakeStore{list: listOf(item("a", lifecycle.Listed))}
	sessions := newFakeSessions(nil)
	c := NewController(sessions, store, discardLogger())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if n := sessions.subscribers(); n != 1 {
		t.Fatalf("%d subscriptions, want 1", n)
	}

	c.Close()
	c.Close()
	if n := sessions.subscribers(); n != 0 {
		t.Errorf("%d subscriptions after Close, want 0", n)
	}

	sessions.set(mika)
	if list, _, _, _, _ := store.calls(); list != 0 {
		t.Errorf("loaded %d times after Close", list)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close err = %v, want ErrClosed", err)
	}
}

func TestControllerSessionError(t *testing.T) {
	sessions := newFakeSessions(nil)
	sessions.err = errStore
	c := NewController(sessions, &fakeStore{}, discardLogger())
	defer c.Close()

	if err := c.Start(context.Background()); !errors.Is(err, errStore) {
		t.Errorf("Start err = %v, want session error", err)
	}
}
