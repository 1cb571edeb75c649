package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zaiko-app/zaiko/internal/model"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("controller closed")

// SessionSource reports who is signed in.
type SessionSource interface {
	Current(ctx context.Context) (*model.Session, error)
	Subscribe(fn func(*model.Session)) (unsubscribe func())
}

// Controller ties the item collection to the session: it loads items when
// a user signs in and clears them on sign-out. It holds one subscription,
// released by Close.
type Controller struct {
	Items *Collection

	sessions SessionSource
	log      *slog.Logger

	mu          sync.Mutex
	session     *model.Session
	unsubscribe func()
	closed      bool
}

// NewController returns a controller that is not yet listening.
func NewController(sessions SessionSource, store ItemStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		Items:    NewCollection(store, logger),
		sessions: sessions,
		log:      logger,
	}
}

// Start subscribes to session changes and applies the current session.
// ctx is used for every load the controller triggers until Close. Calling
// Start twice is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.unsubscribe != nil {
		c.mu.Unlock()
		return nil
	}
	c.unsubscribe = c.sessions.Subscribe(func(s *model.Session) {
		if err := c.apply(ctx, s); err != nil {
			c.log.Warn("items not refreshed after session change", "error", err)
		}
	})
	c.mu.Unlock()

	sess, err := c.sessions.Current(ctx)
	if err != nil {
		c.log.Error("failed to read session", "error", err)
		return fmt.Errorf("reading session: %w", err)
	}
	return c.apply(ctx, sess)
}

// Session returns the session the controller last saw.
func (c *Controller) Session() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Close drops the session subscription. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.closed = true
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Controller) apply(ctx context.Context, s *model.Session) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.session = s
	c.mu.Unlock()

	if s == nil {
		c.Items.Clear()
		return nil
	}
	c.log.Debug("loading items", "user", s.Username)
	return c.Items.Load(ctx)
}
