// Package notify is the non-blocking user notification channel of the sync
// engine — the equivalent of the console's toast stack. The gateway pushes
// one notification per application failure and one for an unreachable
// backend; consumers subscribe to render them.
//
// Pushing never blocks and never fails: a notification is fan-out state, not
// control flow.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ordernow/consync/idgen"
)

// Level classifies a notification for presentation.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

// Notification is a single user-visible message.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Center collects notifications, retains the most recent ones, and fans them
// out to subscribers. Safe for concurrent use.
type Center struct {
	mu      sync.Mutex
	recent  []Notification
	keep    int
	subs    map[int]chan Notification
	nextSub int
	logger  *slog.Logger
	newID   idgen.Generator
}

// Option configures a Center.
type Option func(*Center)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Center) { c.logger = l }
}

// WithRetention sets how many recent notifications are kept. Default 50.
func WithRetention(n int) Option {
	return func(c *Center) { c.keep = n }
}

// WithIDGenerator overrides the notification ID strategy.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(c *Center) { c.newID = gen }
}

// NewCenter creates a Center.
func NewCenter(opts ...Option) *Center {
	c := &Center{
		keep:   50,
		subs:   make(map[int]chan Notification),
		logger: slog.Default(),
		newID:  idgen.Prefixed("ntf_", idgen.UUIDv7()),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Error pushes an error-level notification.
func (c *Center) Error(message string) { c.push(LevelError, message) }

// Success pushes a success-level notification.
func (c *Center) Success(message string) { c.push(LevelSuccess, message) }

// Info pushes an info-level notification.
func (c *Center) Info(message string) { c.push(LevelInfo, message) }

// Recent returns the retained notifications, newest last.
func (c *Center) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.recent))
	copy(out, c.recent)
	return out
}

// Subscribe registers a listener. The returned cancel function must be
// called to release it. Slow subscribers drop notifications.
func (c *Center) Subscribe() (<-chan Notification, func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	ch := make(chan Notification, 16)
	c.subs[id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if s, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(s)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Center) push(level Level, message string) {
	n := Notification{
		ID:        c.newID(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.recent = append(c.recent, n)
	if len(c.recent) > c.keep {
		c.recent = c.recent[len(c.recent)-c.keep:]
	}
	for _, ch := range c.subs {
		select {
		case ch <- n:
		default:
		}
	}
	c.mu.Unlock()

	c.logger.Debug("notify: pushed", "level", level, "message", message)
}
