package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/models"
)

// Notification is one recorded Notify call.
type Notification struct {
	AccountID int
	Event     string
	Payload   any
}

// Notifier records every Notify call and can be told to fail.
type Notifier struct {
	mu    sync.Mutex
	calls []Notification
	Err   error
}

var ErrNotifierDown = errors.New("notifier unavailable")

func (n *Notifier) Notify(_ context.Context, accountID int, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, Notification{AccountID: accountID, Event: event, Payload: payload})
	return n.Err
}

func (n *Notifier) Calls() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.calls...)
}

// Limiter is an in-memory AttemptLimiter that ignores the window.
type Limiter struct {
	mu       sync.Mutex
	failures map[string]int
}

func NewLimiter() *Limiter {
	return &Limiter{failures: map[string]int{}}
}

func (l *Limiter) Failures(_ context.Context, key string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[key], nil
}

func (l *Limiter) RecordFailure(_ context.Context, key string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[key]++
	return nil
}

func (l *Limiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
	return nil
}

// NavCache is an in-memory services.NavCache.
type NavCache struct {
	mu      sync.Mutex
	classes []models.Classification
	ok      bool
}

func (c *NavCache) GetClassifications(context.Context) ([]models.Classification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classes, c.ok
}

func (c *NavCache) SetClassifications(_ context.Context, classes []models.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classes, c.ok = classes, true
}

func (c *NavCache) InvalidateClassifications(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classes, c.ok = nil, false
}

// Images is an in-memory services.ImageStore.
type Images struct {
	mu    sync.Mutex
	Saved map[string][]byte
}

func (s *Images) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Saved == nil {
		s.Saved = map[string][]byte{}
	}
	s.Saved[name] = data
	return "https://images.test/" + name, nil
}
