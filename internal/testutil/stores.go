// Package testutil provides in-memory stores and recorders for service,
// realtime and handler tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/repositories"
)

// Clock hands out strictly increasing timestamps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// Accounts is an in-memory AccountStore.
type Accounts struct {
	mu     sync.Mutex
	clock  *Clock
	nextID int
	rows   map[int]*models.Account
}

func NewAccounts() *Accounts {
	return &Accounts{clock: NewClock(), rows: map[int]*models.Account{}}
}

// Add stores an account directly and returns it with its id assigned.
func (s *Accounts) Add(first, last, email string, role models.Role) *models.Account {
	a := &models.Account{FirstName: first, LastName: last, Email: email, Role: role}
	_ = s.Create(context.Background(), a)
	return a
}

func (s *Accounts) Create(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if strings.EqualFold(existing.Email, a.Email) {
			return repositories.ErrDuplicate
		}
	}
	s.nextID++
	a.ID = s.nextID
	if a.Role == "" {
		a.Role = models.RoleClient
	}
	a.CreatedAt = s.clock.Next()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.rows[a.ID] = &cp
	return nil
}

func (s *Accounts) GetByID(_ context.Context, id int) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Accounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.rows {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Accounts) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.GetByEmail(ctx, email)
	return err == nil, nil
}

func (s *Accounts) UpdateInfo(_ context.Context, id int, first, last, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for _, other := range s.rows {
		if other.ID != id && strings.EqualFold(other.Email, email) {
			return nil, repositories.ErrDuplicate
		}
	}
	a.FirstName, a.LastName, a.Email = first, last, strings.ToLower(email)
	a.UpdatedAt = s.clock.Next()
	cp := *a
	return &cp, nil
}

func (s *Accounts) update(id int, fn func(a *models.Account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(a)
	a.UpdatedAt = s.clock.Next()
	return nil
}

func (s *Accounts) UpdatePassword(_ context.Context, id int, hash string) error {
	return s.update(id, func(a *models.Account) { a.PasswordHash = hash })
}

func (s *Accounts) SetRole(_ context.Context, id int, role models.Role) error {
	return s.update(id, func(a *models.Account) { a.Role = role })
}

func (s *Accounts) RecordLogin(_ context.Context, id int) error {
	now := time.Now().UTC()
	return s.update(id, func(a *models.Account) { a.LastLoginAt = &now })
}

func (s *Accounts) SetTOTPSecret(_ context.Context, id int, secret string) error {
	return s.update(id, func(a *models.Account) { a.TOTPSecret, a.TOTPEnabled = secret, false })
}

func (s *Accounts) EnableTOTP(_ context.Context, id int) error {
	return s.update(id, func(a *models.Account) { a.TOTPEnabled = true })
}

func (s *Accounts) DisableTOTP(_ context.Context, id int) error {
	return s.update(id, func(a *models.Account) { a.TOTPSecret, a.TOTPEnabled = "", false })
}

func (s *Accounts) ListByRoles(_ context.Context, roles []models.Role) ([]models.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Recipient{}
	for _, a := range s.rows {
		if a.Role.In(roles...) {
			out = append(out, models.Recipient{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Role: a.Role})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	return out, nil
}

func (s *Accounts) ListAll(_ context.Context) ([]*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Account, 0, len(s.rows))
	for _, a := range s.rows {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Messages is an in-memory MessageStore joined against an Accounts store.
type Messages struct {
	mu       sync.Mutex
	clock    *Clock
	accounts *Accounts
	nextID   int
	rows     map[int]*models.Message

	// CreateCalls counts successful and failed inserts.
	CreateCalls int
}

func NewMessages(accounts *Accounts) *Messages {
	return &Messages{clock: NewClock(), accounts: accounts, rows: map[int]*models.Message{}}
}

func (s *Messages) Create(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	s.nextID++
	m.ID = s.nextID
	m.IsRead = false
	m.CreatedAt = s.clock.Next()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	s.rows[m.ID] = &cp
	return nil
}

func (s *Messages) join(m *models.Message) *models.Message {
	cp := *m
	if s.accounts != nil {
		if a, err := s.accounts.GetByID(context.Background(), m.SenderID); err == nil {
			cp.SenderFirst, cp.SenderLast = a.FirstName, a.LastName
		}
		if a, err := s.accounts.GetByID(context.Background(), m.RecipientID); err == nil {
			cp.RecipientFirst, cp.RecipientLast = a.FirstName, a.LastName
		}
	}
	return &cp
}

func (s *Messages) list(keep func(*models.Message) bool) []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Message{}
	for _, m := range s.rows {
		if keep(m) {
			out = append(out, s.join(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Messages) ListInbox(_ context.Context, accountID int) ([]*models.Message, error) {
	return s.list(func(m *models.Message) bool { return m.RecipientID == accountID }), nil
}

func (s *Messages) ListOutbox(_ context.Context, accountID int) ([]*models.Message, error) {
	return s.list(func(m *models.Message) bool { return m.SenderID == accountID }), nil
}

func (s *Messages) CountUnread(_ context.Context, accountID int) (int, error) {
	return len(s.list(func(m *models.Message) bool { return m.RecipientID == accountID && !m.IsRead })), nil
}

func (s *Messages) GetByID(_ context.Context, id int) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s.join(m), nil
}

func (s *Messages) SetRead(_ context.Context, id int, isRead bool) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	m.IsRead = isRead
	m.UpdatedAt = s.clock.Next()
	cp := *m
	return &cp, nil
}

func (s *Messages) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

// Len reports how many messages are stored.
func (s *Messages) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
