package testutil

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/repositories"
)

// Inventory is an in-memory InventoryStore.
type Inventory struct {
	mu      sync.Mutex
	clock   *Clock
	nextID  int
	nextCls int
	classes map[int]models.Classification
	rows    map[int]*models.Vehicle

	ListClassificationsCalls int
}

func NewInventory() *Inventory {
	return &Inventory{clock: NewClock(), classes: map[int]models.Classification{}, rows: map[int]*models.Vehicle{}}
}

// AddVehicle stores a vehicle in a new or existing classification.
func (s *Inventory) AddVehicle(vehicleMake, model string, price float64) *models.Vehicle {
	ctx := context.Background()
	classes, _ := s.ListClassifications(ctx)
	var classID int
	if len(classes) == 0 {
		c, _ := s.CreateClassification(ctx, "Sedan")
		classID = c.ID
	} else {
		classID = classes[0].ID
	}
	v := &models.Vehicle{Make: vehicleMake, Model: model, Price: price, ClassificationID: classID}
	_ = s.Create(ctx, v)
	return v
}

func (s *Inventory) ListClassifications(_ context.Context) ([]models.Classification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListClassificationsCalls++
	out := []models.Classification{}
	for _, c := range s.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Inventory) CreateClassification(_ context.Context, name string) (*models.Classification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.classes {
		if c.Name == name {
			return nil, repositories.ErrDuplicate
		}
	}
	s.nextCls++
	c := models.Classification{ID: s.nextCls, Name: name}
	s.classes[c.ID] = c
	return &c, nil
}

func (s *Inventory) ListByClassification(_ context.Context, classificationID int) ([]*models.Vehicle, error) {
	return s.list(func(v *models.Vehicle) bool { return v.ClassificationID == classificationID }), nil
}

func (s *Inventory) ListAll(_ context.Context) ([]*models.Vehicle, error) {
	return s.list(func(*models.Vehicle) bool { return true }), nil
}

func (s *Inventory) list(keep func(*models.Vehicle) bool) []*models.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Vehicle{}
	for _, v := range s.rows {
		if keep(v) {
			cp := *v
			cp.ClassificationName = s.classes[v.ClassificationID].Name
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Inventory) GetByID(_ context.Context, id int) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *v
	cp.ClassificationName = s.classes[v.ClassificationID].Name
	return &cp, nil
}

func (s *Inventory) Exists(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[id]
	return ok, nil
}

func (s *Inventory) Create(_ context.Context, v *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	v.ID = s.nextID
	v.CreatedAt = s.clock.Next()
	cp := *v
	s.rows[v.ID] = &cp
	return nil
}

func (s *Inventory) Update(_ context.Context, v *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[v.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	cp := *v
	cp.CreatedAt = existing.CreatedAt
	s.rows[v.ID] = &cp
	return nil
}

func (s *Inventory) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// Reviews is an in-memory ReviewStore joined against accounts and inventory.
type Reviews struct {
	mu        sync.Mutex
	clock     *Clock
	accounts  *Accounts
	inventory *Inventory
	replies   *Replies
	nextID    int
	rows      map[int]*models.Review
}

func NewReviews(accounts *Accounts, inventory *Inventory) *Reviews {
	return &Reviews{clock: NewClock(), accounts: accounts, inventory: inventory, rows: map[int]*models.Review{}}
}

func (s *Reviews) join(rv *models.Review) *models.Review {
	cp := *rv
	cp.Replies = nil
	if a, err := s.accounts.GetByID(context.Background(), rv.AccountID); err == nil {
		cp.AuthorFirst, cp.AuthorLast, cp.AuthorRole = a.FirstName, a.LastName, a.Role
	}
	if s.inventory != nil {
		if v, err := s.inventory.GetByID(context.Background(), rv.InventoryID); err == nil {
			cp.VehicleMake, cp.VehicleModel = v.Make, v.Model
		}
	}
	return &cp
}

func (s *Reviews) Create(_ context.Context, rv *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rv.ID = s.nextID
	rv.CreatedAt = s.clock.Next()
	rv.UpdatedAt = rv.CreatedAt
	cp := *rv
	s.rows[rv.ID] = &cp
	return nil
}

func (s *Reviews) filtered(keep func(*models.Review) bool) []*models.Review {
	out := []*models.Review{}
	for _, rv := range s.rows {
		if keep(rv) {
			out = append(out, s.join(rv))
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

func (s *Reviews) ListByInventory(_ context.Context, invID, limit, offset int) ([]*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filtered(func(rv *models.Review) bool { return rv.InventoryID == invID })
	if offset >= len(all) {
		return []*models.Review{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Reviews) CountByInventory(_ context.Context, invID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered(func(rv *models.Review) bool { return rv.InventoryID == invID })), nil
}

func (s *Reviews) Summary(_ context.Context, invID int) (models.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum, n int
	for _, rv := range s.rows {
		if rv.InventoryID == invID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return models.RatingSummary{}, nil
	}
	avg := math.Round(float64(sum)/float64(n)*100) / 100
	return models.RatingSummary{Average: avg, Count: n}, nil
}

func (s *Reviews) GetByID(_ context.Context, id int) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s.join(rv), nil
}

func (s *Reviews) ListByAccount(_ context.Context, accountID int) ([]*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filtered(func(rv *models.Review) bool { return rv.AccountID == accountID }), nil
}

func (s *Reviews) Update(_ context.Context, id, rating int, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	rv.Rating, rv.Comment = rating, comment
	rv.UpdatedAt = s.clock.Next()
	return nil
}

func (s *Reviews) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	if _, ok := s.rows[id]; !ok {
		s.mu.Unlock()
		return repositories.ErrNotFound
	}
	delete(s.rows, id)
	replies := s.replies
	s.mu.Unlock()

	if replies != nil {
		replies.deleteForReview(id)
	}
	return nil
}

// Replies is an in-memory ReplyStore.
type Replies struct {
	mu       sync.Mutex
	clock    *Clock
	accounts *Accounts
	nextID   int
	rows     map[int]*models.ReviewReply
}

// NewReplies links the reply store to reviews so deletes cascade.
func NewReplies(accounts *Accounts, reviews *Reviews) *Replies {
	r := &Replies{clock: NewClock(), accounts: accounts, rows: map[int]*models.ReviewReply{}}
	if reviews != nil {
		reviews.replies = r
	}
	return r
}

func (s *Replies) Create(_ context.Context, rp *models.ReviewReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rp.ID = s.nextID
	rp.CreatedAt = s.clock.Next()
	cp := *rp
	s.rows[rp.ID] = &cp
	return nil
}

func (s *Replies) join(rp *models.ReviewReply) *models.ReviewReply {
	cp := *rp
	if a, err := s.accounts.GetByID(context.Background(), rp.AccountID); err == nil {
		cp.AuthorFirst, cp.AuthorLast, cp.AuthorRole = a.FirstName, a.LastName, a.Role
	}
	return &cp
}

func (s *Replies) GetByID(_ context.Context, id int) (*models.ReviewReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rp, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s.join(rp), nil
}

func (s *Replies) ListByReviews(_ context.Context, reviewIDs []int) ([]*models.ReviewReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[int]bool{}
	for _, id := range reviewIDs {
		want[id] = true
	}
	out := []*models.ReviewReply{}
	for _, rp := range s.rows {
		if want[rp.ReviewID] {
			out = append(out, s.join(rp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Replies) deleteForReview(reviewID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rp := range s.rows {
		if rp.ReviewID == reviewID {
			delete(s.rows, id)
		}
	}
}

// Len reports how many replies are stored.
func (s *Replies) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
