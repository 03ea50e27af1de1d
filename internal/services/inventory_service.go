package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgeemedia/cse340-backend/internal/models"
)

const (
	MsgClassificationName   = "Classification name may not contain spaces or special characters."
	MsgClassificationExists = "That classification already exists."
	MsgUploadsDisabled      = "Image uploads are not configured."
	MsgUnsupportedImage     = "Images must be JPEG, PNG or WebP."

	MaxImageBytes = 5 << 20
)

var classificationPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type InventoryService struct {
	inventory InventoryStore
	nav       NavCache
	images    ImageStore
}

// NewInventoryService wires the store with an optional nav cache and image
// store. Either may be nil.
func NewInventoryService(inventory InventoryStore, nav NavCache, images ImageStore) *InventoryService {
	return &InventoryService{
		inventory: inventory,
		nav:       nav,
		images:    images,
	}
}

// Classifications returns the nav list, served from cache when possible.
func (s *InventoryService) Classifications(ctx context.Context) ([]models.Classification, error) {
	if s.nav != nil {
		if classes, ok := s.nav.GetClassifications(ctx); ok {
			return classes, nil
		}
	}
	classes, err := s.inventory.ListClassifications(ctx)
	if err != nil {
		return nil, err
	}
	if s.nav != nil {
		s.nav.SetClassifications(ctx, classes)
	}
	return classes, nil
}

func (s *InventoryService) AddClassification(ctx context.Context, name string) (*models.Classification, error) {
	name = strings.TrimSpace(name)
	if !classificationPattern.MatchString(name) {
		return nil, invalid(MsgClassificationName)
	}
	class, err := s.inventory.CreateClassification(ctx, name)
	if err != nil {
		if errors.Is(storeErr(err), ErrDuplicate) {
			return nil, invalid(MsgClassificationExists)
		}
		return nil, err
	}
	if s.nav != nil {
		s.nav.InvalidateClassifications(ctx)
	}
	return class, nil
}

func (s *InventoryService) ByClassification(ctx context.Context, classificationID int) ([]*models.Vehicle, error) {
	return s.inventory.ListByClassification(ctx, classificationID)
}

func (s *InventoryService) ListAll(ctx context.Context) ([]*models.Vehicle, error) {
	return s.inventory.ListAll(ctx)
}

// Recent returns up to n vehicles, newest first.
func (s *InventoryService) Recent(ctx context.Context, n int) ([]*models.Vehicle, error) {
	all, err := s.inventory.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (s *InventoryService) Get(ctx context.Context, id int) (*models.Vehicle, error) {
	v, err := s.inventory.GetByID(ctx, id)
	return v, storeErr(err)
}

func (s *InventoryService) Add(ctx context.Context, req models.VehicleRequest) (*models.Vehicle, error) {
	v, err := parseVehicle(req)
	if err != nil {
		return nil, err
	}
	if err := s.inventory.Create(ctx, v); err != nil {
		return nil, storeErr(err)
	}
	return v, nil
}

func (s *InventoryService) Update(ctx context.Context, req models.VehicleRequest) (*models.Vehicle, error) {
	id, ok := parseID(req.ID)
	if !ok {
		return nil, ErrNotFound
	}
	v, err := parseVehicle(req)
	if err != nil {
		return nil, err
	}
	v.ID = id
	if err := s.inventory.Update(ctx, v); err != nil {
		return nil, storeErr(err)
	}
	return v, nil
}

func (s *InventoryService) Delete(ctx context.Context, id int) error {
	return storeErr(s.inventory.Delete(ctx, id))
}

// UploadsEnabled reports whether an image store is configured.
func (s *InventoryService) UploadsEnabled() bool {
	return s.images != nil
}

// UploadImage stores an image and returns its public URL.
func (s *InventoryService) UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if s.images == nil {
		return "", invalid(MsgUploadsDisabled)
	}
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", invalid(MsgUnsupportedImage)
	}
	if len(data) == 0 || len(data) > MaxImageBytes {
		return "", invalid(fmt.Sprintf("Images must be between 1 byte and %d MB.", MaxImageBytes>>20))
	}
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	return s.images.Put(ctx, base+ext, contentType, data)
}

// parseVehicle validates the add/edit form. All failures are reported
// together so the form can show them at once.
func parseVehicle(req models.VehicleRequest) (*models.Vehicle, error) {
	var messages []string
	v := &models.Vehicle{
		Make:         strings.TrimSpace(req.Make),
		Model:        strings.TrimSpace(req.Model),
		Description:  strings.TrimSpace(req.Description),
		Image:        strings.TrimSpace(req.Image),
		Thumbnail:    strings.TrimSpace(req.Thumbnail),
		Color:        strings.TrimSpace(req.Color),
		Body:         strings.TrimSpace(req.Body),
		Transmission: strings.TrimSpace(req.Transmission),
	}

	if id, ok := parseID(req.ClassificationID); ok {
		v.ClassificationID = id
	} else {
		messages = append(messages, "Classification is required")
	}
	if v.Make == "" {
		messages = append(messages, "Make is required")
	}
	if v.Model == "" {
		messages = append(messages, "Model is required")
	}

	price := strings.TrimSpace(req.Price)
	if price == "" {
		messages = append(messages, "Price is required")
	} else if p, err := strconv.ParseFloat(price, 64); err != nil || p <= 0 {
		messages = append(messages, "Price must be a number greater than 0")
	} else {
		v.Price = p
	}

	if year := strings.TrimSpace(req.Year); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil || y < 1900 || y > 2099 {
			messages = append(messages, "Year must be a valid year")
		} else {
			v.Year = &y
		}
	}

	if miles := strings.TrimSpace(req.Miles); miles != "" {
		m, err := strconv.Atoi(strings.ReplaceAll(miles, ",", ""))
		if err != nil || m < 0 {
			messages = append(messages, "Mileage must be numeric")
		} else {
			v.Miles = &m
		}
	}

	if len(messages) > 0 {
		return nil, invalid(messages...)
	}
	return v, nil
}
