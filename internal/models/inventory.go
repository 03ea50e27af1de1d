package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Classification struct {
	ID   int    `json:"classification_id"`
	Name string `json:"classification_name"`
}

type Vehicle struct {
	ID               int       `json:"inv_id"`
	Make             string    `json:"inv_make"`
	Model            string    `json:"inv_model"`
	Year             *int      `json:"inv_year,omitempty"`
	Description      string    `json:"inv_description"`
	Image            string    `json:"inv_image"`
	Thumbnail        string    `json:"inv_thumbnail"`
	Price            float64   `json:"inv_price"`
	Miles            *int      `json:"inv_miles,omitempty"`
	Color            string    `json:"inv_color"`
	Body             string    `json:"inv_body"`
	Transmission     string    `json:"inv_transmission"`
	ClassificationID int       `json:"classification_id"`
	CreatedAt        time.Time `json:"created_at"`

	ClassificationName string `json:"classification_name,omitempty"`
}

// Title is the "Make Model" heading used across views.
func (v *Vehicle) Title() string {
	return fmt.Sprintf("%s %s", v.Make, v.Model)
}

// ImagePath returns the full-size image path, falling back to the
// thumbnail with its _tn suffix removed, then to the placeholder.
func (v *Vehicle) ImagePath() string {
	return resolveImage(v.Image, thumbToFull(v.Thumbnail), "placeholder.jpg")
}

// ThumbnailPath returns the thumbnail image path or the placeholder thumbnail.
func (v *Vehicle) ThumbnailPath() string {
	if v.Thumbnail == "" {
		return "/images/site/placeholder-tn.jpg"
	}
	return resolveImage(v.Thumbnail, "", "")
}

var thumbSuffix = regexp.MustCompile(`(?i)_tn(\.[a-z]+)$`)

func thumbToFull(thumb string) string {
	if thumb == "" {
		return ""
	}
	return thumbSuffix.ReplaceAllString(thumb, "$1")
}

func resolveImage(candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if strings.HasPrefix(c, "/images") || strings.HasPrefix(c, "http://") || strings.HasPrefix(c, "https://") {
			return c
		}
		return "/images/vehicles/" + c
	}
	return "/images/vehicles/placeholder.jpg"
}

// VehicleRequest is the add/edit inventory form. Numeric fields are kept as
// text so sticky values can be re-rendered after a validation failure.
type VehicleRequest struct {
	ID               string `json:"inv_id"`
	ClassificationID string `json:"classification_id"`
	Make             string `json:"inv_make"`
	Model            string `json:"inv_model"`
	Description      string `json:"inv_description"`
	Image            string `json:"inv_image"`
	Thumbnail        string `json:"inv_thumbnail"`
	Price            string `json:"inv_price"`
	Year             string `json:"inv_year"`
	Miles            string `json:"inv_miles"`
	Color            string `json:"inv_color"`
	Body             string `json:"inv_body"`
	Transmission     string `json:"inv_transmission"`
}

// PriceText renders the price as "25,999.50".
func (v *Vehicle) PriceText() string {
	return FormatPrice(v.Price)
}

// MilesText renders mileage with thousands separators, or "" when unknown.
func (v *Vehicle) MilesText() string {
	if v.Miles == nil {
		return ""
	}
	return GroupThousands(*v.Miles)
}

func FormatPrice(p float64) string {
	whole := int(p)
	cents := int((p-float64(whole))*100 + 0.5)
	if cents == 100 {
		whole++
		cents = 0
	}
	return fmt.Sprintf("%s.%02d", GroupThousands(whole), cents)
}

func GroupThousands(n int) string {
	if n < 0 {
		return "-" + GroupThousands(-n)
	}
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
