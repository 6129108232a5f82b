package listing

import (
	"math"
	"strings"
	"unicode/utf8"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/models"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
	MaxContactLen     = 200
	MaxImages         = 9
	MaxImageRefLen    = 2048
)

func cleanTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(s) > MaxTitleLen {
		return "", apperr.Validation("title must be at most %d characters", MaxTitleLen)
	}
	return s, nil
}

// cleanDescription keeps the text exactly as submitted; only its length is checked.
func cleanDescription(s string) (string, error) {
	if utf8.RuneCountInString(s) > MaxDescriptionLen {
		return "", apperr.Validation("description must be at most %d characters", MaxDescriptionLen)
	}
	return s, nil
}

func checkPrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return apperr.Validation("price must be a finite number")
	}
	if p < 0 {
		return apperr.Validation("price must not be negative")
	}
	return nil
}

func checkCategory(c string) (models.Category, error) {
	cat := models.Category(strings.TrimSpace(c))
	if !cat.Valid() {
		return "", apperr.Validation("category must be one of electronics, clothing, books, other")
	}
	return cat, nil
}

func cleanContact(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("contact information is required")
	}
	if utf8.RuneCountInString(s) > MaxContactLen {
		return "", apperr.Validation("contact information must be at most %d characters", MaxContactLen)
	}
	return s, nil
}

func cleanImages(refs []string) ([]models.ListingImage, error) {
	if len(refs) == 0 {
		return nil, apperr.Validation("at least one image is required")
	}
	if len(refs) > MaxImages {
		return nil, apperr.Validation("at most %d images are allowed", MaxImages)
	}
	images := make([]models.ListingImage, 0, len(refs))
	for i, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return nil, apperr.Validation("image %d is empty", i+1)
		}
		if len(ref) > MaxImageRefLen {
			return nil, apperr.Validation("image %d reference is too long", i+1)
		}
		images = append(images, models.ListingImage{ImageURL: ref, DisplayOrder: i})
	}
	return images, nil
}
