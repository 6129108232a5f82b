package models

import "time"

type Listing struct {
	ID          string   `gorm:"type:varchar(36);primaryKey" json:"id"`
	SellerID    string   `gorm:"type:varchar(64);not null;index" json:"seller_id"`
	Title       string   `gorm:"type:varchar(100);not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Price       float64  `gorm:"type:decimal(12,2);not null" json:"price"`
	Category    Category `gorm:"type:varchar(20);not null;index" json:"category"`

	// ContactCipher is the encrypted contact blob; it never leaves the service.
	ContactCipher string `gorm:"type:text;not null" json:"-"`

	Status ListingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;index:idx_listings_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Images []ListingImage `gorm:"foreignKey:ListingID;references:ID" json:"images,omitempty"`
}

// TableName はテーブル名を明示的に指定
func (Listing) TableName() string {
	return "listings"
}

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	StatusPending   ListingStatus = "pending"
	StatusAvailable ListingStatus = "available"
	StatusSold      ListingStatus = "sold"
	StatusRemoved   ListingStatus = "removed"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ListingStatus{StatusPending, StatusAvailable, StatusSold, StatusRemoved}

// transitions holds every edge of the listing state machine. Nothing leaves sold or removed.
var transitions = map[ListingStatus][]ListingStatus{
	StatusPending:   {StatusAvailable, StatusRemoved},
	StatusAvailable: {StatusSold, StatusRemoved},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to ListingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s ListingStatus) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges.
func (s ListingStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Category is the closed set of listing categories.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryOther       Category = "other"
)

var AllCategories = []Category{CategoryElectronics, CategoryClothing, CategoryBooks, CategoryOther}

func (c Category) Valid() bool {
	for _, v := range AllCategories {
		if v == c {
			return true
		}
	}
	return false
}

// MainImage returns the image with the lowest display order, or "".
func (l *Listing) MainImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	best := l.Images[0]
	for _, img := range l.Images[1:] {
		if img.DisplayOrder < best.DisplayOrder {
			best = img
		}
	}
	return best.ImageURL
}

// IsAvailable reports whether buyers may contact the seller.
func (l *Listing) IsAvailable() bool {
	return l.Status == StatusAvailable
}

// UnavailableReason is the caller-facing explanation of why a listing in status s cannot be
// contacted or edited.
func (s ListingStatus) UnavailableReason() string {
	switch s {
	case StatusPending:
		return "this listing is still awaiting review"
	case StatusSold:
		return "this listing has already been sold"
	case StatusRemoved:
		return "this listing has been removed"
	}
	return "this listing is not available"
}
