package models

import (
	"encoding/json"
	"time"
)

// Product represents a product in the store.
type Product struct {
	ID            string         `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name          string         `json:"name" gorm:"type:varchar(100);not null;index" bson:"name"`
	Slug          string         `json:"slug" gorm:"type:varchar(120);not null;uniqueIndex" bson:"slug"`
	Description   string         `json:"description" gorm:"type:text;not null" bson:"description"`
	Price         float64        `json:"price" gorm:"not null" bson:"price"`
	DiscountPrice *float64       `json:"discountPrice" bson:"discountPrice"`
	CategoryID    string         `json:"categoryId" gorm:"type:varchar(36);not null;index" bson:"category"`
	Category      *Category      `json:"category,omitempty" gorm:"-" bson:"-"`
	UserID        string         `json:"user,omitempty" gorm:"type:varchar(36)" bson:"user,omitempty"`
	Sizes         []ProductSize  `json:"sizes" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" bson:"sizes"`
	Images        []ProductImage `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" bson:"images"`
	IsDeleted     bool           `json:"isDeleted" gorm:"not null;index" bson:"isDeleted"`
	DeletedAt     *time.Time     `json:"deletedAt,omitempty" bson:"deletedAt,omitempty"`
	IsActive      bool           `json:"isActive" gorm:"not null" bson:"isActive"`
	// Version is bumped by every write to the descriptive or deletion fields.
	Version       int            `json:"-" gorm:"not null;default:0" bson:"version"`
	CreatedAt     time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// ProductSize is the stock held for one size of a product.
type ProductSize struct {
	ID        uint   `json:"-" gorm:"primaryKey" bson:"-"`
	ProductID string `json:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_product_size" bson:"-"`
	Size      string `json:"size" gorm:"type:varchar(50);not null;uniqueIndex:idx_product_size" bson:"size"`
	Stock     int    `json:"stock" gorm:"not null" bson:"stock"`
	Position  int    `json:"-" gorm:"not null" bson:"-"`
}

// ProductImage references an uploaded product picture.
type ProductImage struct {
	ID        uint      `json:"-" gorm:"primaryKey" bson:"-"`
	ProductID string    `json:"-" gorm:"type:varchar(36);not null;index" bson:"-"`
	URL       string    `json:"url" gorm:"type:varchar(500);not null" bson:"url"`
	PublicID  string    `json:"publicId" gorm:"type:varchar(255)" bson:"publicId"`
	Position  int       `json:"-" gorm:"not null" bson:"-"`
	CreatedAt time.Time `json:"-" bson:"-"`
}

// CurrentPrice is the price a customer pays: the discount price when one is
// set and lower than the regular price.
func (p *Product) CurrentPrice() float64 {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 && *p.DiscountPrice < p.Price {
		return *p.DiscountPrice
	}
	return p.Price
}

// SizeStock returns the stock for size and whether the size exists.
func (p *Product) SizeStock(size string) (int, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock, true
		}
	}
	return 0, false
}

// MarshalJSON adds the derived currentPrice field.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	if p.Sizes == nil {
		p.Sizes = []ProductSize{}
	}
	if p.Images == nil {
		p.Images = []ProductImage{}
	}
	return json.Marshal(struct {
		product
		CurrentPrice float64 `json:"currentPrice"`
	}{product(p), p.CurrentPrice()})
}

// Clone returns a deep copy of p.
func (p *Product) Clone() *Product {
	c := *p
	if p.DiscountPrice != nil {
		d := *p.DiscountPrice
		c.DiscountPrice = &d
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		c.DeletedAt = &t
	}
	if p.Category != nil {
		cat := *p.Category
		c.Category = &cat
	}
	c.Sizes = append([]ProductSize(nil), p.Sizes...)
	c.Images = append([]ProductImage(nil), p.Images...)
	return &c
}
