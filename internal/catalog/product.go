package catalog

import (
	"github.com/shopspring/decimal"
)

// Product mirrors a remote catalog product record. Fields the storefront never reads are not decoded.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Tags        []string        `json:"tags"`
	Brand       string          `json:"brand"`
	SKU         string          `json:"sku"`
	Images      []string        `json:"images"`
	Thumbnail   string          `json:"thumbnail"`
}

// ProductPage is the envelope returned by GET /products
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

const (
	defaultBrand       = "Unknown Brand"
	defaultCategory    = "Unknown Category"
	defaultDescription = "No description available"
	defaultImage       = "/default-thumbnail.jpg"
	defaultTitle       = "No title"
)

var oldPriceMarkup = decimal.NewFromFloat(1.2)

// ListingProduct is a product as shown on the storefront listing
type ListingProduct struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	OldPrice    decimal.Decimal `json:"oldPrice"`
	IsNew       bool            `json:"isNew"`
}

// ToListing fills in display defaults for missing fields and derives the struck-through old price.
func ToListing(p Product) ListingProduct {
	l := ListingProduct{
		ID:          p.ID,
		Title:       orDefault(p.Title, defaultTitle),
		Description: orDefault(p.Description, defaultDescription),
		Brand:       orDefault(p.Brand, defaultBrand),
		Category:    orDefault(p.Category, defaultCategory),
		Image:       orDefault(p.Thumbnail, defaultImage),
		Price:       p.Price,
	}
	if !p.Price.IsZero() {
		l.OldPrice = p.Price.Mul(oldPriceMarkup)
	}
	return l
}

// ToListings maps a page of remote products in order.
func ToListings(products []Product) []ListingProduct {
	out := make([]ListingProduct, len(products))
	for i, p := range products {
		out[i] = ToListing(p)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
