package readmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineReadModel is one cart row as rendered by the cart view
type CartLineReadModel struct {
	ProductID   int             `json:"productId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	CanDecrease bool            `json:"canDecrease"`
}

// CartReadModel is the read model for a visitor's cart
type CartReadModel struct {
	ID    string              `json:"id"`
	Items []CartLineReadModel `json:"items"`
	Total decimal.Decimal     `json:"total"`
	Count int                 `json:"count"`
}

// ProductPopularityReadModel aggregates storefront activity per remote product id
type ProductPopularityReadModel struct {
	ProductID        string    `json:"productId"`
	Title            string    `json:"title,omitempty"`
	TimesAdded       int       `json:"timesAdded"`
	UnitsAdded       int       `json:"unitsAdded"`
	TimesRemoved     int       `json:"timesRemoved"`
	AdminSubmissions int       `json:"adminSubmissions"`
	Deleted          bool      `json:"deleted,omitempty"`
	LastActivityAt   time.Time `json:"lastActivityAt"`
}

const CollectionPopularity = "popularity"
