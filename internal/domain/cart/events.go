package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventItemAdded           = "ItemAddedToCart"
	EventItemQuantityChanged = "ItemQuantityChanged"
	EventItemRemoved         = "ItemRemovedFromCart"
	EventCartCleared         = "CartCleared"
)

type ItemAddedToCart struct {
	CartID    string          `json:"cart_id"`
	ProductID int             `json:"product_id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

type ItemQuantityChanged struct {
	CartID      string    `json:"cart_id"`
	ProductID   int       `json:"product_id"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	ChangedAt   time.Time `json:"changed_at"`
}

type ItemRemovedFromCart struct {
	CartID    string    `json:"cart_id"`
	ProductID int       `json:"product_id"`
	Quantity  int       `json:"quantity"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	CartID    string    `json:"cart_id"`
	Items     int       `json:"items"`
	ClearedAt time.Time `json:"cleared_at"`
}
