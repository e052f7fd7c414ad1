package cart

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	AggregateType = "Cart"

	// MinQuantity is the smallest quantity a line item can hold. Only removal goes below it.
	MinQuantity = 1
)

var (
	ErrInvalidProduct   = errors.New("product id must be positive")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidPrice     = errors.New("unit price must not be negative")
	ErrQuantityFloor    = errors.New("quantity cannot drop below 1, remove the item instead")
	ErrQuantityTooLarge = errors.New("quantity is too large")
	ErrItemNotFound     = errors.New("item not in cart")
)

// LineItem is one product's entry in the cart.
type LineItem struct {
	ProductID   int             `json:"productId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// LineTotal is UnitPrice × Quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an ordered, product-keyed set of line items. All mutations are serialized by mu.
// Effective mutations are recorded to the activity log; the log is never read back.
type Cart struct {
	id string

	mu    sync.Mutex
	order []int
	items map[int]*LineItem

	events store.EventStoreInterface
	logger *zap.Logger
}

// New creates an empty cart. events may be nil.
func New(id string, events store.EventStoreInterface, logger *zap.Logger) *Cart {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cart{
		id:     id,
		items:  make(map[int]*LineItem),
		events: events,
		logger: logger.Named("cart").With(zap.String("cart_id", id)),
	}
}

// GetCartID returns the cart id for a visitor session
func GetCartID(sessionID string) string {
	return "cart-" + sessionID
}

func (c *Cart) ID() string { return c.id }

// AddItem appends item, or adds item.Quantity to an existing entry for the same product.
// A non-positive quantity counts as one.
func (c *Cart) AddItem(ctx context.Context, item LineItem) (LineItem, error) {
	if item.ProductID <= 0 {
		return LineItem{}, ErrInvalidProduct
	}
	if item.UnitPrice.IsNegative() {
		return LineItem{}, ErrInvalidPrice
	}
	if item.Quantity < MinQuantity {
		item.Quantity = MinQuantity
	}

	c.mu.Lock()
	existing, ok := c.items[item.ProductID]
	if ok {
		if existing.Quantity > math.MaxInt-item.Quantity {
			c.mu.Unlock()
			return LineItem{}, ErrQuantityTooLarge
		}
		old := existing.Quantity
		existing.Quantity += item.Quantity
		result := *existing
		c.mu.Unlock()

		c.record(ctx, EventItemQuantityChanged, ItemQuantityChanged{
			CartID:      c.id,
			ProductID:   item.ProductID,
			OldQuantity: old,
			NewQuantity: result.Quantity,
			ChangedAt:   time.Now(),
		})
		return result, nil
	}

	stored := item
	c.items[item.ProductID] = &stored
	c.order = append(c.order, item.ProductID)
	c.mu.Unlock()

	c.record(ctx, EventItemAdded, ItemAddedToCart{
		CartID:    c.id,
		ProductID: item.ProductID,
		Title:     item.Title,
		UnitPrice: item.UnitPrice,
		Quantity:  item.Quantity,
		AddedAt:   time.Now(),
	})
	return item, nil
}

// IncreaseQuantity replaces the stored quantity with item.Quantity. Callers pass current+1.
func (c *Cart) IncreaseQuantity(ctx context.Context, item LineItem) (LineItem, error) {
	return c.mutate(ctx, item.ProductID, func(int) (int, error) {
		if item.Quantity < MinQuantity {
			return 0, ErrInvalidQuantity
		}
		return item.Quantity, nil
	})
}

// DecreaseQuantity replaces the stored quantity with item.Quantity. Callers pass current-1.
// A target below MinQuantity is rejected and the cart is left unchanged.
func (c *Cart) DecreaseQuantity(ctx context.Context, item LineItem) (LineItem, error) {
	return c.mutate(ctx, item.ProductID, func(int) (int, error) {
		if item.Quantity < MinQuantity {
			return 0, ErrQuantityFloor
		}
		return item.Quantity, nil
	})
}

// Increment raises the stored quantity by one.
func (c *Cart) Increment(ctx context.Context, productID int) (LineItem, error) {
	return c.mutate(ctx, productID, func(current int) (int, error) {
		if current == math.MaxInt {
			return 0, ErrQuantityTooLarge
		}
		return current + 1, nil
	})
}

// Decrement lowers the stored quantity by one, refusing to go below MinQuantity.
func (c *Cart) Decrement(ctx context.Context, productID int) (LineItem, error) {
	return c.mutate(ctx, productID, func(current int) (int, error) {
		if current-1 < MinQuantity {
			return 0, ErrQuantityFloor
		}
		return current - 1, nil
	})
}

// DeleteProduct removes the entry for productID and reports whether one existed.
func (c *Cart) DeleteProduct(ctx context.Context, productID int) bool {
	c.mu.Lock()
	existing, ok := c.items[productID]
	if !ok {
		c.mu.Unlock()
		return false
	}
	quantity := existing.Quantity
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.record(ctx, EventItemRemoved, ItemRemovedFromCart{
		CartID:    c.id,
		ProductID: productID,
		Quantity:  quantity,
		RemovedAt: time.Now(),
	})
	return true
}

// Clear empties the cart and returns how many line items were dropped.
func (c *Cart) Clear(ctx context.Context) int {
	c.mu.Lock()
	n := len(c.order)
	c.items = make(map[int]*LineItem)
	c.order = nil
	c.mu.Unlock()

	if n > 0 {
		c.record(ctx, EventCartCleared, CartCleared{CartID: c.id, Items: n, ClearedAt: time.Now()})
	}
	return n
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]LineItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

// Get returns the line item for productID.
func (c *Cart) Get(productID int) (LineItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[productID]
	if !ok {
		return LineItem{}, false
	}
	return *item, true
}

// Total is the sum of all line totals, recomputed on every call.
func (c *Cart) Total() decimal.Decimal {
	return Total(c.Items())
}

// Count is the sum of quantities.
func (c *Cart) Count() int {
	count := 0
	for _, item := range c.Items() {
		count += item.Quantity
	}
	return count
}

// Total sums the line totals of items.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) mutate(ctx context.Context, productID int, next func(current int) (int, error)) (LineItem, error) {
	if productID <= 0 {
		return LineItem{}, ErrInvalidProduct
	}

	c.mu.Lock()
	existing, ok := c.items[productID]
	if !ok {
		c.mu.Unlock()
		return LineItem{}, ErrItemNotFound
	}
	old := existing.Quantity
	target, err := next(old)
	if err != nil {
		c.mu.Unlock()
		return LineItem{}, err
	}
	existing.Quantity = target
	result := *existing
	c.mu.Unlock()

	if target != old {
		c.record(ctx, EventItemQuantityChanged, ItemQuantityChanged{
			CartID:      c.id,
			ProductID:   productID,
			OldQuantity: old,
			NewQuantity: target,
			ChangedAt:   time.Now(),
		})
	}
	return result, nil
}

func (c *Cart) record(ctx context.Context, eventType string, data any) {
	if c.events == nil {
		return
	}
	if _, err := c.events.Append(ctx, c.id, AggregateType, eventType, data); err != nil {
		c.logger.Warn("failed to record cart activity", zap.String("event_type", eventType), zap.Error(err))
	}
}
