package cart

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/example/storefront/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCart() (*Cart, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	return New("cart-test", eventStore, zap.NewNop()), eventStore
}

func item(id int, price string, qty int) LineItem {
	return LineItem{
		ProductID: id,
		Title:     "product",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func seed(t *testing.T, c *Cart, items ...LineItem) {
	t.Helper()
	for _, it := range items {
		_, err := c.AddItem(context.Background(), it)
		require.NoError(t, err)
	}
}

// ============================================
// GetCartID Tests
// ============================================

func TestGetCartID(t *testing.T) {
	assert.Equal(t, "cart-abc", GetCartID("abc"))
	assert.Equal(t, "cart-", GetCartID(""))
}

// ============================================
// AddItem Tests
// ============================================

func TestCart_AddItem_New(t *testing.T) {
	c, eventStore := newTestCart()

	got, err := c.AddItem(context.Background(), item(1, "10", 0))

	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, []string{EventItemAdded}, eventStore.EventTypes())

	data := eventStore.Calls()[0].Data.(ItemAddedToCart)
	assert.Equal(t, "cart-test", data.CartID)
	assert.Equal(t, 1, data.ProductID)
}

func TestCart_AddItem_ExistingAccumulates(t *testing.T) {
	c, eventStore := newTestCart()
	seed(t, c, item(1, "10", 2))

	got, err := c.AddItem(context.Background(), item(1, "10", 3))

	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
	assert.Len(t, c.Items(), 1)
	assert.Equal(t, []string{EventItemAdded, EventItemQuantityChanged}, eventStore.EventTypes())
}

func TestCart_AddItem_Validation(t *testing.T) {
	c, eventStore := newTestCart()

	_, err := c.AddItem(context.Background(), item(0, "10", 1))
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = c.AddItem(context.Background(), item(1, "-1", 1))
	assert.ErrorIs(t, err, ErrInvalidPrice)

	assert.Empty(t, c.Items())
	assert.Empty(t, eventStore.Calls())
}

func TestCart_AddItem_Overflow(t *testing.T) {
	c, eventStore := newTestCart()
	seed(t, c, item(1, "10", math.MaxInt))
	eventStore.Reset()

	_, err := c.AddItem(context.Background(), item(1, "10", 5))

	assert.ErrorIs(t, err, ErrQuantityTooLarge)
	got, _ := c.Get(1)
	assert.Equal(t, math.MaxInt, got.Quantity)
	assert.True(t, c.Total().IsPositive())
	assert.Empty(t, eventStore.Calls())
}

func TestCart_AddItem_PreservesInsertionOrder(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(3, "1", 1), item(1, "1", 1), item(2, "1", 1))

	ids := []int{}
	for _, it := range c.Items() {
		ids = append(ids, it.ProductID)
	}
	assert.Equal(t, []int{3, 1, 2}, ids)
}

// ============================================
// IncreaseQuantity Tests
// ============================================

func TestCart_IncreaseQuantity_ReplacesWithTarget(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(1, "10", 2))
	current, _ := c.Get(1)

	got, err := c.IncreaseQuantity(context.Background(), LineItem{ProductID: 1, Quantity: current.Quantity + 1})

	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
}

func TestCart_IncreaseQuantity_StaleSnapshotDoesNotAccumulate(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(1, "10", 2))
	snapshot, _ := c.Get(1)

	target := snapshot
	target.Quantity = snapshot.Quantity + 1
	for i := 0; i < 3; i++ {
		_, err := c.IncreaseQuantity(context.Background(), target)
		require.NoError(t, err)
	}

	got, _ := c.Get(1)
	assert.Equal(t, 3, got.Quantity)
}

func TestCart_IncreaseQuantity_NoUpperBound(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(1, "1", 1))

	got, err := c.IncreaseQuantity(context.Background(), LineItem{ProductID: 1, Quantity: 1_000_000})

	require.NoError(t, err)
	assert.Equal(t, 1_000_000, got.Quantity)
}

func TestCart_IncreaseQuantity_Errors(t *testing.T) {
	c, eventStore := newTestCart()
	seed(t, c, item(1, "1", 1))
	eventStore.Reset()

	_, err := c.IncreaseQuantity(context.Background(), LineItem{ProductID: 2, Quantity: 2})
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = c.IncreaseQuantity(context.Background(), LineItem{ProductID: 1, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	assert.Empty(t, eventStore.Calls())
}

// ============================================
// DecreaseQuantity Tests
// ============================================

func TestCart_DecreaseQuantity_Scenario(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(1, "10", 2))

	got, err := c.DecreaseQuantity(context.Background(), LineItem{ProductID: 1, Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.True(t, got.LineTotal().Equal(decimal.NewFromInt(10)))
}

func TestCart_DecreaseQuantity_FloorRejected(t *testing.T) {
	c, eventStore := newTestCart()
	seed(t, c, item(1, "10", 1))
	eventStore.Reset()

	_, err := c.DecreaseQuantity(context.Background(), LineItem{ProductID: 1, Quantity: 0})

	assert.ErrorIs(t, err, ErrQuantityFloor)
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, got.Quantity)
	assert.Empty(t, eventStore.Calls())
}

func TestCart_DecreaseQuantity_NeverRemoves(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(1, "10", 5))

	for q := 5; q > 1; q-- {
		got, err := c.DecreaseQuantity(context.Background(), LineItem{ProductID: 1, Quantity: q - 1})
		require.NoError(t, err)
		assert.Equal(t, q-1, got.Quantity)
	}
	_, err := c.Decrement(context.Background(), 1)
	assert.ErrorIs(t, err, ErrQuantityFloor)
	assert.Len(t, c.Items(), 1)
}

// ============================================
// Increment / Decrement Tests
// ============================================

func TestCart_IncrementDecrement(t *testing.T) {
	c, eventStore := newTestCart()
	seed(t, c, item(1, "2.50", 1))

	got, err := c.Increment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)

	got, err = c.Decrement(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)

	_, err = c.Increment(context.Background(), 9)
	assert.ErrorIs(t, err, ErrItemNotFound)

	assert.Equal(t, []string{EventItemAdded, EventItemQuantityChanged, EventItemQuantityChanged}, eventStore.EventTypes())
}

func TestCart_Increment_Overflow(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(1, "1", 1))
	_, err := c.IncreaseQuantity(context.Background(), item(1, "1", math.MaxInt))
	require.NoError(t, err)

	_, err = c.Increment(context.Background(), 1)

	assert.ErrorIs(t, err, ErrQuantityTooLarge)
	got, _ := c.Get(1)
	assert.Equal(t, math.MaxInt, got.Quantity)
	assert.True(t, c.Total().IsPositive())
}

func TestCart_Increment_Concurrent(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(1, "1", 1))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Increment(context.Background(), 1)
		}()
	}
	wg.Wait()

	got, _ := c.Get(1)
	assert.Equal(t, 51, got.Quantity)
}

// ============================================
// DeleteProduct / Clear Tests
// ============================================

func TestCart_DeleteProduct(t *testing.T) {
	c, eventStore := newTestCart()
	seed(t, c, item(1, "1", 1), item(2, "1", 1), item(3, "1", 1))

	assert.True(t, c.DeleteProduct(context.Background(), 2))

	ids := []int{}
	for _, it := range c.Items() {
		ids = append(ids, it.ProductID)
	}
	assert.Equal(t, []int{1, 3}, ids)
	assert.Equal(t, EventItemRemoved, eventStore.EventTypes()[3])
}

func TestCart_DeleteProduct_AbsentIsNoop(t *testing.T) {
	c, eventStore := newTestCart()
	seed(t, c, item(1, "3", 2))
	before := c.Items()
	eventStore.Reset()

	assert.False(t, c.DeleteProduct(context.Background(), 42))

	assert.Equal(t, before, c.Items())
	assert.Empty(t, eventStore.Calls())
}

func TestCart_Clear(t *testing.T) {
	c, eventStore := newTestCart()
	seed(t, c, item(1, "1", 1), item(2, "1", 1))

	assert.Equal(t, 2, c.Clear(context.Background()))
	assert.Empty(t, c.Items())
	assert.Equal(t, 0, c.Clear(context.Background()))
	assert.Equal(t, []string{EventItemAdded, EventItemAdded, EventCartCleared}, eventStore.EventTypes())
}

// ============================================
// Derived Values Tests
// ============================================

func TestCart_TotalAndCount(t *testing.T) {
	c, _ := newTestCart()
	seed(t, c, item(1, "9.99", 3), item(2, "0.01", 1), item(3, "100", 2))

	assert.Equal(t, "229.98", c.Total().String())
	assert.Equal(t, 6, c.Count())
}

func TestCart_EmptyTotal(t *testing.T) {
	c, _ := newTestCart()

	assert.True(t, c.Total().IsZero())
	assert.Equal(t, 0, c.Count())
}

func TestCart_TotalMatchesSumAfterRandomOperations(t *testing.T) {
	c, _ := newTestCart()
	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()

	for step := 0; step < 500; step++ {
		id := rng.Intn(6) + 1
		switch rng.Intn(4) {
		case 0:
			_, _ = c.AddItem(ctx, item(id, decimal.NewFromInt(int64(rng.Intn(50))).Div(decimal.NewFromInt(4)).String(), rng.Intn(3)))
		case 1:
			if cur, ok := c.Get(id); ok {
				_, err := c.IncreaseQuantity(ctx, LineItem{ProductID: id, Quantity: cur.Quantity + 1})
				require.NoError(t, err)
			}
		case 2:
			if cur, ok := c.Get(id); ok {
				_, err := c.DecreaseQuantity(ctx, LineItem{ProductID: id, Quantity: cur.Quantity - 1})
				if cur.Quantity == 1 {
					require.ErrorIs(t, err, ErrQuantityFloor)
				} else {
					require.NoError(t, err)
				}
			}
		case 3:
			c.DeleteProduct(ctx, id)
		}

		expected := decimal.Zero
		seen := map[int]bool{}
		for _, it := range c.Items() {
			require.False(t, seen[it.ProductID], "duplicate product %d", it.ProductID)
			seen[it.ProductID] = true
			require.GreaterOrEqual(t, it.Quantity, MinQuantity)
			expected = expected.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		require.True(t, expected.Equal(c.Total()), "step %d: expected %s, got %s", step, expected, c.Total())
	}
}

// ============================================
// Activity Log Failure Tests
// ============================================

func TestCart_EventStoreFailureDoesNotFailMutation(t *testing.T) {
	c, eventStore := newTestCart()
	eventStore.AppendErr = errors.New("log unavailable")

	got, err := c.AddItem(context.Background(), item(1, "1", 1))

	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.Len(t, c.Items(), 1)
}

func TestCart_NilEventStore(t *testing.T) {
	c := New("cart-x", nil, nil)

	_, err := c.AddItem(context.Background(), item(1, "1", 1))

	require.NoError(t, err)
	assert.True(t, c.DeleteProduct(context.Background(), 1))
}
