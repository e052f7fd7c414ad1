package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/session"
	"go.uber.org/zap"
)

var ErrMissingSession = errors.New("session id is required")

// ProductFinder resolves a remote product before it is put in a cart.
type ProductFinder interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type Handler struct {
	carts    *session.Registry[*cart.Cart]
	forms    *session.Registry[*product.Form]
	products ProductFinder
	logger   *zap.Logger
}

func NewHandler(
	carts *session.Registry[*cart.Cart],
	forms *session.Registry[*product.Form],
	products ProductFinder,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		carts:    carts,
		forms:    forms,
		products: products,
		logger:   logger.Named("command"),
	}
}

// AddToCart looks the product up in the remote catalog and adds it to the session's cart
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (cart.LineItem, error) {
	if cmd.SessionID == "" {
		return cart.LineItem{}, ErrMissingSession
	}
	if cmd.ProductID <= 0 {
		return cart.LineItem{}, cart.ErrInvalidProduct
	}

	p, err := h.products.GetProduct(ctx, strconv.Itoa(cmd.ProductID))
	if err != nil {
		return cart.LineItem{}, fmt.Errorf("looking up product %d: %w", cmd.ProductID, err)
	}
	listing := catalog.ToListing(*p)

	return h.carts.Get(cmd.SessionID).AddItem(ctx, cart.LineItem{
		ProductID:   cmd.ProductID,
		Title:       listing.Title,
		Description: listing.Description,
		Image:       listing.Image,
		UnitPrice:   listing.Price,
		Quantity:    cmd.Quantity,
	})
}

// IncreaseQuantity sets the line to cmd.Quantity, or one above the stored quantity when unset
func (h *Handler) IncreaseQuantity(ctx context.Context, cmd ChangeQuantity) (cart.LineItem, error) {
	if cmd.SessionID == "" {
		return cart.LineItem{}, ErrMissingSession
	}
	c, ok := h.carts.Peek(cmd.SessionID)
	if !ok {
		return cart.LineItem{}, cart.ErrItemNotFound
	}
	if cmd.Quantity == nil {
		return c.Increment(ctx, cmd.ProductID)
	}
	return c.IncreaseQuantity(ctx, cart.LineItem{ProductID: cmd.ProductID, Quantity: *cmd.Quantity})
}

// DecreaseQuantity sets the line to cmd.Quantity, or one below the stored quantity when unset
func (h *Handler) DecreaseQuantity(ctx context.Context, cmd ChangeQuantity) (cart.LineItem, error) {
	if cmd.SessionID == "" {
		return cart.LineItem{}, ErrMissingSession
	}
	c, ok := h.carts.Peek(cmd.SessionID)
	if !ok {
		return cart.LineItem{}, cart.ErrItemNotFound
	}
	if cmd.Quantity == nil {
		return c.Decrement(ctx, cmd.ProductID)
	}
	return c.DecreaseQuantity(ctx, cart.LineItem{ProductID: cmd.ProductID, Quantity: *cmd.Quantity})
}

// RemoveFromCart reports whether the product was in the cart
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (bool, error) {
	if cmd.SessionID == "" {
		return false, ErrMissingSession
	}
	c, ok := h.carts.Peek(cmd.SessionID)
	if !ok {
		return false, nil
	}
	return c.DeleteProduct(ctx, cmd.ProductID), nil
}

func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) (int, error) {
	if cmd.SessionID == "" {
		return 0, ErrMissingSession
	}
	c, ok := h.carts.Peek(cmd.SessionID)
	if !ok {
		return 0, nil
	}
	return c.Clear(ctx), nil
}

func (h *Handler) SelectOperation(ctx context.Context, cmd SelectOperation) (product.Snapshot, error) {
	if cmd.SessionID == "" {
		return product.Snapshot{}, ErrMissingSession
	}
	op, err := product.ParseOperation(cmd.Operation)
	if err != nil {
		return product.Snapshot{}, err
	}
	return h.forms.Get(cmd.SessionID).SelectOperation(ctx, op)
}

func (h *Handler) SetProductID(ctx context.Context, cmd SetProductID) (product.Snapshot, error) {
	if cmd.SessionID == "" {
		return product.Snapshot{}, ErrMissingSession
	}
	return h.forms.Get(cmd.SessionID).SetProductID(ctx, cmd.ProductID), nil
}

func (h *Handler) UpdateFields(_ context.Context, cmd UpdateFields) (product.Snapshot, error) {
	if cmd.SessionID == "" {
		return product.Snapshot{}, ErrMissingSession
	}
	form := h.forms.Get(cmd.SessionID)
	if err := form.SetFields(cmd.Fields); err != nil {
		return form.Snapshot(), err
	}
	return form.Snapshot(), nil
}

// SubmitProduct sends the session's draft to the remote catalog
func (h *Handler) SubmitProduct(ctx context.Context, cmd SubmitProduct) (product.Snapshot, error) {
	if cmd.SessionID == "" {
		return product.Snapshot{}, ErrMissingSession
	}
	return h.forms.Get(cmd.SessionID).Submit(ctx)
}

func (h *Handler) DismissAlert(_ context.Context, cmd DismissAlert) (product.Snapshot, error) {
	if cmd.SessionID == "" {
		return product.Snapshot{}, ErrMissingSession
	}
	form, ok := h.forms.Peek(cmd.SessionID)
	if !ok {
		return product.Snapshot{State: product.StateIdle, Draft: product.EmptyDraft(), UpdatedFields: []string{}}, nil
	}
	form.DismissAlert()
	return form.Snapshot(), nil
}

// DiscardForm drops the session's form and its pending alert dismissal. Used on admin logout.
func (h *Handler) DiscardForm(_ context.Context, sessionID string) {
	form, ok := h.forms.Peek(sessionID)
	if !ok {
		return
	}
	form.DismissAlert()
	h.forms.Delete(sessionID)
}
