package query

import (
	"context"
	"sort"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/readmodel"
	"github.com/example/storefront/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	carts     *session.Registry[*cart.Cart]
	forms     *session.Registry[*product.Form]
	lister    catalog.Lister
	readStore store.ReadStoreInterface
	logger    *zap.Logger
}

func NewHandler(
	carts *session.Registry[*cart.Cart],
	forms *session.Registry[*product.Form],
	lister catalog.Lister,
	readStore store.ReadStoreInterface,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		carts:     carts,
		forms:     forms,
		lister:    lister,
		readStore: readStore,
		logger:    logger.Named("query"),
	}
}

// Products
func (h *Handler) ListProducts(ctx context.Context) ([]catalog.ListingProduct, error) {
	products, err := h.lister.ListProducts(ctx)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		return nil, err
	}
	return catalog.ToListings(products), nil
}

// PopularProducts returns up to limit products ordered by units added to carts. limit <= 0 means all.
func (h *Handler) PopularProducts(limit int) []*readmodel.ProductPopularityReadModel {
	items := h.readStore.GetAll(readmodel.CollectionPopularity)
	popular := make([]*readmodel.ProductPopularityReadModel, 0, len(items))
	for _, item := range items {
		p := item.(*readmodel.ProductPopularityReadModel)
		if p.Deleted {
			continue
		}
		popular = append(popular, p)
	}

	sort.Slice(popular, func(i, j int) bool {
		if popular[i].UnitsAdded != popular[j].UnitsAdded {
			return popular[i].UnitsAdded > popular[j].UnitsAdded
		}
		return popular[i].ProductID < popular[j].ProductID
	})
	if limit > 0 && len(popular) > limit {
		popular = popular[:limit]
	}
	return popular
}

// Cart
func (h *Handler) GetCart(sessionID string) *readmodel.CartReadModel {
	c, ok := h.carts.Peek(sessionID)
	if !ok {
		return &readmodel.CartReadModel{
			ID:    cart.GetCartID(sessionID),
			Items: []readmodel.CartLineReadModel{},
			Total: decimal.Zero,
		}
	}
	return CartView(c.ID(), c.Items())
}

// CartView derives line totals, the decrease affordance and the cart total from a snapshot of items
func CartView(id string, items []cart.LineItem) *readmodel.CartReadModel {
	view := &readmodel.CartReadModel{
		ID:    id,
		Items: make([]readmodel.CartLineReadModel, 0, len(items)),
		Total: cart.Total(items),
	}
	for _, item := range items {
		view.Items = append(view.Items, readmodel.CartLineReadModel{
			ProductID:   item.ProductID,
			Title:       item.Title,
			Description: item.Description,
			Image:       item.Image,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal(),
			CanDecrease: item.Quantity > cart.MinQuantity,
		})
		view.Count += item.Quantity
	}
	return view
}

// Product form
func (h *Handler) GetForm(sessionID string) product.Snapshot {
	if f, ok := h.forms.Peek(sessionID); ok {
		return f.Snapshot()
	}
	return product.Snapshot{
		State:         product.StateIdle,
		Draft:         product.EmptyDraft(),
		UpdatedFields: []string{},
	}
}
