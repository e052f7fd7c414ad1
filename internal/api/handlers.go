package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/query"
	"go.uber.org/zap"
)

var errInvalidProductID = errors.New("product id must be a positive integer")

const defaultPopularLimit = 10

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		logger:       logger.Named("api"),
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.queryHandler.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetPopularProducts(w http.ResponseWriter, r *http.Request) {
	limit := defaultPopularLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	respondJSON(w, http.StatusOK, h.queryHandler.PopularProducts(limit))
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.GetCart(getSessionID(r)))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := decodeBody(r, &cmd); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.SessionID = getSessionID(r)

	if _, err := h.cmdHandler.AddToCart(r.Context(), cmd); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondCart(w, r, http.StatusCreated)
}

// CartItem routes /api/cart/items/{id}, /api/cart/items/{id}/increase and /api/cart/items/{id}/decrease
func (h *Handlers) CartItem(w http.ResponseWriter, r *http.Request) {
	rest := extractPathParam(r.URL.Path, "/api/cart/items/")
	idPart, action, _ := strings.Cut(rest, "/")

	productID, err := strconv.Atoi(idPart)
	if err != nil || productID <= 0 {
		respondError(w, errInvalidProductID.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		h.removeFromCart(w, r, productID)
	case action == "increase" && r.Method == http.MethodPost:
		h.changeQuantity(w, r, productID, h.cmdHandler.IncreaseQuantity)
	case action == "decrease" && r.Method == http.MethodPost:
		h.changeQuantity(w, r, productID, h.cmdHandler.DecreaseQuantity)
	case action == "" || action == "increase" || action == "decrease":
		respondError(w, "method not allowed", http.StatusMethodNotAllowed)
	default:
		respondError(w, "not found", http.StatusNotFound)
	}
}

type quantityChange func(ctx context.Context, cmd command.ChangeQuantity) (cart.LineItem, error)

func (h *Handlers) changeQuantity(w http.ResponseWriter, r *http.Request, productID int, change quantityChange) {
	var cmd command.ChangeQuantity
	if err := decodeOptionalBody(r, &cmd); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.SessionID = getSessionID(r)
	cmd.ProductID = productID

	if _, err := change(r.Context(), cmd); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondCart(w, r, http.StatusOK)
}

func (h *Handlers) removeFromCart(w http.ResponseWriter, r *http.Request, productID int) {
	cmd := command.RemoveFromCart{SessionID: getSessionID(r), ProductID: productID}
	if _, err := h.cmdHandler.RemoveFromCart(r.Context(), cmd); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondCart(w, r, http.StatusOK)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if _, err := h.cmdHandler.ClearCart(r.Context(), command.ClearCart{SessionID: getSessionID(r)}); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondCart(w, r, http.StatusOK)
}

func (h *Handlers) respondCart(w http.ResponseWriter, r *http.Request, status int) {
	respondJSON(w, status, h.queryHandler.GetCart(getSessionID(r)))
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// writeError maps domain and remote errors to HTTP statuses
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	respondError(w, err.Error(), status)
}

func statusFor(err error) int {
	var statusErr *catalog.StatusError
	var urlErr *url.Error

	switch {
	case errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, cart.ErrQuantityFloor),
		errors.Is(err, catalog.ErrInvalidID),
		errors.Is(err, command.ErrMissingSession),
		errors.Is(err, product.ErrInvalidOperation),
		errors.Is(err, product.ErrUnknownField),
		errors.Is(err, product.ErrInvalidNumber),
		errors.Is(err, product.ErrNoOperation),
		errors.Is(err, product.ErrMissingProductID):
		return http.StatusBadRequest
	case errors.Is(err, product.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, product.ErrSubmitFailed),
		errors.As(err, &statusErr),
		errors.As(err, &urlErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func getSessionID(r *http.Request) string {
	return middleware.GetSessionID(r.Context())
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

// decodeOptionalBody accepts an empty body and leaves dst untouched
func decodeOptionalBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errors.New("invalid request body")
	}
	return nil
}
