package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/query"
	"go.uber.org/zap"
)

// AdminHandlers serves admin login and the product management form
type AdminHandlers struct {
	credentials  auth.AdminCredentials
	jwtService   *auth.JWTService
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	activity     *query.ActivityHandler
	logger       *zap.Logger
}

func NewAdminHandlers(
	credentials auth.AdminCredentials,
	jwtService *auth.JWTService,
	cmdHandler *command.Handler,
	queryHandler *query.Handler,
	activity *query.ActivityHandler,
	logger *zap.Logger,
) *AdminHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandlers{
		credentials:  credentials,
		jwtService:   jwtService,
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		activity:     activity,
		logger:       logger.Named("admin"),
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login checks the admin credentials and sets the access token cookie
func (h *AdminHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.credentials.Verify(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrAdminNotConfigured) {
			respondError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		h.logger.Info("admin login rejected", zap.String("username", req.Username))
		respondError(w, "invalid username or password", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAccessToken(req.Username, auth.RoleAdmin)
	if err != nil {
		h.logger.Error("failed to sign access token", zap.Error(err))
		respondError(w, "failed to sign in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, LoginResponse{Username: req.Username, Role: auth.RoleAdmin, ExpiresAt: expiresAt})
}

// Logout clears the access token cookie and discards the session's form
func (h *AdminHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.cmdHandler.DiscardForm(r.Context(), getSessionID(r))
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Product form handlers

func (h *AdminHandlers) GetForm(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.GetForm(getSessionID(r)))
}

func (h *AdminHandlers) SelectOperation(w http.ResponseWriter, r *http.Request) {
	var cmd command.SelectOperation
	if err := decodeBody(r, &cmd); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.SessionID = getSessionID(r)

	snap, err := h.cmdHandler.SelectOperation(r.Context(), cmd)
	h.respondForm(w, snap, err)
}

func (h *AdminHandlers) SetProductID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID json.RawMessage `json:"productId"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := rawToString(req.ProductID)
	if err != nil {
		respondError(w, "productId must be a string or number", http.StatusBadRequest)
		return
	}

	snap, err := h.cmdHandler.SetProductID(r.Context(), command.SetProductID{SessionID: getSessionID(r), ProductID: id})
	h.respondForm(w, snap, err)
}

// UpdateFields accepts {"field": value}. Numbers are taken as written and lists are joined with commas.
func (h *AdminHandlers) UpdateFields(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		s, err := rawToString(value)
		if err != nil {
			respondError(w, fmt.Sprintf("field %q: %v", name, err), http.StatusBadRequest)
			return
		}
		fields[name] = s
	}

	snap, err := h.cmdHandler.UpdateFields(r.Context(), command.UpdateFields{SessionID: getSessionID(r), Fields: fields})
	h.respondForm(w, snap, err)
}

func (h *AdminHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cmdHandler.SubmitProduct(r.Context(), command.SubmitProduct{SessionID: getSessionID(r)})
	h.respondForm(w, snap, err)
}

func (h *AdminHandlers) DismissAlert(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cmdHandler.DismissAlert(r.Context(), command.DismissAlert{SessionID: getSessionID(r)})
	h.respondForm(w, snap, err)
}

const defaultActivityLimit = 50

// Activity lists recent audit events, newest first. ?aggregate= narrows to one cart or product.
func (h *AdminHandlers) Activity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.activity.Recent(r.Context(), r.URL.Query().Get("aggregate"), limit)
	if err != nil {
		respondError(w, "failed to read activity", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// FormErrorResponse carries the form alongside the error so a client can render the alert
type FormErrorResponse struct {
	Error string           `json:"error"`
	Form  product.Snapshot `json:"form"`
}

func (h *AdminHandlers) respondForm(w http.ResponseWriter, snap product.Snapshot, err error) {
	if err == nil {
		respondJSON(w, http.StatusOK, snap)
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, product.ErrSubmitFailed) {
		h.logger.Error("admin request failed", zap.Int("status", status), zap.Error(err))
	}
	respondJSON(w, status, FormErrorResponse{Error: err.Error(), Form: snap})
}

func rawToString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), nil
		}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ","), nil
	}

	return "", errors.New("unsupported value")
}
