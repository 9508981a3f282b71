/*
handlers.go - HTTP API handlers for the inventory engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the services.

ENDPOINTS:
  Public:
    GET    /health                      Liveness + database ping
    POST   /api/auth/login              Email/password login, returns JWT

  Authenticated:
    GET    /api/me                      Current user
    GET    /api/categories              List categories
    POST   /api/categories              Create category
    GET    /api/products                List products
    POST   /api/products                Create product
    GET    /api/products/{id}           Get product
    PUT    /api/products/{id}           Update product
    DELETE /api/products/{id}           Delete product
    GET    /api/locations               List locations
    GET    /api/batches                 List batches
    POST   /api/batches                 Create batch (completed batches credit stock)
    GET    /api/inventory               List inventory rows
    POST   /api/inventory/transfer      Transfer stock between locations
    GET    /api/sales                   List sales
    POST   /api/sales                   Create sale
    GET    /api/sales/{id}              Get sale
    DELETE /api/sales/{id}              Remove sale
    PATCH  /api/sales/{id}/status       Change sale status
    GET    /api/sales/{id}/invoice      Invoice totals

  Admin:
    POST   /api/locations               Create location
    PUT    /api/locations/{id}/default  Make location the default sales source
    GET    /api/users                   List users
    POST   /api/users                   Create user
    GET    /api/audit                   Query the audit log

PAGINATION:
  ?page=N (1-based, default 1) and ?limit=M (default 10, max 100).

ERROR HANDLING:
  Errors are returned as JSON ErrorResponse with status from statusFor:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid token
  - 403: Role too low
  - 404: Resource not found
  - 409: Insufficient stock, unique conflict
  - 500: Persistence and audit failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/warp/inventory-engine/audit"
	"github.com/warp/inventory-engine/catalog"
	"github.com/warp/inventory-engine/domain"
	"github.com/warp/inventory-engine/identity"
	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/sales"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports database reachability for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger   *inventory.Ledger
	Sales    *sales.Manager
	Catalog  *catalog.Service
	Identity *identity.Service
	Audit    *audit.Recorder
	DB       Pinger
	Logger   *zap.Logger
}

// =============================================================================
// HEALTH / AUTH HANDLERS
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, user, err := h.Identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r.Context()))
}

// =============================================================================
// USER HANDLERS
// =============================================================================

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Identity.ListUsers(r.Context(), pageFromQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	actor := currentUser(r.Context())
	if req.Role == domain.RoleSuperAdmin && !actor.Role.AtLeast(domain.RoleSuperAdmin) {
		h.fail(w, r, errors.Join(domain.ErrForbidden, errors.New("only a super_admin can create a super_admin")))
		return
	}

	user, err := h.Identity.Register(r.Context(), identity.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, &actor.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// ListAudit supports ?user_id, ?action, ?entity and ?entity_id filters.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AuditFilter{
		Action: q.Get("action"),
		Entity: domain.EntityType(q.Get("entity")),
		Page:   pageFromQuery(r),
	}
	for key, dst := range map[string]**int64{"user_id": &filter.UserID, "entity_id": &filter.EntityID} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.fail(w, r, domain.Invalid(key, "must be an integer"))
			return
		}
		*dst = &id
	}

	entries, err := h.Audit.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, entries)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeList writes items, or [] when there are none.
func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps err to a status, logs it and writes the error response.
// Server errors never leak their details to the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}

	switch {
	case status >= 500:
		h.Logger.Error("request failed", fields...)
		writeError(w, status, http.StatusText(status), nil)
	case status == http.StatusNotFound:
		h.Logger.Info("resource not found", fields...)
		writeError(w, status, http.StatusText(status), err)
	default:
		h.Logger.Info("request rejected", fields...)
		writeError(w, status, http.StatusText(status), err)
	}
}

// statusFor maps the domain error taxonomy to HTTP status codes. Audit
// failures are checked first: they may wrap a validation error from a
// foreign key violation but are always server-side failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuditFailure):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into dst and validates its tags. On failure it
// writes a 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.fail(w, r, &domain.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()})
		return false
	}
	if err := domain.Validate(dst); err != nil {
		h.fail(w, r, err)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, domain.Invalid("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func pageFromQuery(r *http.Request) domain.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return domain.PageFor(page, limit)
}

// actorID returns the authenticated user's id for audit attribution.
func actorID(ctx context.Context) *int64 {
	if u := currentUser(ctx); u != nil {
		id := u.ID
		return &id
	}
	return nil
}
