package cart

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type Handler struct {
	repo   *CartRepository
	logger *slog.Logger
}

func NewHandler(repo *CartRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// HandleCreate gets or creates the current user's cart: 201 with a fresh
// cart, 200 with the existing one.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	cart, created, err := h.repo.GetOrCreateForUser(r.Context(), actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.logger.Info("cart created", "cart_id", cart.ID, "user_id", actor.ID)
	}
	h.writeJSON(w, status, cart)
}

// HandleList returns the actor's carts. Unauthenticated requests get an
// empty list rather than an error, so nothing about other carts leaks.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	carts := []domain.Cart{}

	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusOK, carts)
		return
	}

	cart, err := h.repo.GetForUser(r.Context(), actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if cart != nil {
		carts = append(carts, *cart)
	}

	h.writeJSON(w, http.StatusOK, carts)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cart, err := h.loadOwned(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.loadOwned(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.repo.AddItem(r.Context(), cart.ID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("cart item merged", "cart_id", cart.ID, "product_id", item.ProductID, "quantity", item.Quantity)
	h.writeJSON(w, http.StatusCreated, item)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.loadOwned(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	itemID := r.PathValue("itemId")
	if itemID == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.repo.UpdateItem(r.Context(), cart.ID, itemID, req.Quantity)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.loadOwned(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	itemID := r.PathValue("itemId")
	if itemID == "" {
		h.writeError(w, http.StatusBadRequest, "missing item id")
		return
	}

	if err := h.repo.RemoveItem(r.Context(), cart.ID, itemID); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadOwned resolves the {id} cart and checks the actor owns it.
func (h *Handler) loadOwned(r *http.Request) (*domain.Cart, error) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		return nil, domain.Errorf(domain.EUnauthorized, "authentication required")
	}

	id := r.PathValue("id")
	if id == "" {
		return nil, domain.Errorf(domain.EInvalid, "missing cart id")
	}

	cart, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.Errorf(domain.ENotFound, "cart not found")
	}
	if !auth.CanAccessCart(actor, cart) {
		return nil, domain.Errorf(domain.EForbidden, "forbidden")
	}

	return cart, nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if domain.ErrorCode(err) == domain.EInternal {
		h.logger.Error("cart operation failed", "error", err)
	}
	h.writeJSON(w, domain.HTTPStatus(err), map[string]string{"error": domain.ErrorMessage(err)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
