package customers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type Handler struct {
	repo      *CustomerRepository
	jwtSecret []byte
	logger    *slog.Logger
}

func NewHandler(repo *CustomerRepository, jwtSecret []byte, logger *slog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := h.repo.Create(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("customer registered", "customer_id", customer.ID)
	h.writeJSON(w, http.StatusCreated, customer)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string           `json:"token"`
	Customer *domain.Customer `json:"customer"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := h.repo.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	token, err := auth.NewToken(h.jwtSecret, customer)
	if err != nil {
		h.logger.Error("failed to sign token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("customer logged in", "customer_id", customer.ID)
	h.writeJSON(w, http.StatusOK, loginResponse{Token: token, Customer: customer})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	customer, err := h.repo.GetByID(r.Context(), actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if customer == nil {
		h.writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	h.writeJSON(w, http.StatusOK, customer)
}

type addressRequest struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

func (h *Handler) HandleCreateAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	address := &domain.Address{
		CustomerID: actor.ID,
		Street:     req.Street,
		City:       req.City,
		Zip:        req.Zip,
	}
	if err := h.repo.CreateAddress(r.Context(), address); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("address created", "address_id", address.ID, "customer_id", actor.ID)
	h.writeJSON(w, http.StatusCreated, address)
}

// HandleListAddresses only ever shows the actor's own addresses.
func (h *Handler) HandleListAddresses(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	addresses, err := h.repo.ListAddresses(r.Context(), actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, addresses)
}

func (h *Handler) HandleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	address, err := h.repo.GetAddress(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if address == nil {
		h.writeError(w, http.StatusNotFound, "address not found")
		return
	}
	if !auth.CanAccessAddress(actor, address) {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	address.Street = req.Street
	address.City = req.City
	address.Zip = req.Zip

	if err := h.repo.UpdateAddress(r.Context(), address); err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, address)
}

func (h *Handler) HandleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	address, err := h.repo.GetAddress(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if address == nil {
		h.writeError(w, http.StatusNotFound, "address not found")
		return
	}
	if !auth.CanAccessAddress(actor, address) {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.repo.DeleteAddress(r.Context(), address.ID, actor.ID); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if domain.ErrorCode(err) == domain.EInternal {
		h.logger.Error("customer operation failed", "error", err)
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
