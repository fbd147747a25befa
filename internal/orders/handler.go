package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
)

var meter = otel.Meter("orders")

type Handler struct {
	repo          *OrderRepository
	producer      *messaging.Producer
	logger        *slog.Logger
	placedCounter metric.Int64Counter
}

func NewHandler(repo *OrderRepository, producer *messaging.Producer, logger *slog.Logger) (*Handler, error) {
	placedCounter, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Number of successfully placed orders."),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		repo:          repo,
		producer:      producer,
		logger:        logger,
		placedCounter: placedCounter,
	}, nil
}

type placeOrderRequest struct {
	CartID            string `json:"cart_id"`
	ShippingAddressID string `json:"shipping_address_id"`
}

// HandlePlace places an order from the actor's cart. The owning customer
// is always the actor; it is never taken from the request body.
func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CartID == "" || req.ShippingAddressID == "" {
		h.writeError(w, http.StatusBadRequest, "cart_id and shipping_address_id are required")
		return
	}

	order, err := h.repo.Place(r.Context(), actor.ID, req.CartID, req.ShippingAddressID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.placedCounter.Add(r.Context(), 1)

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:       order.ID,
			CustomerID:    order.CustomerID,
			CustomerEmail: actor.Email,
			Items:         order.Items,
			Total:         order.Total,
			PlacedAt:      order.PlacedAt,
		}
		if err := h.producer.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order placed", "order_id", order.ID, "customer_id", order.CustomerID, "total", order.Total)
	h.writeJSON(w, http.StatusCreated, order)
}

// HandleGet returns the order if the actor may read it. A non-owned order
// is reported as not found, indistinguishable from an absent one.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if order == nil || !auth.CanReadOrder(actor, order) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// HandleList returns the actor's orders, or every order for an
// administrative actor.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	customerID := actor.ID
	if actor.Admin {
		customerID = ""
	}

	orders, err := h.repo.List(r.Context(), customerID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// HandleUpdateStatus is gated by the routing middleware and re-checked
// here against the access policy.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	if !auth.CanMutateOrder(actor) {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidOrderStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "unknown order status")
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

// HandleDelete is gated by the routing middleware and re-checked here
// against the access policy.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	if !auth.CanMutateOrder(actor) {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("order deleted", "order_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if domain.ErrorCode(err) == domain.EInternal {
		h.logger.Error("order operation failed", "error", err)
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
