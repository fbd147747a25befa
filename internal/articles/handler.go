package articles

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, articles)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing article id")
		return
	}

	article, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, article)
}

type publishRequest struct {
	Title       string          `json:"title"`
	ContentJSON json.RawMessage `json:"content_json"`
}

// HandlePublish is gated by the routing middleware and re-checked here
// against the access policy.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	if !auth.CanPublishArticle(actor) {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := h.service.Publish(r.Context(), req.Title, req.ContentJSON)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("article published", "article_id", article.ID, "title", article.Title)
	h.writeJSON(w, http.StatusCreated, article)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if domain.ErrorCode(err) == domain.EInternal {
		h.logger.Error("article operation failed", "error", err)
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
