package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/domain"
)

// Handler serves the catalog. Reads are public; writes are gated by the
// routing middleware and re-checked here against the access policy.
type Handler struct {
	repo   *CatalogRepository
	logger *slog.Logger
}

func NewHandler(repo *CatalogRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) authorizeWrite(w http.ResponseWriter, r *http.Request) bool {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok || !auth.CanMutateCatalog(actor) {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func (h *Handler) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.repo.ListCollections(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, collections)
}

func (h *Handler) HandleGetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := h.repo.GetCollection(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if collection == nil {
		h.writeError(w, http.StatusNotFound, "collection not found")
		return
	}

	h.writeJSON(w, http.StatusOK, collection)
}

type collectionRequest struct {
	Title string `json:"title"`
}

func (h *Handler) HandleCreateCollection(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeWrite(w, r) {
		return
	}

	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collection, err := h.repo.CreateCollection(r.Context(), req.Title)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("collection created", "collection_id", collection.ID)
	h.writeJSON(w, http.StatusCreated, collection)
}

func (h *Handler) HandleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeWrite(w, r) {
		return
	}

	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collection, err := h.repo.UpdateCollection(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, collection)
}

func (h *Handler) HandleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeWrite(w, r) {
		return
	}

	if err := h.repo.DeleteCollection(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context(), r.URL.Query().Get("collection_id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.repo.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

type productRequest struct {
	CollectionID string `json:"collection_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	Inventory    int    `json:"inventory"`
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeWrite(w, r) {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := &domain.Product{
		CollectionID: req.CollectionID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Inventory:    req.Inventory,
	}
	if err := h.repo.CreateProduct(r.Context(), product); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "price", product.Price)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeWrite(w, r) {
		return
	}

	id := r.PathValue("id")

	existing, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if existing == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Price = req.Price
	existing.Inventory = req.Inventory

	if err := h.repo.UpdateProduct(r.Context(), existing); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("product updated", "product_id", existing.ID, "price", existing.Price)
	h.writeJSON(w, http.StatusOK, existing)
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeWrite(w, r) {
		return
	}

	if err := h.repo.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type imageRequest struct {
	URL string `json:"url"`
}

func (h *Handler) HandleAddImage(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeWrite(w, r) {
		return
	}

	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	image, err := h.repo.AddImage(r.Context(), r.PathValue("id"), req.URL)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, image)
}

func (h *Handler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.repo.ListReviews(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, reviews)
}

type reviewRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) HandleAddReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review := &domain.Review{
		ProductID:   r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.repo.AddReview(r.Context(), review); err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, review)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if domain.ErrorCode(err) == domain.EInternal {
		h.logger.Error("catalog operation failed", "error", err)
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
