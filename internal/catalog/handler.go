package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
	platformhealth "github.com/shestoi/GoBigTech/cart/platform/health/http"
	platformobservability "github.com/shestoi/GoBigTech/cart/platform/observability"
)

type productResponse struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type stockResponse struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

type setStockRequest struct {
	Amount *int `json:"amount"`
}

// Handler HTTP API каталога: /products, /products/{id}, /stock/{id}
type Handler struct {
	inventory *Inventory
	logger    *zap.Logger
}

// NewHandler создаёт HTTP handler каталога
func NewHandler(inventory *Inventory, logger *zap.Logger) *Handler {
	return &Handler{inventory: inventory, logger: logger}
}

// NewRouter создаёт роутер catalog stub
func NewRouter(handler *Handler, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(platformobservability.HTTPMiddleware("catalog", logger))

	router.Get("/products", handler.ListProducts)
	router.Get("/products/{id}", handler.GetProduct)
	router.Get("/stock/{id}", handler.GetStock)
	router.Put("/stock/{id}", handler.PutStock)
	router.Get("/health", platformhealth.Handler(nil))

	return router
}

// ListProducts обрабатывает GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.inventory.Products(r.Context())

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// GetProduct обрабатывает GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	p, err := h.inventory.Product(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

// GetStock обрабатывает GET /stock/{id}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	s, err := h.inventory.Stock(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, stockResponse{ID: s.ProductID, Amount: s.Amount})
}

// PutStock обрабатывает PUT /stock/{id} с телом {"amount": n}
func (h *Handler) PutStock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil || *req.Amount < 0 {
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "amount must be a non-negative integer"})
		return
	}

	if err := h.inventory.SetStock(r.Context(), id, *req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}

	platformobservability.L(r.Context(), h.logger).Info("stock updated",
		zap.Int64("product_id", id),
		zap.Int("amount", *req.Amount),
	)
	h.writeJSON(w, r, http.StatusOK, stockResponse{ID: id, Amount: *req.Amount})
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrProductNotFound) {
		// как json-server: 404 с пустым объектом
		h.writeJSON(w, r, http.StatusNotFound, struct{}{})
		return
	}
	platformobservability.L(r.Context(), h.logger).Error("catalog request failed", zap.Error(err))
	h.writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		platformobservability.L(r.Context(), h.logger).Error("failed to encode response", zap.Error(err))
	}
}

func toProductResponse(p repository.Product) productResponse {
	return productResponse{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image}
}
