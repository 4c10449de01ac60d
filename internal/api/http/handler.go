package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
	"github.com/shestoi/GoBigTech/cart/internal/service"
	platformobservability "github.com/shestoi/GoBigTech/cart/platform/observability"
)

// Handler содержит HTTP-обработчики корзины для витрины
// Уведомление покупателю уже отправлено service слоем, handler только переводит ошибку в статус
type Handler struct {
	cartService *service.CartService
	logger      *zap.Logger
}

// NewHandler создаёт новый HTTP handler
func NewHandler(cartService *service.CartService, logger *zap.Logger) *Handler {
	return &Handler{
		cartService: cartService,
		logger:      logger,
	}
}

// CartItemResponse позиция корзины в формате витрины
type CartItemResponse struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	Amount int     `json:"amount"`
}

// UpdateAmountRequest тело PUT /cart/products/{productId}
type UpdateAmountRequest struct {
	Amount *int `json:"amount"`
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetCart обрабатывает GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r, h.cartService.Cart())
}

// GetAmounts обрабатывает GET /cart/amounts - {"<id>": amount}
func (h *Handler) GetAmounts(w http.ResponseWriter, r *http.Request) {
	amounts := h.cartService.Amounts()

	resp := make(map[string]int, len(amounts))
	for id, amount := range amounts {
		resp[strconv.FormatInt(id, 10)] = amount
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// PostProduct обрабатывает POST /cart/products/{productId} - добавить одну единицу товара
func (h *Handler) PostProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.cartService.AddProduct(r.Context(), productID); err != nil {
		h.writeError(w, r, service.MessageAddFailed, err)
		return
	}
	h.writeCart(w, r, h.cartService.Cart())
}

// PutProductAmount обрабатывает PUT /cart/products/{productId} с телом {"amount": n}
func (h *Handler) PutProductAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Amount == nil {
		h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "amount is required"})
		return
	}

	if err := h.cartService.UpdateProductAmount(r.Context(), productID, *req.Amount); err != nil {
		h.writeError(w, r, service.MessageUpdateAmountFailed, err)
		return
	}
	h.writeCart(w, r, h.cartService.Cart())
}

// DeleteProduct обрабатывает DELETE /cart/products/{productId}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.cartService.RemoveProduct(r.Context(), productID); err != nil {
		h.writeError(w, r, service.MessageRemoveFailed, err)
		return
	}
	h.writeCart(w, r, h.cartService.Cart())
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || id <= 0 {
		h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
		return 0, false
	}
	return id, true
}

// writeError переводит ошибку service слоя в HTTP статус
// Текст ответа совпадает с уведомлением, которое получил покупатель
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrStockExceeded):
		status = http.StatusConflict
		message = service.MessageOutOfStock
	case errors.Is(err, service.ErrNotInCart):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrCartChanged):
		status = http.StatusConflict
	case errors.Is(err, service.ErrCatalogUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, service.ErrSnapshotUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		platformobservability.L(r.Context(), h.logger).Error("unexpected cart error", zap.Error(err))
	}
	h.writeJSON(w, r, status, ErrorResponse{Error: message})
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, cart repository.Cart) {
	resp := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		resp = append(resp, CartItemResponse{
			ID:     item.ID,
			Title:  item.Title,
			Price:  item.Price,
			Image:  item.Image,
			Amount: item.Amount,
		})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		platformobservability.L(r.Context(), h.logger).Error("failed to encode response", zap.Error(err))
	}
}
