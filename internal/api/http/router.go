package httpapi

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	platformhealth "github.com/shestoi/GoBigTech/cart/platform/health/http"
	platformobservability "github.com/shestoi/GoBigTech/cart/platform/observability"
)

// NewRouter создаёт и настраивает HTTP роутер для Cart Service
// readiness - проверка доступности хранилища снимка корзины.
// Если readiness возвращает false, health endpoint вернёт 503 Service Unavailable.
func NewRouter(handler *Handler, readiness func() bool, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	// Observability: trace context + span на каждый запрос, logger с trace_id в контексте
	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("cart", logger))
	}

	router.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Get("/amounts", handler.GetAmounts)
		r.Post("/products/{productId}", handler.PostProduct)
		r.Put("/products/{productId}", handler.PutProductAmount)
		r.Delete("/products/{productId}", handler.DeleteProduct)
	})

	router.Get("/health", platformhealth.Handler(readiness))

	return router
}
