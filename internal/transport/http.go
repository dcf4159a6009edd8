package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/checkout-service/internal/auth"
	"github.com/vasiliy-maslov/checkout-service/internal/handler"
	"github.com/vasiliy-maslov/checkout-service/internal/settlement"
)

// NewRouter wires the checkout routes. Everything under /checkout requires a
// valid session.
func NewRouter(svc settlement.Service, sessionSecret string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	h := handler.NewCheckoutHandler(svc)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(sessionSecret))
		h.RegisterRoutes(r)
	})

	return r
}
