package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/settle/internal/auth"
	"github.com/MrJamesThe3rd/settle/internal/http/charge"
	"github.com/MrJamesThe3rd/settle/internal/http/payment"
	"github.com/MrJamesThe3rd/settle/internal/metrics"
)

type Options struct {
	AuthSecret     []byte
	AllowedOrigins []string
}

func New(
	opts Options,
	chargesV1 *charge.Handler,
	paymentsV1 *payment.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", payment.HeaderPaymentID},
		MaxAge:         300,
	}))

	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if len(opts.AuthSecret) > 0 {
			r.Use(auth.Middleware(opts.AuthSecret))
		}

		r.Route("/charges", chargesV1.Routes)

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/x-www-form-urlencoded"))
			paymentsV1.Routes(r)
		})
	})

	return router
}
