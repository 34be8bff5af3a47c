package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/finvella/finvella/internal/auth"
	"github.com/finvella/finvella/internal/http/account"
	"github.com/finvella/finvella/internal/http/budget"
	"github.com/finvella/finvella/internal/http/chatapi"
	"github.com/finvella/finvella/internal/http/expense"
	"github.com/finvella/finvella/internal/http/goal"
	"github.com/finvella/finvella/internal/http/marketapi"
)

func New(
	authn *auth.Provider,
	accountV1 *account.Handler,
	expensesV1 *expense.Handler,
	goalsV1 *goal.Handler,
	budgetV1 *budget.Handler,
	chatV1 *chatapi.Handler,
	marketV1 *marketapi.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// The browser client is served from a different origin.
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		// Guest activation is the one entry point without a token.
		r.Route("/session", accountV1.Routes)

		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware)

			r.Route("/account", accountV1.AuthedRoutes)

			r.Route("/expenses", func(r chi.Router) {
				expensesV1.Routes(r)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				goalsV1.Routes(r)
			})

			r.Route("/budget", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				budgetV1.Routes(r)
			})

			r.Route("/chat", chatV1.Routes)

			r.Route("/market", marketV1.Routes)
		})
	})

	return router
}
