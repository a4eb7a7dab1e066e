// Package httptransport is the thin HTTP layer over the domain services. It
// parses multipart forms, resolves path parameters, and translates domain
// errors to status codes; all business rules live below it.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signet/internal/platform/metrics"
	id "signet/pkg/domain"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router wires together.
type Deps struct {
	Customers  CustomerService
	Signatures SignatureService
	Verifier   VerifyService
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	// AdminToken guards the API; AdminID is the identity recorded for every
	// action performed with it.
	AdminToken string
	AdminID    id.AdminID

	// Health reports readiness of backing stores; nil means always ready.
	Health func(ctx context.Context) error
}

// NewRouter builds the full route table.
func NewRouter(deps Deps) http.Handler {
	customers := &customerHandler{customers: deps.Customers, logger: deps.Logger}
	signatures := &signatureHandler{signatures: deps.Signatures, logger: deps.Logger}
	verifier := &verifyHandler{verifier: deps.Verifier, logger: deps.Logger}

	r := chi.NewRouter()
	r.Use(Recovery(deps.Logger))
	r.Use(RequestID)
	r.Use(RequestTime)
	r.Use(Logger(deps.Logger))
	r.Use(Latency(deps.Metrics))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(Timeout(requestTimeout))
		api.Use(RequireAdmin(deps.AdminToken, deps.AdminID, deps.Logger))

		api.Post("/customers", customers.handleCreate)
		api.Get("/customers", customers.handleList)
		api.Get("/customers/{customerID}", customers.handleGet)
		api.Put("/customers/{customerID}", customers.handleUpdate)
		api.Delete("/customers/{customerID}", customers.handleDelete)
		api.Get("/customers/{customerID}/registrations", customers.handleRegistrations)

		api.Post("/customers/{customerID}/signatures", signatures.handleEnroll)
		api.Put("/customers/{customerID}/signatures", signatures.handleReplace)
		api.Get("/customers/{customerID}/signatures", signatures.handleList)
		api.Delete("/signatures/{signatureID}", signatures.handleRemove)

		api.Post("/verify", verifier.handleVerify)
		api.Get("/customers/{customerID}/verifications", verifier.handleHistory)
		api.Get("/stats", customers.handleStats)
	})

	return r
}

func handleHealth(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
