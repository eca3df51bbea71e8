// Package api serves the spendsense HTTP API.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spendsense/internal/feed"
	"spendsense/internal/metrics"
	"spendsense/internal/service"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call. Hub and Metrics may be nil.
type Deps struct {
	Records        *service.RecordService
	Bills          *service.BillService
	Budgets        *service.BudgetService
	Spending       *service.SpendingService
	Flows          *service.FlowService
	DB             Pinger
	Hub            *feed.Hub
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	ServiceName    string
}

type handler struct {
	Deps
}

// NewRouter builds the chi router with every route mounted.
func NewRouter(d Deps) http.Handler {
	if d.ServiceName == "" {
		d.ServiceName = "spendsense"
	}
	h := &handler{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(accessLog)
	r.Use(recoverer)
	r.Use(cors(d.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Post("/predict-bulk", h.predictBulk)
		r.Post("/classify", h.classify)
		r.Get("/records/{id}", h.listRecords)
		r.Put("/records/{id}/category", h.updateRecordCategory)
		r.Delete("/records/{id}", h.deleteRecord)

		r.Post("/bills/parse_sms", h.parseBills)
		r.Get("/bills", h.listBills)
		r.Patch("/bills/{id}/status", h.updateBillStatus)

		r.Get("/category-spending", h.categorySpending)

		// {id} is the uid on GET and the numeric budget id otherwise.
		r.Post("/budgets", h.createBudget)
		r.Get("/budgets/{id}", h.listBudgets)
		r.Put("/budgets/{id}", h.updateBudget)
		r.Delete("/budgets/{id}", h.deleteBudget)
		r.Get("/budgets/{id}/status", h.budgetStatus)

		r.Post("/flows/parse", h.parseFlows)
		r.Post("/flows", h.saveFlows)
		r.Get("/flows/{id}", h.listFlows)

		if d.Hub != nil {
			r.Get("/ws", h.feed)
		}
	})

	return r
}
