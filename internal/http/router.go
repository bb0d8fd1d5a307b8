package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	Metrics bool
}

func NewRouter(handler *Handler, log *slog.Logger, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/items", handler.ListItems)
		r.Post("/items", handler.CreateItem)
		r.Get("/items/suggest-sku", handler.SuggestSKU)
		r.Get("/items/{id}", handler.GetItem)
		r.Patch("/items/{id}", handler.PatchItem)
		r.Delete("/items/{id}", handler.DeleteItem)
		r.Post("/items/{id}/increase", handler.IncreaseItem)
		r.Post("/items/{id}/decrease", handler.DecreaseItem)
		r.Post("/items/{id}/movements", handler.Movement)

		r.Get("/inventory/summary", handler.InventorySummary)
		r.Get("/transactions", handler.ListTransactions)

		r.Get("/export/items.csv", handler.ExportItemsCSV)
		r.Get("/export/transactions.csv", handler.ExportTransactionsCSV)
		r.Get("/export/inventory.xlsx", handler.ExportInventoryXLSX)

		r.Get("/readings/latest", handler.LatestReading)
		r.Get("/readings/history", handler.ReadingHistory)
		r.Get("/readings/export.csv", handler.ExportReadingsCSV)

		r.Get("/dealers", handler.ListDealers)
		r.Post("/dealers", handler.CreateDealer)
		r.Get("/dealers/{id}", handler.GetDealer)
		r.Patch("/dealers/{id}", handler.PatchDealer)
		r.Delete("/dealers/{id}", handler.DeleteDealer)
	})

	return r
}
