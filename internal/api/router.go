package api

import (
	"database/sql"
	"net/http"

	"github.com/ibrknu/card-inventory-app/internal/store"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{DB: db}
	batchesHandler := &BatchesHandler{DB: db}
	scanHandler := &ScanHandler{DB: db}

	// Items.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("POST /api/items/new", scanHandler.NewItem)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("PATCH /api/items/{id}", itemsHandler.Update)
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)

	// Scanning.
	mux.HandleFunc("POST /api/scan", scanHandler.Scan)
	mux.HandleFunc("POST /api/quantity", scanHandler.Quantity)
	mux.HandleFunc("GET /api/scans", scanHandler.ListEvents)

	// Batches.
	mux.HandleFunc("POST /api/batches", batchesHandler.Create)
	mux.HandleFunc("GET /api/batches", batchesHandler.List)
	mux.HandleFunc("GET /api/batches/{id}", batchesHandler.Get)
	mux.HandleFunc("PUT /api/batches/{id}", batchesHandler.Update)
	mux.HandleFunc("DELETE /api/batches/{id}", batchesHandler.Delete)
	mux.HandleFunc("POST /api/batches/{id}/scan", batchesHandler.Scan)
	mux.HandleFunc("POST /api/batches/{id}/add-item", batchesHandler.AddItem)
	mux.HandleFunc("POST /api/batches/{id}/transfer", batchesHandler.Transfer)
	mux.HandleFunc("GET /api/batches/{id}/stats", batchesHandler.Stats)

	// Stats and health.
	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.GetInventoryStats(r.Context(), db)
		if err != nil {
			storeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, stats)
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}
