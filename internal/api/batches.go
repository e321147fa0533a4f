package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ibrknu/card-inventory-app/internal/model"
	"github.com/ibrknu/card-inventory-app/internal/store"
)

// BatchesHandler handles batch lifecycle endpoints.
type BatchesHandler struct {
	DB *sql.DB
}

type createBatchRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	TargetLocation string `json:"target_location"`
}

type batchScanRequest struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity"`
}

type batchTransferRequest struct {
	Action string `json:"action"`
}

func batchID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// Create handles POST /api/batches.
func (h *BatchesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	batch, err := store.CreateBatch(r.Context(), h.DB, req.Name, req.Description, req.TargetLocation)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, batch)
}

// List handles GET /api/batches. Only active batches are returned unless
// active_only=false.
func (h *BatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") != "false"
	limit := queryInt(r, "limit", 100)
	if limit < 1 || limit > 5000 {
		limit = 100
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	batches, err := store.ListBatches(r.Context(), h.DB, activeOnly, limit, offset)
	if err != nil {
		storeError(w, err)
		return
	}
	if batches == nil {
		batches = []model.Batch{}
	}
	jsonResponse(w, http.StatusOK, batches)
}

// Get handles GET /api/batches/{id}, embedding the member items.
func (h *BatchesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := batchID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	batch, err := store.GetBatchWithItems(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, batch)
}

// Update handles PUT /api/batches/{id}.
func (h *BatchesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := batchID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	var req model.BatchUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	batch, err := store.UpdateBatch(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, batch)
}

// Delete handles DELETE /api/batches/{id}. Member items are detached,
// never deleted.
func (h *BatchesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := batchID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	if err := store.DeleteBatch(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "batch deleted"})
}

// Scan handles POST /api/batches/{id}/scan: scan a barcode into a batch.
func (h *BatchesHandler) Scan(w http.ResponseWriter, r *http.Request) {
	id, err := batchID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	var req batchScanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, isNew, err := store.IngestScan(r.Context(), h.DB, req.Barcode, req.Quantity, &id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, scanResponse{Item: item, IsNew: isNew})
}

// AddItem handles POST /api/batches/{id}/add-item: add an item with full
// details to a batch, updating it in place if the barcode already exists.
func (h *BatchesHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := batchID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	var req model.ItemCreate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.AddItemToBatch(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Transfer handles POST /api/batches/{id}/transfer with action "transfer"
// or "cancel"; both terminate the batch.
func (h *BatchesHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, err := batchID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	var req batchTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "transfer":
		moved, err := store.TransferBatch(r.Context(), h.DB, id)
		if err != nil {
			storeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"message":           fmt.Sprintf("batch transferred, %d items moved", moved),
			"items_transferred": moved,
		})
	case "cancel":
		detached, err := store.CancelBatch(r.Context(), h.DB, id)
		if err != nil {
			storeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"message":       fmt.Sprintf("batch cancelled, %d items detached", detached),
			"items_removed": detached,
		})
	default:
		jsonError(w, http.StatusBadRequest, "action must be 'transfer' or 'cancel'")
	}
}

// Stats handles GET /api/batches/{id}/stats.
func (h *BatchesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := batchID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	count, err := store.BatchStats(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int64{"item_count": count})
}
