package api

import (
	"database/sql"
	"net/http"

	"github.com/ibrknu/card-inventory-app/internal/model"
	"github.com/ibrknu/card-inventory-app/internal/store"
)

// ScanHandler handles the scan ingestion endpoints.
type ScanHandler struct {
	DB *sql.DB
}

type scanRequest struct {
	Barcode   string `json:"barcode"`
	Increment int    `json:"increment"`
}

type scanResponse struct {
	Item  *model.Item `json:"item"`
	IsNew bool        `json:"is_new"`
}

type quantityRequest struct {
	Barcode string `json:"barcode"`
	Action  string `json:"action"`
	Amount  int    `json:"amount"`
}

// Scan handles POST /api/scan.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, isNew, err := store.IngestScan(r.Context(), h.DB, req.Barcode, req.Increment, nil)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, scanResponse{Item: item, IsNew: isNew})
}

// NewItem handles POST /api/items/new: creation with full details from
// the scan flow, recording a scan event alongside.
func (h *ScanHandler) NewItem(w http.ResponseWriter, r *http.Request) {
	var req model.ItemCreate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.CreateScannedItem(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Quantity handles POST /api/quantity: the explicit add/sell action that
// complements a bare scan.
func (h *ScanHandler) Quantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.UpdateQuantity(r.Context(), h.DB, req.Barcode, req.Action, req.Amount)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// ListEvents handles GET /api/scans.
func (h *ScanHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	if limit < 1 || limit > 5000 {
		limit = 100
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	events, err := store.ListScanEvents(r.Context(), h.DB, r.URL.Query().Get("barcode"), limit, offset)
	if err != nil {
		storeError(w, err)
		return
	}
	if events == nil {
		events = []model.ScanEvent{}
	}
	jsonResponse(w, http.StatusOK, events)
}
