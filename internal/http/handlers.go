package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"farmops/internal/domain"
	"farmops/internal/ledger"
	"farmops/internal/repository"
	"farmops/internal/sensor"
	"farmops/internal/service"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.svc.ListItems(r.Context(), query.Get("search"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type createItemRequest struct {
	Name            string  `json:"name"`
	SKU             *string `json:"sku"`
	Category        *string `json:"category"`
	Unit            *string `json:"unit"`
	UnitFactor      float64 `json:"unit_factor"`
	OpeningQuantity float64 `json:"opening_quantity"`
	OpeningCost     float64 `json:"opening_cost"`
	ReorderLevel    float64 `json:"reorder_level"`
	TargetLevel     float64 `json:"target_level"`
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.svc.AddItem(r.Context(), service.AddItemInput{
		Name:            req.Name,
		SKU:             req.SKU,
		Category:        req.Category,
		Unit:            req.Unit,
		UnitFactor:      req.UnitFactor,
		OpeningQuantity: req.OpeningQuantity,
		OpeningCost:     req.OpeningCost,
		ReorderLevel:    req.ReorderLevel,
		TargetLevel:     req.TargetLevel,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type patchItemRequest struct {
	Name         *string  `json:"name"`
	SKU          *string  `json:"sku"`
	Category     *string  `json:"category"`
	Unit         *string  `json:"unit"`
	UnitFactor   *float64 `json:"unit_factor"`
	ReorderLevel *float64 `json:"reorder_level"`
	TargetLevel  *float64 `json:"target_level"`
}

func (h *Handler) PatchItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.svc.EditItem(r.Context(), id, repository.ItemMetaPatch{
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		Unit:         req.Unit,
		UnitFactor:   req.UnitFactor,
		ReorderLevel: req.ReorderLevel,
		TargetLevel:  req.TargetLevel,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type movementRequest struct {
	Type      string  `json:"type"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Party     string  `json:"party"`
	Note      string  `json:"note"`
}

func (h *Handler) recordMovement(w http.ResponseWriter, r *http.Request, forced domain.MovementType) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req movementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	movementType := forced
	if movementType == "" {
		movementType = domain.MovementType(req.Type)
	}
	result, err := h.svc.RecordMovement(r.Context(), id, ledger.Movement{
		Type:      movementType,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Party:     req.Party,
		Note:      req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "item not found")
		case errors.Is(err, repository.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// IncreaseItem and DecreaseItem are the two-button flow; Movement is
// the generic form that also covers adjustments.
func (h *Handler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, domain.MovementPurchase)
}

func (h *Handler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, domain.MovementSale)
}

func (h *Handler) Movement(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, "")
}

func (h *Handler) SuggestSKU(w http.ResponseWriter, r *http.Request) {
	code, err := h.svc.SuggestSKU(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sku": code})
}

func (h *Handler) InventorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseOptionalInt(r.URL.Query().Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	txs, err := h.svc.RecentTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": txs, "count": len(txs)})
}

func (h *Handler) ExportItemsCSV(w http.ResponseWriter, r *http.Request) {
	serveCSV(w, "items.csv", func() error {
		return h.svc.ExportItemsCSV(r.Context(), w)
	})
}

func (h *Handler) ExportTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	serveCSV(w, "transactions.csv", func() error {
		return h.svc.ExportTransactionsCSV(r.Context(), w)
	})
}

func (h *Handler) ExportReadingsCSV(w http.ResponseWriter, r *http.Request) {
	serveCSV(w, "readings.csv", func() error {
		return h.svc.ExportReadingsCSV(r.Context(), w)
	})
}

func (h *Handler) ExportInventoryXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.xlsx"`)
	if err := h.svc.ExportInventoryXLSX(r.Context(), w); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) LatestReading(w http.ResponseWriter, r *http.Request) {
	reading, err := h.svc.LatestReading(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no readings yet")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reading": reading,
		"alerts":  sensor.Alerts(*reading),
	})
}

func (h *Handler) ReadingHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseOptionalInt(r.URL.Query().Get("limit"), 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	readings, err := h.svc.ReadingHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": readings, "count": len(readings)})
}

func (h *Handler) ListDealers(w http.ResponseWriter, r *http.Request) {
	dealers, err := h.svc.ListDealers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": dealers, "count": len(dealers)})
}

func (h *Handler) GetDealer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dealer, err := h.svc.GetDealer(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "dealer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dealer)
}

type createDealerRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`
}

func (h *Handler) CreateDealer(w http.ResponseWriter, r *http.Request) {
	var req createDealerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dealer, err := h.svc.CreateDealer(r.Context(), repository.DealerInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Website: req.Website,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, dealer)
}

type patchDealerRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`
}

func (h *Handler) PatchDealer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req patchDealerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dealer, err := h.svc.UpdateDealer(r.Context(), id, repository.DealerPatch{
		Name:    req.Name,
		Phone:   req.Phone,
		Website: req.Website,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "dealer not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dealer)
}

func (h *Handler) DeleteDealer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteDealer(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "dealer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func serveCSV(w http.ResponseWriter, filename string, write func() error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := write(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
