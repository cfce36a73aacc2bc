// README: Admin fare rate and ledger handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taxihub/internal/modules/ledger"
	"taxihub/internal/modules/pricing"
	"taxihub/internal/types"
)

type RateAdmin interface {
	UpdateLocalRate(ctx context.Context, r pricing.LocalRate) error
	UpdateOutstationRate(ctx context.Context, r pricing.OutstationRate) error
	UpdateAirportRate(ctx context.Context, r pricing.AirportRate) error
}

type LedgerService interface {
	Record(ctx context.Context, e ledger.Entry) (*ledger.Entry, error)
	List(ctx context.Context, from, to time.Time) ([]ledger.Entry, error)
	Summarize(ctx context.Context, from, to time.Time) (ledger.Summary, error)
}

type AdminHandler struct {
	rates  RateAdmin
	ledger LedgerService
	now    func() time.Time
}

func NewAdminHandler(rates RateAdmin, ledger LedgerService) *AdminHandler {
	return &AdminHandler{rates: rates, ledger: ledger, now: time.Now}
}

// bindRate binds a rate card and stamps the vehicle id from the path.
func bindRate[T any](c *gin.Context, setID func(*T, string)) (T, bool) {
	var r T
	if !bindJSON(c, &r) {
		return r, false
	}
	id := types.NormalizeVehicleID(c.Param("vehicle"))
	if id == "" {
		writeError(c, http.StatusBadRequest, "vehicle required")
		return r, false
	}
	setID(&r, id)
	return r, true
}

func (h *AdminHandler) UpdateLocalRate(c *gin.Context) {
	r, ok := bindRate(c, func(r *pricing.LocalRate, id string) { r.VehicleID = id })
	if !ok {
		return
	}
	if err := h.rates.UpdateLocalRate(c.Request.Context(), r); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *AdminHandler) UpdateOutstationRate(c *gin.Context) {
	r, ok := bindRate(c, func(r *pricing.OutstationRate, id string) { r.VehicleID = id })
	if !ok {
		return
	}
	if err := h.rates.UpdateOutstationRate(c.Request.Context(), r); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *AdminHandler) UpdateAirportRate(c *gin.Context) {
	r, ok := bindRate(c, func(r *pricing.AirportRate, id string) { r.VehicleID = id })
	if !ok {
		return
	}
	if err := h.rates.UpdateAirportRate(c.Request.Context(), r); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *AdminHandler) RecordEntry(c *gin.Context) {
	var e ledger.Entry
	if !bindJSON(c, &e) {
		return
	}
	saved, err := h.ledger.Record(c.Request.Context(), e)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, saved)
}

// period reads ?from=&to=; it defaults to the current calendar month in IST. to is exclusive.
func (h *AdminHandler) period(c *gin.Context) (time.Time, time.Time, bool) {
	now := h.now().In(ist)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, ist)
	to := from.AddDate(0, 1, 0)
	if v := c.Query("from"); v != "" {
		t, ok := parseDate(v)
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid from")
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, ok := parseDate(v)
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid to")
			return from, to, false
		}
		to = t
	}
	return from, to, true
}

func (h *AdminHandler) ListEntries(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}
	entries, err := h.ledger.List(c.Request.Context(), from, to)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"entries": entries})
}

func (h *AdminHandler) Summary(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}
	sum, err := h.ledger.Summarize(c.Request.Context(), from, to)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sum)
}
