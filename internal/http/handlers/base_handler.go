// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taxihub/internal/maps"
	"taxihub/internal/modules/booking"
	"taxihub/internal/modules/ledger"
	"taxihub/internal/modules/payment"
	"taxihub/internal/modules/pooling"
	"taxihub/internal/modules/pricing"
	"taxihub/internal/modules/vehicle"
	"taxihub/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts the uuid ids the stores generate.
func isValidID(v string) bool {
	if v == "" || len(v) > 36 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' {
			continue
		}
		return false
	}
	return true
}

// pathID reads and validates the :id path parameter; it writes the 400 itself.
func pathID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return types.ID(id), true
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(v string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, v, ist); err == nil {
		return t, true
	}
	return time.Time{}, false
}

var ist = time.FixedZone("IST", 5*3600+1800)

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

var statusByErr = []struct {
	err    error
	status int
}{
	{booking.ErrBadRequest, http.StatusBadRequest},
	{pooling.ErrBadRequest, http.StatusBadRequest},
	{pricing.ErrBadRequest, http.StatusBadRequest},
	{pricing.ErrUnknownPackage, http.StatusBadRequest},
	{vehicle.ErrBadRequest, http.StatusBadRequest},
	{ledger.ErrBadRequest, http.StatusBadRequest},
	{maps.ErrBadRequest, http.StatusBadRequest},
	{payment.ErrSignature, http.StatusBadRequest},
	{payment.ErrBadPayload, http.StatusBadRequest},

	{booking.ErrForbidden, http.StatusForbidden},
	{pooling.ErrForbidden, http.StatusForbidden},

	{booking.ErrNotFound, http.StatusNotFound},
	{pooling.ErrRideNotFound, http.StatusNotFound},
	{pooling.ErrRequestNotFound, http.StatusNotFound},
	{vehicle.ErrNotFound, http.StatusNotFound},
	{pricing.ErrRateNotFound, http.StatusNotFound},
	{maps.ErrNoRoute, http.StatusNotFound},

	{booking.ErrInvalidState, http.StatusConflict},
	{booking.ErrConflict, http.StatusConflict},
	{booking.ErrDeadlinePassed, http.StatusConflict},
	{pooling.ErrNoSeats, http.StatusConflict},
	{pooling.ErrRideClosed, http.StatusConflict},
	{pooling.ErrRideHasPaid, http.StatusConflict},
	{payment.ErrNotPayable, http.StatusConflict},
	{ledger.ErrDuplicate, http.StatusConflict},

	{payment.ErrNotConfigured, http.StatusServiceUnavailable},
	{payment.ErrGateway, http.StatusBadGateway},
}

// writeServiceError maps module sentinels to status codes. Unknown errors become a bare 500 and the
// cause is attached to the gin context for the request log.
func writeServiceError(c *gin.Context, err error) {
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			writeError(c, m.status, err.Error())
			return
		}
	}
	_ = c.Error(err)
	writeError(c, http.StatusInternalServerError, "internal error")
}
