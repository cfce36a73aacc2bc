// README: Pool ride handlers: search, publishing and the seat request workflow.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taxihub/internal/http/middleware"
	"taxihub/internal/modules/pooling"
	"taxihub/internal/types"
)

type PoolService interface {
	PublishRide(ctx context.Context, cmd pooling.PublishCommand) (*pooling.Ride, error)
	GetRide(ctx context.Context, id types.ID) (*pooling.Ride, error)
	Search(ctx context.Context, q pooling.SearchQuery) ([]pooling.Ride, error)
	GetRequest(ctx context.Context, id types.ID) (*pooling.SeatRequest, error)
	RequestSeats(ctx context.Context, cmd pooling.SeatCommand) (*pooling.SeatRequest, error)
	Approve(ctx context.Context, requestID types.ID, providerUID string) (*pooling.SeatRequest, error)
	Reject(ctx context.Context, requestID types.ID, providerUID, reason string) (*pooling.SeatRequest, error)
	Cancel(ctx context.Context, requestID types.ID, passengerUID, reason string) (*pooling.SeatRequest, error)
	CancelRide(ctx context.Context, rideID types.ID, providerUID, reason string) (*pooling.Ride, error)
}

type PoolHandler struct {
	pool     PoolService
	payments Checkouts
}

func NewPoolHandler(pool PoolService, payments Checkouts) *PoolHandler {
	return &PoolHandler{pool: pool, payments: payments}
}

// Search reads from, to, date (YYYY-MM-DD), seats and limit from the query.
func (h *PoolHandler) Search(c *gin.Context) {
	q := pooling.SearchQuery{FromCity: c.Query("from"), ToCity: c.Query("to")}
	if v := c.Query("date"); v != "" {
		d, ok := parseDate(v)
		if !ok {
			writeError(c, http.StatusBadRequest, "invalid date")
			return
		}
		q.Date = d
	}
	for _, p := range []struct {
		key string
		dst *int
	}{{"seats", &q.Seats}, {"limit", &q.Limit}} {
		if v := c.Query(p.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(c, http.StatusBadRequest, "invalid "+p.key)
				return
			}
			*p.dst = n
		}
	}
	rides, err := h.pool.Search(c.Request.Context(), q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": rides})
}

func (h *PoolHandler) GetRide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ride, err := h.pool.GetRide(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, ride)
}

type publishRideReq struct {
	ProviderName  string    `json:"provider_name" binding:"required,max=120"`
	ProviderPhone string    `json:"provider_phone" binding:"max=20"`
	VehicleID     string    `json:"vehicle_id" binding:"required"`
	FromCity      string    `json:"from_city" binding:"required,max=80"`
	ToCity        string    `json:"to_city" binding:"required,max=80"`
	DepartAt      time.Time `json:"depart_at" binding:"required"`
	Seats         int       `json:"seats" binding:"required,min=1,max=50"`
	PricePerSeat  float64   `json:"price_per_seat" binding:"gt=0"`
	Notes         string    `json:"notes" binding:"max=500"`
}

func (h *PoolHandler) Publish(c *gin.Context) {
	var req publishRideReq
	if !bindJSON(c, &req) {
		return
	}
	ride, err := h.pool.PublishRide(c.Request.Context(), pooling.PublishCommand{
		ProviderUID:   middleware.CallerUID(c),
		ProviderName:  req.ProviderName,
		ProviderPhone: req.ProviderPhone,
		VehicleID:     req.VehicleID,
		FromCity:      req.FromCity,
		ToCity:        req.ToCity,
		DepartAt:      req.DepartAt,
		Seats:         req.Seats,
		PricePerSeat:  req.PricePerSeat,
		Notes:         req.Notes,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, ride)
}

type seatReq struct {
	PassengerName  string `json:"passenger_name" binding:"required,max=120"`
	PassengerPhone string `json:"passenger_phone" binding:"required,max=20"`
	PassengerEmail string `json:"passenger_email" binding:"omitempty,email"`
	Seats          int    `json:"seats" binding:"required,min=1"`
}

func (h *PoolHandler) RequestSeats(c *gin.Context) {
	rideID, ok := pathID(c)
	if !ok {
		return
	}
	var req seatReq
	if !bindJSON(c, &req) {
		return
	}
	sr, err := h.pool.RequestSeats(c.Request.Context(), pooling.SeatCommand{
		RideID:         rideID,
		PassengerUID:   middleware.CallerUID(c),
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
		PassengerEmail: req.PassengerEmail,
		Seats:          req.Seats,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, sr)
}

func (h *PoolHandler) GetRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sr, err := h.pool.GetRequest(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if sr.PassengerUID != "" && sr.PassengerUID != middleware.CallerUID(c) && middleware.CallerRole(c) != middleware.RoleAdmin {
		writeServiceError(c, pooling.ErrForbidden)
		return
	}
	writeJSON(c, http.StatusOK, sr)
}

func (h *PoolHandler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sr, err := h.pool.Approve(c.Request.Context(), id, middleware.CallerUID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sr)
}

func (h *PoolHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	sr, err := h.pool.Reject(c.Request.Context(), id, middleware.CallerUID(c), reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sr)
}

func (h *PoolHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	sr, err := h.pool.Cancel(c.Request.Context(), id, middleware.CallerUID(c), reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sr)
}

// CancelRide withdraws the caller's ride and closes its open seat requests.
func (h *PoolHandler) CancelRide(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	ride, err := h.pool.CancelRide(c.Request.Context(), id, middleware.CallerUID(c), reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, ride)
}

func (h *PoolHandler) Checkout(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sess, err := h.payments.CheckoutSeatRequest(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}
