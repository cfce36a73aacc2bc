// README: Booking handlers: create, status, cancellation, checkout, receipt and admin review.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taxihub/internal/http/middleware"
	"taxihub/internal/modules/booking"
	"taxihub/internal/modules/payment"
	"taxihub/internal/receipt"
	"taxihub/internal/types"
)

type BookingService interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	List(ctx context.Context, f booking.Filter) ([]booking.Booking, error)
	Approve(ctx context.Context, id types.ID, adminID string) (*booking.Booking, error)
	Reject(ctx context.Context, id types.ID, adminID, reason string) (*booking.Booking, error)
	Complete(ctx context.Context, id types.ID, actorType string) (*booking.Booking, error)
	Cancel(ctx context.Context, cmd booking.CancelCommand) (*booking.Booking, error)
	Cancellation(ctx context.Context, id types.ID) (booking.Cancellation, error)
}

// Checkouts is satisfied by *payment.Service.
type Checkouts interface {
	CheckoutBooking(ctx context.Context, id types.ID) (payment.Session, error)
	CheckoutSeatRequest(ctx context.Context, id types.ID) (payment.Session, error)
}

type BookingHandler struct {
	bookings BookingService
	payments Checkouts
	now      func() time.Time
}

func NewBookingHandler(bookings BookingService, payments Checkouts) *BookingHandler {
	return &BookingHandler{bookings: bookings, payments: payments, now: time.Now}
}

type createBookingReq struct {
	PassengerName  string     `json:"passenger_name" binding:"required,max=120"`
	PassengerPhone string     `json:"passenger_phone" binding:"required,max=20"`
	PassengerEmail string     `json:"passenger_email" binding:"omitempty,email"`
	VehicleID      string     `json:"vehicle_id" binding:"required"`
	TripType       string     `json:"trip_type" binding:"required"`
	TripMode       string     `json:"trip_mode"`
	PackageID      string     `json:"package_id"`
	PickupLocation string     `json:"pickup_location" binding:"required,max=300"`
	DropLocation   string     `json:"drop_location" binding:"max=300"`
	PickupAt       time.Time  `json:"pickup_at" binding:"required"`
	ReturnAt       *time.Time `json:"return_at"`
	DistanceKm     float64    `json:"distance_km" binding:"gte=0"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if !bindJSON(c, &req) {
		return
	}
	tripType, ok := types.ParseTripType(req.TripType)
	if !ok {
		writeError(c, http.StatusBadRequest, "trip_type must be local, outstation or airport")
		return
	}
	var mode types.TripMode
	if req.TripMode != "" {
		mode = types.ParseTripMode(req.TripMode)
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		PassengerUID:   middleware.CallerUID(c),
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
		PassengerEmail: req.PassengerEmail,
		VehicleID:      req.VehicleID,
		TripType:       tripType,
		TripMode:       mode,
		PackageID:      req.PackageID,
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		PickupAt:       req.PickupAt,
		ReturnAt:       req.ReturnAt,
		DistanceKm:     req.DistanceKm,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}

// load fetches the booking and enforces that a booking owned by a signed-in passenger is only
// visible to that passenger or an admin.
func (h *BookingHandler) load(c *gin.Context) (*booking.Booking, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	b, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return nil, false
	}
	if b.PassengerUID != "" && b.PassengerUID != middleware.CallerUID(c) && middleware.CallerRole(c) != middleware.RoleAdmin {
		writeServiceError(c, booking.ErrForbidden)
		return nil, false
	}
	return b, true
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Cancellation(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	info, err := h.bookings.Cancellation(c.Request.Context(), b.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, info)
}

type reasonReq struct {
	Reason string `json:"reason" binding:"max=500"`
}

// bindReason accepts an empty body.
func bindReason(c *gin.Context) (string, bool) {
	var req reasonReq
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return "", false
	}
	return req.Reason, true
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	actor := booking.ActorPassenger
	if middleware.CallerRole(c) == middleware.RoleAdmin {
		actor = booking.ActorAdmin
	}
	b, err := h.bookings.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: id,
		ActorType: actor,
		ActorID:   middleware.CallerUID(c),
		Reason:    reason,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Checkout(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	sess, err := h.payments.CheckoutBooking(c.Request.Context(), b.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}

func (h *BookingHandler) Receipt(c *gin.Context) {
	b, ok := h.load(c)
	if !ok {
		return
	}
	pdf, name, err := receipt.Render(b, h.now())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// AdminList filters by ?status= and caps the page with ?limit=.
func (h *BookingHandler) AdminList(c *gin.Context) {
	var f booking.Filter
	if v := c.Query("status"); v != "" {
		st, ok := booking.ParseStatus(v)
		if !ok {
			writeError(c, http.StatusBadRequest, "unknown status")
			return
		}
		f.Status = st
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}
	list, err := h.bookings.List(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.bookings.Approve(c.Request.Context(), id, middleware.CallerUID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	b, err := h.bookings.Reject(c.Request.Context(), id, middleware.CallerUID(c), reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.bookings.Complete(c.Request.Context(), id, booking.ActorAdmin)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

// Mine lists the signed-in passenger's bookings.
func (h *BookingHandler) Mine(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context(), booking.Filter{PassengerUID: middleware.CallerUID(c), Limit: 100})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": list})
}
