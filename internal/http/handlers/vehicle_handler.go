// README: Fleet catalogue handlers (public list and admin maintenance).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"taxihub/internal/modules/vehicle"
)

type VehicleCatalog interface {
	Active(ctx context.Context) ([]vehicle.Vehicle, error)
	ActiveIDs(ctx context.Context) ([]string, error)
}

type VehicleService interface {
	VehicleCatalog
	All(ctx context.Context) ([]vehicle.Vehicle, error)
	Get(ctx context.Context, id string) (vehicle.Vehicle, error)
	Upsert(ctx context.Context, v vehicle.Vehicle) (vehicle.Vehicle, error)
	Deactivate(ctx context.Context, id string) error
}

type VehicleHandler struct {
	vehicles VehicleService
}

func NewVehicleHandler(svc VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicles: svc}
}

func (h *VehicleHandler) List(c *gin.Context) {
	list, err := h.vehicles.Active(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": list})
}

func (h *VehicleHandler) Get(c *gin.Context) {
	v, err := h.vehicles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

// AdminList includes inactive vehicles.
func (h *VehicleHandler) AdminList(c *gin.Context) {
	list, err := h.vehicles.All(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": list})
}

func (h *VehicleHandler) Upsert(c *gin.Context) {
	var v vehicle.Vehicle
	if !bindJSON(c, &v) {
		return
	}
	saved, err := h.vehicles.Upsert(c.Request.Context(), v)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, saved)
}

func (h *VehicleHandler) Deactivate(c *gin.Context) {
	if err := h.vehicles.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
