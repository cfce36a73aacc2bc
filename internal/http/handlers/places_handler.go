// README: Pickup and drop address suggestions.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"taxihub/internal/maps"
)

type PlaceSuggester interface {
	Suggest(ctx context.Context, input string) ([]maps.Suggestion, error)
}

type PlacesHandler struct {
	places PlaceSuggester
}

func NewPlacesHandler(places PlaceSuggester) *PlacesHandler {
	return &PlacesHandler{places: places}
}

func (h *PlacesHandler) Autocomplete(c *gin.Context) {
	list, err := h.places.Suggest(c.Request.Context(), c.Query("input"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if list == nil {
		list = []maps.Suggestion{}
	}
	writeJSON(c, http.StatusOK, gin.H{"suggestions": list})
}
