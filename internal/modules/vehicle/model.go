// README: Fleet catalogue entries shown on the booking widget.
package vehicle

import "time"

// Vehicle is one bookable cab class. Optional fields are pointers so "unset" survives a round trip.
type Vehicle struct {
	ID              string    `json:"id" binding:"required,max=64"`
	Name            string    `json:"name" binding:"required,max=120"`
	Category        string    `json:"category" binding:"omitempty,oneof=sedan suv muv tempo luxury"`
	Capacity        int       `json:"capacity" binding:"required,min=1,max=60"`
	LuggageCapacity int       `json:"luggage_capacity" binding:"min=0,max=60"`
	AC              bool      `json:"ac"`
	Amenities       []string  `json:"amenities,omitempty" binding:"max=20,dive,max=40"`
	Description     *string   `json:"description,omitempty" binding:"omitempty,max=1000"`
	ImageURL        *string   `json:"image_url,omitempty" binding:"omitempty,url"`
	SortOrder       int       `json:"sort_order"`
	Active          bool      `json:"active"`
	UpdatedAt       time.Time `json:"updated_at"`
}
