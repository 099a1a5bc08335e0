package domain

import (
	"strconv"
	"strings"
	"time"
)

// Listing is one purchasable menu entry inside a restaurant catalog.
type Listing struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	// Price is denominated in currency minor units (cents).
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url,omitempty"`
	Available bool   `json:"available"`
}

// ListingPage is one page of a paginated restaurant catalog.
type ListingPage struct {
	Items []Listing `json:"items"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int       `json:"total"`
}

// Restaurant stores the venue payload used for ordering decisions.
type Restaurant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	Location    Location `json:"location"`
	Currency    string   `json:"currency"`
	// DeliveryFee is denominated in currency minor units.
	DeliveryFee    int64 `json:"delivery_fee"`
	MinOrderAmount int64 `json:"min_order_amount,omitempty"`
	Delivers       bool  `json:"delivers"`
	FlashDeal      bool  `json:"flash_deal"`
	Rating         float64 `json:"rating,omitempty"`
	// WorkingHoursStart and WorkingHoursEnd are local wall-clock values
	// in "HH:MM" form. An end before the start spans midnight.
	WorkingHoursStart string `json:"working_hours_start"`
	WorkingHoursEnd   string `json:"working_hours_end"`
	// WorkingDays holds lowercase english weekday names.
	WorkingDays []string `json:"working_days"`
}

// WorksOn reports whether the restaurant accepts orders on the given weekday.
func (r Restaurant) WorksOn(day time.Weekday) bool {
	want := strings.ToLower(day.String())
	for _, d := range r.WorkingDays {
		if strings.ToLower(strings.TrimSpace(d)) == want {
			return true
		}
	}
	return false
}

// OpenAt reports whether the restaurant is open at the given local time.
// Unparseable or missing hour bounds are treated as closed.
func (r Restaurant) OpenAt(t time.Time) bool {
	if !r.WorksOn(t.Weekday()) {
		return false
	}
	start, okStart := parseWallClock(r.WorkingHoursStart)
	end, okEnd := parseWallClock(r.WorkingHoursEnd)
	if !okStart || !okEnd {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	if end <= start {
		// window spans midnight
		return minute >= start || minute < end
	}
	return minute >= start && minute < end
}

func parseWallClock(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
