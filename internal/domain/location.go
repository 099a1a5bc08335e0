package domain

// Location identifies a point on earth.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsZero reports whether the location carries no coordinates.
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lon == 0
}
