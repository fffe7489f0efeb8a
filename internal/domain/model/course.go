package model

// Course is a golf course in the catalog.
type Course struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Location        string  `json:"location"`
	Holes           int     `json:"holes"`
	Difficulty      float64 `json:"difficulty"`
	HasDrivingRange bool    `json:"has_driving_range"`
	HasPuttingGreen bool    `json:"has_putting_green"`

	// Optional rating data, zero when unknown.
	Par    int     `json:"par,omitempty"`
	Rating float64 `json:"course_rating,omitempty"`
	Slope  int     `json:"slope,omitempty"`
}

// HasPracticeFacility reports whether the course offers any practice area.
func (c Course) HasPracticeFacility() bool {
	return c.HasDrivingRange || c.HasPuttingGreen
}

// Rated reports whether the course carries the data needed for a
// handicap differential.
func (c Course) Rated() bool {
	return c.Rating > 0 && c.Slope > 0
}
