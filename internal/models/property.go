package models

// Property is directory data the booking core reads but never writes.
type Property struct {
	ID           int64   `json:"id" yaml:"id"`
	Title        string  `json:"title" yaml:"title"`
	City         string  `json:"city" yaml:"city"`
	Neighborhood string  `json:"neighborhood" yaml:"neighborhood"`
	Price        float64 `json:"price" yaml:"price"`
	LandlordID   int64   `json:"landlord_id" yaml:"landlord_id"`
	IsActive     bool    `json:"is_active" yaml:"is_active"`
}
