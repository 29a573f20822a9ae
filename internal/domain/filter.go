package domain

import "github.com/shopspring/decimal"

// SearchFilter describes a buyer catalog query. Zero values mean "no
// constraint". Price, carat, shape, color, clarity and finish constraints
// translate directly to store predicates; diameter, length and width are
// derived from the composite measurement string and need an in-process pass.
type SearchFilter struct {
	Query     string
	Shapes    []string
	Colors    []string
	Clarities []string

	// Finish grades apply to cut, polish and symmetry for round stones but
	// only to polish and symmetry for other shapes, which carry no cut grade.
	Finish []string

	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	CaratMin *decimal.Decimal
	CaratMax *decimal.Decimal

	Diameter  string
	LengthMin *float64
	LengthMax *float64
	WidthMin  *float64
	WidthMax  *float64
}

// NeedsMeasurementPass reports whether any filter depends on values parsed
// out of the measurement string. When true the result cap must be deferred
// until after that pass.
func (f SearchFilter) NeedsMeasurementPass() bool {
	return f.Diameter != "" ||
		f.LengthMin != nil || f.LengthMax != nil ||
		f.WidthMin != nil || f.WidthMax != nil
}

// Validate rejects inverted ranges before the store is touched.
func (f SearchFilter) Validate() error {
	if f.PriceMin != nil && f.PriceMax != nil && f.PriceMin.GreaterThan(*f.PriceMax) {
		return ErrInvalidRange
	}
	if f.CaratMin != nil && f.CaratMax != nil && f.CaratMin.GreaterThan(*f.CaratMax) {
		return ErrInvalidRange
	}
	if f.LengthMin != nil && f.LengthMax != nil && *f.LengthMin > *f.LengthMax {
		return ErrInvalidRange
	}
	if f.WidthMin != nil && f.WidthMax != nil && *f.WidthMin > *f.WidthMax {
		return ErrInvalidRange
	}
	return nil
}

// MatchesMeasurement applies the derived diameter/length/width constraints
// to an item's measurement string. Items with malformed or missing strings
// parse as 0, failing any minimum but passing when no minimum is set.
func (f SearchFilter) MatchesMeasurement(measurement string) bool {
	if !f.NeedsMeasurementPass() {
		return true
	}
	length, width := ParseMeasurement(measurement)
	if f.LengthMin != nil && length < *f.LengthMin {
		return false
	}
	if f.LengthMax != nil && length > *f.LengthMax {
		return false
	}
	if f.WidthMin != nil && width < *f.WidthMin {
		return false
	}
	if f.WidthMax != nil && width > *f.WidthMax {
		return false
	}
	if f.Diameter != "" && !DiameterMatches(measurement, f.Diameter) {
		return false
	}
	return true
}
