package domain

import "strings"

// Prescription is the read-only context of a specs order. Lens and coating
// prices are derived from it by the pricing package; the frame itself is an
// ordinary catalog line in the cart.
type Prescription struct {
	ID                string `json:"id,omitempty"`
	LensType          string `json:"lens_type"`
	LensMaterial      string `json:"lens_material"`
	Coatings          string `json:"coatings"` // comma-delimited, blanks ignored
	PupillaryDistance string `json:"pupillary_distance,omitempty"`
}

// CoatingList splits the comma-delimited coatings field, dropping blanks.
func (p Prescription) CoatingList() []string {
	var coatings []string
	for _, c := range strings.Split(p.Coatings, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			coatings = append(coatings, c)
		}
	}
	return coatings
}

func (p Prescription) IsZero() bool {
	return p.LensType == "" && p.LensMaterial == "" && len(p.CoatingList()) == 0
}
