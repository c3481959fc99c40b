package places

// nearbySearchResponse is the Places API nearby search payload.
type nearbySearchResponse struct {
	Results      []placeResult `json:"results"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

type placeResult struct {
	Geometry     geometry      `json:"geometry"`
	Name         string        `json:"name"`
	OpeningHours *openingHours `json:"opening_hours,omitempty"`
	Photos       []photo       `json:"photos,omitempty"`
	PlaceID      string        `json:"place_id"`
	Rating       *float64      `json:"rating,omitempty"`
	Vicinity     *string       `json:"vicinity,omitempty"`
}

type geometry struct {
	Location location `json:"location"`
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type openingHours struct {
	OpenNow *bool `json:"open_now,omitempty"`
}

type photo struct {
	PhotoReference string `json:"photo_reference"`
}

// Restaurant is a nearby search candidate. Optional fields stay nil when
// the API omits them so callers can tell "missing" from "zero".
type Restaurant struct {
	PlaceID         string
	Name            string
	Rating          *float64
	Vicinity        *string
	OpenNow         *bool
	PhotoReferences []string
	Lat             float64
	Lng             float64
}

func (p placeResult) toRestaurant() Restaurant {
	r := Restaurant{
		PlaceID:  p.PlaceID,
		Name:     p.Name,
		Rating:   p.Rating,
		Vicinity: p.Vicinity,
		Lat:      p.Geometry.Location.Lat,
		Lng:      p.Geometry.Location.Lng,
	}
	if p.OpeningHours != nil {
		r.OpenNow = p.OpeningHours.OpenNow
	}
	for _, ph := range p.Photos {
		if ph.PhotoReference != "" {
			r.PhotoReferences = append(r.PhotoReferences, ph.PhotoReference)
		}
	}
	return r
}
