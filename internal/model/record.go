package model

// Rating and floor-count keys produced by the model. The names are part of
// the output format consumed by the map app and must not change.
const (
	KeyGuarded   = "Охраняемость"
	KeyInterior  = "Заполненость интерьера"
	KeyAge       = "Давность здания"
	KeyOverall   = "Общий рейтинг(0-10 stars)"
	KeyFloors    = "Этажей"
	RatingMax    = 10.0
	RatingMin    = 0.0
	FloorEpsilon = 1e-6
)

// RatingKeys lists the four rating fields in output order.
var RatingKeys = []string{KeyGuarded, KeyInterior, KeyAge, KeyOverall}

// FinalizedRecord is one entry of the output ledger. Field order matches the
// output document.
type FinalizedRecord struct {
	Title       any `json:"title"`
	Description any `json:"description"`
	Address     any `json:"address"`
	Lat         any `json:"lat"`
	Lon         any `json:"lon"`
	URL         any `json:"url"`
	Date        any `json:"date"`

	Guarded  float64 `json:"Охраняемость"`
	Interior float64 `json:"Заполненость интерьера"`
	Age      float64 `json:"Давность здания"`
	Overall  float64 `json:"Общий рейтинг(0-10 stars)"`

	Floors *float64 `json:"Этажей"`
}

// Ratings returns the four rating values in RatingKeys order.
func (r FinalizedRecord) Ratings() []float64 {
	return []float64{r.Guarded, r.Interior, r.Age, r.Overall}
}
