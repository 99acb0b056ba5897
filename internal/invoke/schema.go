package invoke

import (
	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/pkg/gemini"
)

// ResponseSchema describes the JSON object the model is asked to return.
// Ratings are 0..10 and the floor count is non-negative.
func ResponseSchema() *gemini.Schema {
	rating := func() *gemini.Schema {
		return &gemini.Schema{Type: gemini.TypeNumber, Description: "rating from 0 to 10"}
	}
	return &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			model.KeyTitle:       {Type: gemini.TypeString},
			model.KeyDescription: {Type: gemini.TypeString},
			model.KeyAddress:     {Type: gemini.TypeString},
			model.KeyLat:         {Type: gemini.TypeNumber},
			model.KeyLon:         {Type: gemini.TypeNumber},
			model.KeyURL:         {Type: gemini.TypeString},
			model.KeyDate:        {Type: gemini.TypeString},
			model.KeyGuarded:     rating(),
			model.KeyInterior:    rating(),
			model.KeyAge:         rating(),
			model.KeyOverall:     rating(),
			model.KeyFloors:      {Type: gemini.TypeNumber, Description: "number of floors, at least 0"},
		},
	}
}
