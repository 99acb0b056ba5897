package rating

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abandonsearch/place-rater/internal/model"
)

func TestClampRating(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{json.Number("5"), 5},
		{json.Number("12.5"), 10},
		{json.Number("-3"), 0},
		{7.25, 7.25},
		{float32(2.5), 2.5},
		{int(11), 10},
		{int64(4), 4},
		{" 6.5 ", 6.5},
		{"many", 0},
		{true, 1},
		{false, 0},
		{nil, 0},
		{[]any{1}, 0},
		{math.NaN(), 0},
		{math.Inf(1), 10},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampRating(tt.in), "%#v", tt.in)
	}
}

func TestClampRating_AlwaysInRange(t *testing.T) {
	for _, v := range []any{-1e308, 1e308, "1e400", json.Number("-0"), "NaN"} {
		got := ClampRating(v)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 10.0)
	}
}

func TestNormalizeFloors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"nil", nil, nil},
		{"non numeric", "several", nil},
		{"object", map[string]any{}, nil},
		{"negative", json.Number("-2"), floorsPtr(0)},
		{"integer", json.Number("4"), floorsPtr(4)},
		{"near integer", 2.0000001, floorsPtr(2)},
		{"near integer below", 2.9999999, floorsPtr(3)},
		{"fraction kept", 2.5, floorsPtr(2.5)},
		{"numeric string", "3", floorsPtr(3)},
		{"nan", math.NaN(), nil},
		{"inf", math.Inf(1), nil},
		{"negative inf", math.Inf(-1), floorsPtr(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFloors(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestMerge_Parsed(t *testing.T) {
	place := model.Place{
		"title":       "Санаторий",
		"description": "Заброшен с 1998",
		"address":     "Крым",
		"lat":         json.Number("44.5000"),
		"lon":         json.Number("34.1"),
		"url":         "https://example.com/1",
		"date":        "2023-01-01",
		"images":      []any{"x"},
	}
	payload := ParsePayload(`{"title": "changed", "Охраняемость": 11, "Заполненость интерьера": "4", "Давность здания": -1, "Общий рейтинг(0-10 stars)": 6.5, "Этажей": 3.0000001}`)

	rec := Merge(place, payload)

	assert.Equal(t, "Санаторий", rec.Title)
	assert.Equal(t, "Заброшен с 1998", rec.Description)
	assert.Equal(t, json.Number("44.5000"), rec.Lat)
	assert.Equal(t, 10.0, rec.Guarded)
	assert.Equal(t, 4.0, rec.Interior)
	assert.Equal(t, 0.0, rec.Age)
	assert.Equal(t, 6.5, rec.Overall)
	require.NotNil(t, rec.Floors)
	assert.Equal(t, 3.0, *rec.Floors)
}

func TestMerge_Defaults(t *testing.T) {
	rec := Merge(model.Place{}, model.Missing(model.NoUsableOutput))

	assert.Equal(t, "", rec.Title)
	assert.Equal(t, "", rec.Description)
	assert.Equal(t, "", rec.Address)
	assert.Nil(t, rec.Lat)
	assert.Nil(t, rec.Lon)
	assert.Equal(t, "", rec.URL)
	assert.Equal(t, "", rec.Date)
	assert.Equal(t, []float64{0, 0, 0, 0}, rec.Ratings())
	assert.Nil(t, rec.Floors)
}

func TestMerge_RawPayloadHasNoRatings(t *testing.T) {
	rec := Merge(model.Place{"title": "t"}, model.RawFallback(`{"Этажей": 3`))
	assert.Equal(t, "t", rec.Title)
	assert.Equal(t, []float64{0, 0, 0, 0}, rec.Ratings())
	assert.Nil(t, rec.Floors)
}

func TestMerge_NormalizesKeys(t *testing.T) {
	// "Этажей" with a decomposed "й" (и + U+0306) and padding.
	decomposed := " Этаже" + "\u0438\u0306" + " "
	payload := model.Parsed(map[string]any{
		decomposed:      json.Number("9"),
		"Охраняемость ": json.Number("2"),
	})

	rec := Merge(model.Place{}, payload)
	require.NotNil(t, rec.Floors)
	assert.Equal(t, 9.0, *rec.Floors)
	assert.Equal(t, 2.0, rec.Guarded)
}

func TestMerge_ExactKeyWins(t *testing.T) {
	payload := model.Parsed(map[string]any{
		"Этажей":   json.Number("1"),
		" Этажей ": json.Number("7"),
	})
	rec := Merge(model.Place{}, payload)
	require.NotNil(t, rec.Floors)
	assert.Equal(t, 1.0, *rec.Floors)
}
