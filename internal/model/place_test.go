package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlace_Get(t *testing.T) {
	p := Place{"title": "Завод", "lat": nil}

	assert.Equal(t, "Завод", p.Get(KeyTitle, ""))
	assert.Nil(t, p.Get(KeyLat, 1.0), "present nil value wins over default")
	assert.Equal(t, "fallback", p.Get(KeyURL, "fallback"))
}

func TestPlace_Title(t *testing.T) {
	assert.Equal(t, "Больница", Place{"title": "Больница"}.Title())
	assert.Empty(t, Place{"title": 42}.Title())
	assert.Empty(t, Place{}.Title())
}

func TestPlace_WithDefaults(t *testing.T) {
	p := Place{"title": "A", "extra": true}
	out := p.WithDefaults()

	assert.Equal(t, "A", out[KeyTitle])
	assert.Equal(t, "", out[KeyAddress])
	assert.Equal(t, "", out[KeyURL])
	assert.Equal(t, "", out[KeyDate])
	assert.Contains(t, out, KeyLat)
	assert.Nil(t, out[KeyLat])
	assert.Contains(t, out, KeyLon)
	assert.Equal(t, true, out["extra"])

	// description is not seeded
	assert.NotContains(t, out, KeyDescription)
	// input untouched
	assert.Len(t, p, 2)
}

func TestPlace_Images(t *testing.T) {
	var p Place
	require.NoError(t, json.Unmarshal([]byte(`{"images": ["a.jpg", null, 7, "data:image/png;base64,AA=="]}`), &p))

	assert.Equal(t, []string{"a.jpg", "7", "data:image/png;base64,AA=="}, p.Images())
	assert.Nil(t, Place{"images": "a.jpg"}.Images())
	assert.Nil(t, Place{}.Images())
}

func TestFinalizedRecord_FieldOrder(t *testing.T) {
	floors := 3.0
	rec := FinalizedRecord{
		Title: "t", Description: "d", Address: "a", Lat: 1.5, Lon: nil, URL: "u", Date: "2020",
		Guarded: 1, Interior: 2, Age: 3, Overall: 4, Floors: &floors,
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.Equal(t,
		`{"title":"t","description":"d","address":"a","lat":1.5,"lon":null,"url":"u","date":"2020",`+
			`"Охраняемость":1,"Заполненость интерьера":2,"Давность здания":3,"Общий рейтинг(0-10 stars)":4,"Этажей":3}`,
		string(data))
	assert.Equal(t, []float64{1, 2, 3, 4}, rec.Ratings())
}

func TestFinalizedRecord_NilFloors(t *testing.T) {
	data, err := json.Marshal(FinalizedRecord{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Этажей":null`)
}

func TestPayloadConstructors(t *testing.T) {
	p := Parsed(map[string]any{"x": 1})
	assert.Equal(t, PayloadParsed, p.Kind)
	assert.Equal(t, "parsed", p.Kind.String())

	r := RawFallback("oops")
	assert.Equal(t, PayloadRaw, r.Kind)
	assert.Equal(t, "oops", r.Text)

	m := Missing(NoUsableOutput)
	assert.Equal(t, PayloadMissing, m.Kind)
	assert.Equal(t, "missing", m.Kind.String())
	assert.Equal(t, "unknown", PayloadKind(9).String())
}
