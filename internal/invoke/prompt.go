package invoke

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/abandonsearch/place-rater/internal/model"
)

const requestedFormat = `{
  "title": "",
  "description":"",
  "address": "",
  "lat":,
  "lon":,
  "url": "",
  "date": "",
  "Охраняемость": ,
  "Заполненость интерьера": ,
  "Давность здания": ,
  "Общий рейтинг(0-10 stars)": ,
  "Этажей": 
}`

const instruction = "Analyses place from this json. and convert it into such format:\n" +
	requestedFormat + "\n\n" +
	"Each new parameter should be rated from 0-10. Охраняемость is bad, so more is worse. " +
	"Also provide 'Этажей' (number of floors) as a number — predict it from the image when description doesn't say. " +
	"Analyse description and image (predict by image how many floors the place has if description doesn't provide such info). " +
	"As output, provide only new json with added parameters, without anything else. Only json. " +
	"Preserve the original values for title, description (if present), address, lat, lon, url, date exactly as given; " +
	"only add the rating fields and 'Этажей'."

// BuildPrompt returns the instruction followed by the place serialized as
// compact JSON with non-ASCII text left unescaped.
func BuildPrompt(place model.Place) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(place); err != nil {
		return "", eris.Wrap(err, "invoke: encode place")
	}
	blob := strings.TrimRight(buf.String(), "\n")
	return instruction + "\n\nPLACE_JSON:\n" + blob, nil
}
