package slapi

import (
	"encoding/json"
	"fmt"

	"github.com/busboard/internal/departures"
)

// JSONDecoder implements departures.Decoder for realtimedeparturesV4 bodies
type JSONDecoder struct{}

func (JSONDecoder) Decode(body []byte) (*departures.Document, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("unmarshal departures: %w", err)
	}

	doc := &departures.Document{StatusCode: r.StatusCode}
	if r.Message != nil {
		doc.Message = *r.Message
	}
	if r.ResponseData == nil {
		return doc, nil
	}

	doc.LatestUpdate = r.ResponseData.LatestUpdate
	doc.DataAge = r.ResponseData.DataAge
	doc.Buses = make([]departures.RawBusEntry, 0, len(r.ResponseData.Buses))
	for _, b := range r.ResponseData.Buses {
		doc.Buses = append(doc.Buses, departures.RawBusEntry{
			JourneyDirection: b.JourneyDirection,
			LineNumber:       b.LineNumber,
			ExpectedDateTime: b.ExpectedDateTime,
			JourneyNumber:    b.JourneyNumber,
		})
	}
	return doc, nil
}
