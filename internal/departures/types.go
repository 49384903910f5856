// Package departures merges upcoming bus arrivals from several stops into a
// single chronologically ordered board.
package departures

import "time"

// InboundDirection is the only journey direction surfaced on the board.
const InboundDirection = 2

// StopQuery configures one stop of an aggregation pass.
type StopQuery struct {
	StopID             int `yaml:"stop_id" validate:"gt=0"`
	MinimumLeadMinutes int `yaml:"min_lead_minutes" validate:"gte=0"`
}

// RawBusEntry is one decoded bus element of an API response.
type RawBusEntry struct {
	JourneyDirection int
	LineNumber       string
	ExpectedDateTime string
	JourneyNumber    int
}

// Document is a decoded departures snapshot for one stop.
type Document struct {
	StatusCode   int
	Message      string
	LatestUpdate string
	DataAge      int
	Buses        []RawBusEntry
}

// ArrivalRecord is a normalized arrival of one journey at one stop.
type ArrivalRecord struct {
	LineNumber    string `json:"line_number"`
	ArrivalClock  string `json:"arrival_clock"`
	MinutesUntil  string `json:"minutes_until"`
	Minutes       int    `json:"minutes"`
	JourneyNumber int    `json:"journey_number"`
	StopID        int    `json:"stop_id"`
}

// StopResult holds the surviving records of one stop query.
// cap(Records) is the decoded entry count of the response.
type StopResult struct {
	StopID  int
	Records []ArrivalRecord
}

// Board is the merged result of an aggregation pass, sorted by ArrivalClock.
type Board struct {
	Records     []ArrivalRecord `json:"records"`
	GeneratedAt time.Time       `json:"generated_at"`
}
