package departures

const (
	lineNumberWidth   = 3
	arrivalClockWidth = 5
)

// NewArrivalRecord normalizes one bus entry of doc for stopID. It reports
// false when the entry is not inbound or arrives sooner than minLead minutes.
func NewArrivalRecord(entry RawBusEntry, doc *Document, stopID, minLead int) (ArrivalRecord, bool) {
	if entry.JourneyDirection != InboundDirection {
		return ArrivalRecord{}, false
	}

	minutes := MinutesUntil(doc.LatestUpdate, doc.DataAge, entry.ExpectedDateTime)
	if minutes < minLead {
		return ArrivalRecord{}, false
	}

	return ArrivalRecord{
		LineNumber:    truncate(entry.LineNumber, lineNumberWidth),
		ArrivalClock:  truncate(clockPart(entry.ExpectedDateTime), arrivalClockWidth),
		MinutesUntil:  TwoDigits(minutes),
		Minutes:       minutes,
		JourneyNumber: entry.JourneyNumber,
		StopID:        stopID,
	}, true
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
