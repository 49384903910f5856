package slapi

// response mirrors the realtimedeparturesV4 JSON document. Only the fields
// the board needs are decoded.
type response struct {
	StatusCode    int           `json:"StatusCode"`
	Message       *string       `json:"Message"`
	ExecutionTime int           `json:"ExecutionTime"`
	ResponseData  *responseData `json:"ResponseData"`
}

type responseData struct {
	LatestUpdate string `json:"LatestUpdate"`
	DataAge      int    `json:"DataAge"`
	Buses        []bus  `json:"Buses"`
}

type bus struct {
	JourneyDirection int    `json:"JourneyDirection"`
	LineNumber       string `json:"LineNumber"`
	Destination      string `json:"Destination"`
	ExpectedDateTime string `json:"ExpectedDateTime"`
	JourneyNumber    int    `json:"JourneyNumber"`
	SiteID           int    `json:"SiteId"`
}
