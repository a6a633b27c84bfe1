package handler

type rateRequest struct {
	Stars int `json:"stars"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type flagRequest struct {
	Reason string `json:"reason"`
}

type resolveFlagRequest struct {
	Resolution string `json:"resolution"`
}
