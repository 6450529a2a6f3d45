package dto

// RunReviewsRequest body opcional para POST /api/replenishment/reviews.
type RunReviewsRequest struct {
	Date string `json:"date"` // YYYY-MM-DD; vacío = hoy
}

// ReplenishmentRunResponse resumen de una corrida de reposición.
type ReplenishmentRunResponse struct {
	Source    string                  `json:"source"`
	Date      string                  `json:"date,omitempty"`
	Needs     int                     `json:"needs"`
	Reviewed  []string                `json:"reviewed,omitempty"`
	Orders    []PurchaseOrderResponse `json:"orders"`
	Created   int                     `json:"created"`
	Accepted  int                     `json:"accepted"`
	Discarded int                     `json:"discarded"`
	Errors    map[string]string       `json:"errors,omitempty"`
	Skipped   bool                    `json:"skipped,omitempty"`
}
