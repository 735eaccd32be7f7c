package models

// Requests for the status HTTP endpoints. Defined in domain for consistency and reuse.

type SignalsRequest struct {
	Asset  string `query:"asset" json:"asset" validate:"required"`
	Window string `query:"window" json:"window" default:"short" validate:"oneof=short medium long"`
}

type ActionsRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}
