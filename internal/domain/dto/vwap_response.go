package dto

// VWAPPoint is one hour bucket of the cumulative VWAP series.
type VWAPPoint struct {
	Hour int     `json:"hour" example:"10"`
	VWAP float64 `json:"vwap" example:"187.4321"`
}

// VWAPResponse is the JSON structure returned by GET /api/v1/vwap.
//
// Fields match the API contract and may differ from internal domain models,
// keeping the API surface decoupled from the reconstruction engine.
//
// swagger:model VWAPResponse
type VWAPResponse struct {
	Symbol  string      `json:"symbol" example:"AAPL"`
	Samples []VWAPPoint `json:"samples"`
}
