package models

// VWAPSample is one hour bucket of the cumulative VWAP series for a security,
// as persisted to the vwap_samples table and served by the API.
//
// The value is the volume-weighted average over all trades from the start of
// the capture through the end of the bucket, not an intra-hour average.
//
// swagger:model VWAPSample
type VWAPSample struct {
	Symbol     string  `json:"symbol" example:"AAPL"`
	HourBucket int     `json:"hour" example:"10"`
	VWAP       float64 `json:"vwap" example:"187.4321"`
	SecurityID uint16  `json:"-"`
	SourceFile string  `json:"-"`
}
