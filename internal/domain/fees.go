package domain

// DefaultTakerBps is assumed for venues without a platform_fees row.
const DefaultTakerBps = 20.0

// PlatformFee holds the cost parameters of one venue.
type PlatformFee struct {
	Platform         string
	TakerBps         float64
	WithdrawalFeeUSD float64
	GasEstimateUSD   float64
}

// FeeTable maps platform name to its fee row.
type FeeTable map[string]PlatformFee

// TakerBps returns the taker fee for a platform, falling back to
// DefaultTakerBps for unknown venues.
func (t FeeTable) TakerBps(platform string) float64 {
	if f, ok := t[platform]; ok {
		return f.TakerBps
	}
	return DefaultTakerBps
}
