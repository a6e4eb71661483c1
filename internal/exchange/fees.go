package exchange

import "github.com/predictsim/core/internal/model"

// FeeModel computes per-fill fees from a static, platform-keyed
// schedule, with an optional custom override table.
type FeeModel struct {
	UsePlatformFees bool
	CustomFees      map[model.Platform]FeeSchedule
}

// FeeSchedule is the per-platform fee shape: a taker rate, a maker
// rate, and (for Kalshi's per-contract cap) an optional cap on the
// absolute fee charged.
type FeeSchedule struct {
	TakerRate float64
	MakerRate float64
	// PerContract, when true, charges rate*size rather than
	// rate*size*price (Kalshi's 7c/contract schedule).
	PerContract bool
	// CapPerContract bounds the per-contract fee (Kalshi: 7c).
	CapPerContract float64
}

// DefaultFeeSchedules is the static per-platform fee schedule used
// when no custom override table is configured.
var DefaultFeeSchedules = map[model.Platform]FeeSchedule{
	model.Polymarket: {TakerRate: 0.02, MakerRate: 0},
	model.Kalshi:     {TakerRate: 0.07, MakerRate: 0, PerContract: true, CapPerContract: 0.07},
	model.Manifold:   {TakerRate: 0, MakerRate: 0},
}

// NewFeeModel constructs a fee model. A nil/empty custom table falls
// back to DefaultFeeSchedules for every platform.
func NewFeeModel(usePlatformFees bool, custom map[model.Platform]FeeSchedule) *FeeModel {
	return &FeeModel{UsePlatformFees: usePlatformFees, CustomFees: custom}
}

// Fees computes the fee owed for a fill of size at fillPrice on the
// given platform. isMaker selects the maker rate over the taker rate.
func (f *FeeModel) Fees(platform model.Platform, size, fillPrice float64, isMaker bool) float64 {
	if !f.UsePlatformFees {
		return 0
	}
	schedule, ok := f.CustomFees[platform]
	if !ok {
		schedule, ok = DefaultFeeSchedules[platform]
		if !ok {
			return 0
		}
	}
	rate := schedule.TakerRate
	if isMaker {
		rate = schedule.MakerRate
	}
	if rate == 0 {
		return 0
	}
	if schedule.PerContract {
		fee := size * rate
		if schedule.CapPerContract > 0 {
			cap := size * schedule.CapPerContract
			if fee > cap {
				fee = cap
			}
		}
		return fee
	}
	return size * fillPrice * rate
}
