package org

import "github.com/fthyco/simorg/pkg/fixedpoint"

// ConstraintVector is the fixed-point resource budget consumed by
// differentiation and replenished/depleted by apply_constraint_change.
type ConstraintVector struct {
	Capital       int64 `json:"capital"`
	Talent        int64 `json:"talent"`
	Time          int64 `json:"time"`
	PoliticalCost int64 `json:"political_cost"`
}

// ApplyDelta adds delta to each component, saturating at [0, cap]. Returns
// the updated vector and whether any component saturated (callers attribute
// secondary_debt on saturation per spec §4.3).
func (c ConstraintVector) ApplyDelta(capitalD, talentD, timeD, politicalD int64) (ConstraintVector, bool) {
	var saturated bool
	next := ConstraintVector{}

	apply := func(base, delta int64) int64 {
		sum := base + delta
		clamped, did := fixedpoint.SaturateNonNegative(sum, fixedpoint.SaturationCap)
		if did {
			saturated = true
		}
		return clamped
	}

	next.Capital = apply(c.Capital, capitalD)
	next.Talent = apply(c.Talent, talentD)
	next.Time = apply(c.Time, timeD)
	next.PoliticalCost = apply(c.PoliticalCost, politicalD)
	return next, saturated
}

// CanAfford reports whether capital and talent both meet cost.
func (c ConstraintVector) CanAfford(capitalCost, talentCost int64) bool {
	return c.Capital >= capitalCost && c.Talent >= talentCost
}
