package transitions

import (
	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// InitializeConstants sets DomainConstants. The engine guarantees this is
// only ever called for event 0 (spec §4.3); calling it on an already
// initialized state is itself a programmer error in the engine, not
// something this pure function re-checks.
func InitializeConstants(state org.OrgState, p InitializeConstantsPayload) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	shockBase := int64(0)
	if p.ShockBaseMultiplier != nil {
		shockBase = *p.ShockBaseMultiplier
	}
	shockWeight := org.DefaultShockDensityWeight
	if p.ShockDensityWeight != nil {
		shockWeight = *p.ShockDensityWeight
	}

	next := state.Clone()
	next.Constants = &org.DomainConstants{
		Scale:                    10000,
		DifferentiationThreshold: p.DifferentiationThreshold,
		CompressionLimit:         p.CompressionLimit,
		ShockBaseMultiplier:      shockBase,
		ShockDensityWeight:       shockWeight,
		CapitalBudget:            p.Capital,
		TalentBudget:             p.Talent,
		TimeBudget:               p.Time,
		PoliticalBudget:          p.PoliticalCost,
	}
	next.Constraints = org.ConstraintVector{
		Capital:       p.Capital,
		Talent:        p.Talent,
		Time:          p.Time,
		PoliticalCost: p.PoliticalCost,
	}

	result := org.TransitionResult{
		EventType: "initialize_constants",
		Reason:    "constants initialized",
	}
	return next, result, nil
}
