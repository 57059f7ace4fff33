package transitions

import (
	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/kernel/graph"
	"github.com/fthyco/simorg/pkg/fixedpoint"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// InjectShock computes primary debt from the target role's ego density and
// the shock magnitude, then accumulates it into structural_debt (spec
// §4.3). Secondary debt from suppressed differentiation is computed
// separately by DifferentiateRole; a shock on its own never suppresses a
// differentiation because it does not itself trigger one.
func InjectShock(state org.OrgState, p InjectShockPayload) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	if !state.Roles.Has(p.TargetRoleID) {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.UnknownRole, "payload.target_role_id", "role does not exist")
	}
	if p.Magnitude < 1 || p.Magnitude > 10 {
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.OutOfRangeFixedPoint, "payload.magnitude", "magnitude must be in [1,10]")
	}

	density := graph.EgoDensity(state, p.TargetRoleID)
	densityScaled, err := fixedpoint.MulDiv(density, state.Constants.ShockDensityWeight, fixedpoint.Scale)
	if err != nil {
		return state, org.TransitionResult{}, kernelerrors.Wrap(kernelerrors.OutOfRangeFixedPoint, "shock", "density-weighted term overflowed", err)
	}

	perUnit := state.Constants.ShockBaseMultiplier + densityScaled
	primary, err := fixedpoint.Mul(p.Magnitude, perUnit)
	if err != nil {
		return state, org.TransitionResult{}, kernelerrors.Wrap(kernelerrors.OutOfRangeFixedPoint, "shock", "primary debt overflowed", err)
	}

	next := state.Clone()
	next.StructuralDebt += primary

	result := org.TransitionResult{
		EventType:      "inject_shock",
		PrimaryDebt:    primary,
		TargetDensity:  density,
		Reason:         "shock applied",
		CumulativeDebt: next.StructuralDebt,
	}
	return next, result, nil
}
