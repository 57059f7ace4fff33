package transitions

import (
	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// ApplyConstraintChange adds signed deltas to the constraint vector,
// saturating at [0, saturation cap]. Saturation counts toward secondary
// debt (spec §4.3).
func ApplyConstraintChange(state org.OrgState, p ApplyConstraintChangePayload) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	next := state.Clone()
	updated, saturated := state.Constraints.ApplyDelta(deref(p.CapitalDelta), deref(p.TalentDelta), deref(p.TimeDelta), deref(p.PoliticalCostDelta))
	next.Constraints = updated

	var secondary int64
	reason := "constraint vector updated"
	if saturated {
		secondary = 1
		reason = "constraint vector updated with saturation"
	}
	next.StructuralDebt += secondary

	result := org.TransitionResult{
		EventType:      "apply_constraint_change",
		SecondaryDebt:  secondary,
		Reason:         reason,
		CumulativeDebt: next.StructuralDebt,
	}
	return next, result, nil
}
