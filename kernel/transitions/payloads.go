// Package transitions holds the pure (state, payload) -> (state', result)
// functions for every event kind in spec §4.3. Each is total on valid
// input: no panics, no hidden I/O, no clock reads.
package transitions

// InitializeConstantsPayload sets DomainConstants. Must be event 0. The
// wire payload shape in spec §6 lists the six budget/threshold fields;
// ShockBaseMultiplier and ShockDensityWeight are additional fields this
// kernel accepts (both optional) since spec §3/§9 requires them on
// DomainConstants but the wire table is silent on how they're supplied.
type InitializeConstantsPayload struct {
	Capital                  int64  `json:"capital"`
	Talent                   int64  `json:"talent"`
	Time                     int64  `json:"time"`
	PoliticalCost            int64  `json:"political_cost"`
	DifferentiationThreshold int64  `json:"differentiation_threshold"`
	CompressionLimit         int64  `json:"compression_limit"`
	ShockBaseMultiplier      *int64 `json:"shock_base_multiplier,omitempty"`
	ShockDensityWeight       *int64 `json:"shock_density_weight,omitempty"`
}

// AddRolePayload creates a new role.
type AddRolePayload struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Purpose          string   `json:"purpose"`
	Responsibilities []string `json:"responsibilities"`
}

// RemoveRolePayload deletes a role and cascades dependency removal.
type RemoveRolePayload struct {
	RoleID string `json:"role_id"`
}

// AddDependencyPayload creates a directed edge.
type AddDependencyPayload struct {
	FromRoleID string `json:"from_role_id"`
	ToRoleID   string `json:"to_role_id"`
	DepType    string `json:"dep_type"`
	Critical   bool   `json:"critical"`
}

// InjectShockPayload applies a magnitude-weighted shock to a role.
type InjectShockPayload struct {
	TargetRoleID string `json:"target_role_id"`
	Magnitude    int64  `json:"magnitude"`
}

// ApplyConstraintChangePayload adds signed deltas to the constraint vector.
// All fields are optional; an absent delta is treated as 0.
type ApplyConstraintChangePayload struct {
	CapitalDelta       *int64 `json:"capital_delta,omitempty"`
	TalentDelta        *int64 `json:"talent_delta,omitempty"`
	TimeDelta          *int64 `json:"time_delta,omitempty"`
	PoliticalCostDelta *int64 `json:"political_cost_delta,omitempty"`
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// DifferentiateRolePayload requests a split of role_id.
type DifferentiateRolePayload struct {
	RoleID string `json:"role_id"`
}

// CompressRolesPayload merges source into target.
type CompressRolesPayload struct {
	SourceRoleID string `json:"source_role_id"`
	TargetRoleID string `json:"target_role_id"`
}
