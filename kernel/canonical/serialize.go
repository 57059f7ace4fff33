// Package canonical serializes an OrgState to a byte-exact form: two states
// that are structurally equal always produce identical bytes, on every
// host, language, and run (spec §4.1). This is hand-rolled rather than
// routed through encoding/json because the spec demands guarantees
// encoding/json does not make: a whitelisted field set, a fixed key order
// independent of Go map iteration, rejection of any float, and zero
// incidental whitespace. No library in the retrieved corpus offers a
// canonical/deterministic JSON encoder with those guarantees (gjson/sjson
// read and patch JSON but do not canonicalize; encoding/json's map key
// sorting is an implementation detail, not a spec) — see DESIGN.md.
package canonical

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/fthyco/simorg/domain/org"
)

// Error is this package's error type for a state that cannot be
// canonicalized. Serialize writes only OrgState's fixed field set, whose
// values are all integers, booleans and strings, so no current code path
// constructs or returns it.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "canonical: " + e.Reason }

// Serialize renders state to its canonical byte form.
func Serialize(state org.OrgState) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"constants":`)
	if err := writeConstants(&buf, state.Constants); err != nil {
		return nil, err
	}
	buf.WriteByte(',')

	buf.WriteString(`"roles":`)
	writeRoles(&buf, state.Roles)
	buf.WriteByte(',')

	buf.WriteString(`"dependencies":`)
	writeDependencies(&buf, state.Dependencies)
	buf.WriteByte(',')

	buf.WriteString(`"constraints":`)
	writeConstraints(&buf, state.Constraints)
	buf.WriteByte(',')

	buf.WriteString(`"compression_count":`)
	if err := writeInt(&buf, state.CompressionCount); err != nil {
		return nil, err
	}
	buf.WriteByte(',')

	buf.WriteString(`"structural_debt":`)
	if err := writeInt(&buf, state.StructuralDebt); err != nil {
		return nil, err
	}
	buf.WriteByte(',')

	buf.WriteString(`"event_count":`)
	if err := writeInt(&buf, state.EventCount); err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeConstants(buf *bytes.Buffer, c *org.DomainConstants) error {
	if c == nil {
		buf.WriteString("null")
		return nil
	}
	buf.WriteByte('{')
	fields := []struct {
		key string
		val int64
	}{
		{"capital_budget", c.CapitalBudget},
		{"compression_limit", c.CompressionLimit},
		{"differentiation_threshold", c.DifferentiationThreshold},
		{"political_budget", c.PoliticalBudget},
		{"scale", c.Scale},
		{"shock_base_multiplier", c.ShockBaseMultiplier},
		{"shock_density_weight", c.ShockDensityWeight},
		{"talent_budget", c.TalentBudget},
		{"time_budget", c.TimeBudget},
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].key < fields[j].key })
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, f.key)
		buf.WriteByte(':')
		if err := writeInt(buf, f.val); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeRoles(buf *bytes.Buffer, roles *org.RoleSet) {
	buf.WriteByte('{')
	if roles != nil {
		ids := roles.CanonicalOrder()
		for i, id := range ids {
			if i > 0 {
				buf.WriteByte(',')
			}
			r, _ := roles.Get(id)
			writeString(buf, id)
			buf.WriteByte(':')
			writeRole(buf, r)
		}
	}
	buf.WriteByte('}')
}

func writeRole(buf *bytes.Buffer, r org.Role) {
	buf.WriteByte('{')
	buf.WriteString(`"active":`)
	writeBool(buf, r.Active)
	buf.WriteByte(',')
	buf.WriteString(`"id":`)
	writeString(buf, r.ID)
	buf.WriteByte(',')
	buf.WriteString(`"isolated":`)
	writeBool(buf, r.Isolated)
	buf.WriteByte(',')
	buf.WriteString(`"name":`)
	writeString(buf, r.Name)
	buf.WriteByte(',')
	buf.WriteString(`"produced_outputs":`)
	writeStringArray(buf, r.ProducedOutputs)
	buf.WriteByte(',')
	buf.WriteString(`"purpose":`)
	writeString(buf, r.Purpose)
	buf.WriteByte(',')
	buf.WriteString(`"required_inputs":`)
	writeStringArray(buf, r.RequiredInputs)
	buf.WriteByte(',')
	buf.WriteString(`"responsibilities":`)
	writeStringArray(buf, r.Responsibilities)
	buf.WriteByte(',')
	buf.WriteString(`"scale_stage":`)
	writeString(buf, string(r.ScaleStage))
	buf.WriteByte('}')
}

func writeDependencies(buf *bytes.Buffer, deps []org.Dependency) {
	sorted := append([]org.Dependency(nil), deps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	buf.WriteByte('[')
	for i, d := range sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		buf.WriteString(`"critical":`)
		writeBool(buf, d.Critical)
		buf.WriteByte(',')
		buf.WriteString(`"dependency_type":`)
		writeString(buf, string(d.DependencyType))
		buf.WriteByte(',')
		buf.WriteString(`"from_role_id":`)
		writeString(buf, d.FromRoleID)
		buf.WriteByte(',')
		buf.WriteString(`"to_role_id":`)
		writeString(buf, d.ToRoleID)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
}

func writeConstraints(buf *bytes.Buffer, c org.ConstraintVector) {
	buf.WriteByte('{')
	buf.WriteString(`"capital":`)
	_ = writeInt(buf, c.Capital)
	buf.WriteByte(',')
	buf.WriteString(`"political_cost":`)
	_ = writeInt(buf, c.PoliticalCost)
	buf.WriteByte(',')
	buf.WriteString(`"talent":`)
	_ = writeInt(buf, c.Talent)
	buf.WriteByte(',')
	buf.WriteString(`"time":`)
	_ = writeInt(buf, c.Time)
	buf.WriteByte('}')
}

func writeStringArray(buf *bytes.Buffer, vals []string) {
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, v)
	}
	buf.WriteByte(']')
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
}

// writeInt renders v in base 10 with no leading zeros and no "-0" — the
// only numeric form the canonical format permits (spec §4.1).
func writeInt(buf *bytes.Buffer, v int64) error {
	if v == 0 {
		buf.WriteByte('0')
		return nil
	}
	buf.WriteString(fmt.Sprintf("%d", v))
	return nil
}

// writeString renders v as a JSON string literal with the minimal escaping
// needed for correctness (quote, backslash, and control characters).
func writeString(buf *bytes.Buffer, v string) {
	buf.WriteByte('"')
	for _, r := range v {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			if r < 0x20 {
				buf.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}
