package engine

import (
	"encoding/json"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/kernel/canonical"
	"github.com/fthyco/simorg/kernel/transitions"
	"github.com/fthyco/simorg/kernel/validate"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// Outcome is what Apply returns for one event: the new state, the
// transition result, and the hash the state now carries. The caller
// (session orchestrator) is responsible for persisting both.
type Outcome struct {
	State      org.OrgState
	Result     org.TransitionResult
	StateHash  string
}

// Apply runs one event through the full pipeline from spec §4.4: schema
// check, sequence check, dispatch to the matching transition, invariant
// re-validation, canonical re-serialization, and hash update. It never
// mutates state in place; on rejection the returned Outcome carries the
// original state unchanged.
//
// expectedSequence is the sequence number the orchestrator expects next
// (its event log length). Apply does not itself track history; uniqueness
// of event_uuid across the log is the orchestrator's job since it alone
// holds that history.
func Apply(state org.OrgState, ev Event, expectedSequence int64) (Outcome, *kernelerrors.KernelError) {
	if ev.SchemaVersion != CurrentSchemaVersion {
		return Outcome{State: state}, kernelerrors.New(kernelerrors.BadSchema, "schema_version", "unsupported schema version")
	}
	if ev.Sequence < expectedSequence {
		return Outcome{State: state}, kernelerrors.New(kernelerrors.SequenceDuplicate, "sequence", "event sequence has already been committed")
	}
	if ev.Sequence > expectedSequence {
		return Outcome{State: state}, kernelerrors.New(kernelerrors.SequenceGap, "sequence", "event sequence does not match expected next sequence")
	}
	if expectedSequence == 0 && ev.EventType != EventInitializeConstants {
		return Outcome{State: state}, kernelerrors.New(kernelerrors.ConstantsUnset, "event_type", "first event must be initialize_constants")
	}
	if expectedSequence != 0 && ev.EventType == EventInitializeConstants {
		return Outcome{State: state}, kernelerrors.New(kernelerrors.BadSchema, "event_type", "initialize_constants may only be the first event")
	}

	next, result, kerr := dispatch(state, ev)
	if kerr != nil {
		return Outcome{State: state}, kerr
	}

	if verr := validate.Validate(next); verr != nil {
		return Outcome{State: state}, verr
	}

	next.EventCount = expectedSequence + 1
	hash, err := canonical.Hash(next)
	if err != nil {
		return Outcome{State: state}, kernelerrors.Wrap(kernelerrors.IOError, "canonical", "failed to hash post-transition state", err)
	}
	next.PrevStateHash = hash

	return Outcome{State: next, Result: result, StateHash: hash}, nil
}

func dispatch(state org.OrgState, ev Event) (org.OrgState, org.TransitionResult, *kernelerrors.KernelError) {
	switch ev.EventType {
	case EventInitializeConstants:
		var p transitions.InitializeConstantsPayload
		if err := unmarshalPayload(ev.Payload, &p); err != nil {
			return state, org.TransitionResult{}, err
		}
		return transitions.InitializeConstants(state, p)
	case EventAddRole:
		var p transitions.AddRolePayload
		if err := unmarshalPayload(ev.Payload, &p); err != nil {
			return state, org.TransitionResult{}, err
		}
		return transitions.AddRole(state, p)
	case EventRemoveRole:
		var p transitions.RemoveRolePayload
		if err := unmarshalPayload(ev.Payload, &p); err != nil {
			return state, org.TransitionResult{}, err
		}
		return transitions.RemoveRole(state, p)
	case EventAddDependency:
		var p transitions.AddDependencyPayload
		if err := unmarshalPayload(ev.Payload, &p); err != nil {
			return state, org.TransitionResult{}, err
		}
		return transitions.AddDependency(state, p)
	case EventInjectShock:
		var p transitions.InjectShockPayload
		if err := unmarshalPayload(ev.Payload, &p); err != nil {
			return state, org.TransitionResult{}, err
		}
		return transitions.InjectShock(state, p)
	case EventApplyConstraintChange:
		var p transitions.ApplyConstraintChangePayload
		if err := unmarshalPayload(ev.Payload, &p); err != nil {
			return state, org.TransitionResult{}, err
		}
		return transitions.ApplyConstraintChange(state, p)
	case EventDifferentiateRole:
		var p transitions.DifferentiateRolePayload
		if err := unmarshalPayload(ev.Payload, &p); err != nil {
			return state, org.TransitionResult{}, err
		}
		return transitions.DifferentiateRole(state, p)
	case EventCompressRoles:
		var p transitions.CompressRolesPayload
		if err := unmarshalPayload(ev.Payload, &p); err != nil {
			return state, org.TransitionResult{}, err
		}
		return transitions.CompressRoles(state, p)
	default:
		return state, org.TransitionResult{}, kernelerrors.New(kernelerrors.BadSchema, "event_type", "unknown event type")
	}
}

func unmarshalPayload(raw json.RawMessage, out interface{}) *kernelerrors.KernelError {
	if err := json.Unmarshal(raw, out); err != nil {
		return kernelerrors.Wrap(kernelerrors.BadSchema, "payload", "payload does not match event_type's schema", err)
	}
	return nil
}
