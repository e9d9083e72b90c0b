package domain

// Capability is the single resolution point for role rules. The state
// machine, the assignment engine and the corbeille partitioner all consult
// this table instead of re-deriving role checks per call site.
type Capability struct {
	Supervisory  bool
	SeesOpenPool bool
	CanAssign    bool
	CanEscalate  bool
	CanIntake    bool
}

var capabilities = map[Role]Capability{
	RoleBureauOrdre:  {CanIntake: true},
	RoleScanAgent:    {},
	RoleChefEquipe:   {Supervisory: true, SeesOpenPool: true, CanAssign: true, CanEscalate: true},
	RoleGestionnaire: {},
	RoleFinance:      {},
	RoleSuperAdmin:   {Supervisory: true, SeesOpenPool: true, CanAssign: true, CanEscalate: true, CanIntake: true},
}

// CapabilitiesFor resolves the capability set for a role. Unknown roles get
// the zero capability set.
func CapabilitiesFor(role Role) Capability {
	return capabilities[role]
}

// transitionTargets lists, per non-supervisory role, the status targets the
// role may request. Supervisory roles may request any valid transition.
var transitionTargets = map[Role]map[Status]struct{}{
	RoleBureauOrdre: {
		StatusAScanner: {},
	},
	RoleScanAgent: {
		StatusScanEnCours: {},
		StatusScanne:      {},
		StatusAAffecter:   {},
	},
	RoleGestionnaire: {
		StatusEnCours:            {},
		StatusTraite:             {},
		StatusEnDifficulte:       {},
		StatusPartiel:            {},
		StatusInProgress:         {},
		StatusPendingClientReply: {},
		StatusResolved:           {},
	},
	RoleFinance: {
		StatusPretVirement:    {},
		StatusVirementEnCours: {},
		StatusVirementExecute: {},
		StatusVirementRejete:  {},
		StatusCloture:         {},
	},
}

// MayTransition reports whether the role is allowed to request the given
// move. It only answers the permission question; adjacency is the state
// machine's to validate. Re-opening a resolved complaint is reserved to
// supervisory roles: assignees move forward only.
func MayTransition(role Role, from, target Status) bool {
	if CapabilitiesFor(role).Supervisory {
		return true
	}
	if from == StatusResolved {
		return false
	}
	targets, ok := transitionTargets[role]
	if !ok {
		return false
	}
	_, allowed := targets[target]
	return allowed
}
