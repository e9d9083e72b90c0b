package domain

// Status enumerates lifecycle states across both work-item kinds. Each kind
// owns a disjoint subset of the values; the adjacency tables below are the
// single source of truth for which moves are legal.
type Status string

// Batch (bordereau) statuses.
const (
	StatusEnAttente        Status = "EN_ATTENTE"
	StatusAScanner         Status = "A_SCANNER"
	StatusScanEnCours      Status = "SCAN_EN_COURS"
	StatusScanne           Status = "SCANNE"
	StatusAAffecter        Status = "A_AFFECTER"
	StatusAssigne          Status = "ASSIGNE"
	StatusEnCours          Status = "EN_COURS"
	StatusTraite           Status = "TRAITE"
	StatusPretVirement     Status = "PRET_VIREMENT"
	StatusVirementEnCours  Status = "VIREMENT_EN_COURS"
	StatusVirementExecute  Status = "VIREMENT_EXECUTE"
	StatusVirementRejete   Status = "VIREMENT_REJETE"
	StatusCloture          Status = "CLOTURE"
	StatusEnDifficulte     Status = "EN_DIFFICULTE"
	StatusPartiel          Status = "PARTIEL"
)

// Complaint (reclamation) statuses.
const (
	StatusOpen               Status = "OPEN"
	StatusInProgress         Status = "IN_PROGRESS"
	StatusEscalated          Status = "ESCALATED"
	StatusPendingClientReply Status = "PENDING_CLIENT_REPLY"
	StatusResolved           Status = "RESOLVED"
	StatusClosed             Status = "CLOSED"
)

// batchTransitions is the main batch path. EN_DIFFICULTE and PARTIEL are
// side states reachable from every non-terminal batch status; that edge is
// added in SuccessorsOf rather than repeated per row.
var batchTransitions = map[Status][]Status{
	StatusEnAttente:       {StatusAScanner},
	StatusAScanner:        {StatusScanEnCours},
	StatusScanEnCours:     {StatusScanne},
	StatusScanne:          {StatusAAffecter},
	StatusAAffecter:       {StatusAssigne},
	StatusAssigne:         {StatusEnCours},
	StatusEnCours:         {StatusTraite},
	StatusTraite:          {StatusPretVirement},
	StatusPretVirement:    {StatusVirementEnCours},
	StatusVirementEnCours: {StatusVirementExecute, StatusVirementRejete},
	StatusVirementExecute: {StatusCloture},
	StatusVirementRejete:  {StatusVirementEnCours, StatusCloture},
	StatusEnDifficulte:    {StatusAAffecter, StatusAssigne, StatusEnCours},
	StatusPartiel:         {StatusEnCours, StatusTraite},
	StatusCloture:         {},
}

var complaintTransitions = map[Status][]Status{
	StatusOpen:               {StatusInProgress},
	StatusInProgress:         {StatusEscalated, StatusPendingClientReply, StatusResolved},
	StatusEscalated:          {StatusInProgress, StatusResolved},
	StatusPendingClientReply: {StatusInProgress, StatusResolved},
	StatusResolved:           {StatusClosed, StatusInProgress},
	StatusClosed:             {},
}

func transitionTable(kind Kind) map[Status][]Status {
	if kind == KindComplaint {
		return complaintTransitions
	}
	return batchTransitions
}

// KnownStatus reports whether the status belongs to the kind's state graph.
func KnownStatus(kind Kind, status Status) bool {
	_, ok := transitionTable(kind)[status]
	return ok
}

// InitialStatus is the canonical entry state per kind. A_SCANNER intake
// requests are modeled as EN_ATTENTE plus an immediate transition, never as
// a second entry point.
func InitialStatus(kind Kind) Status {
	if kind == KindComplaint {
		return StatusOpen
	}
	return StatusEnAttente
}

// IsTerminal reports whether the status has no successors in its graph.
func IsTerminal(kind Kind, status Status) bool {
	succ, ok := transitionTable(kind)[status]
	return ok && len(succ) == 0
}

// SuccessorsOf returns the allowed targets from the current status,
// including the batch side states where applicable.
func SuccessorsOf(kind Kind, status Status) []Status {
	table := transitionTable(kind)
	succ, ok := table[status]
	if !ok {
		return nil
	}
	if kind == KindComplaint || len(succ) == 0 {
		return succ
	}
	if status == StatusEnDifficulte || status == StatusPartiel {
		return succ
	}
	out := make([]Status, 0, len(succ)+2)
	out = append(out, succ...)
	out = append(out, StatusEnDifficulte, StatusPartiel)
	return out
}

// CanTransition reports whether target is an allowed successor of current.
func CanTransition(kind Kind, current, target Status) bool {
	for _, candidate := range SuccessorsOf(kind, current) {
		if candidate == target {
			return true
		}
	}
	return false
}

// stopsSLAClock lists statuses whose SLA clock is considered settled: the
// processing obligation is met even when follow-up steps (payment close-out)
// remain. VIREMENT_REJETE is deliberately absent; a rejected payment keeps
// bleeding SLA until retried.
var stopsSLAClock = map[Status]struct{}{
	StatusTraite:          {},
	StatusVirementExecute: {},
	StatusCloture:         {},
	StatusResolved:        {},
	StatusClosed:          {},
}

// StopsSLAClock reports whether the status halts SLA risk accumulation.
func StopsSLAClock(status Status) bool {
	_, ok := stopsSLAClock[status]
	return ok
}

// assignableStatuses lists where an owner may be attached. SCANNE is a
// deliberate shortcut: assigning straight off the scan outcome lands on
// ASSIGNE without parking the batch at A_AFFECTER first, so the assignment
// edge is wider than the plain transition graph.
var assignableStatuses = map[Status]struct{}{
	StatusScanne:       {},
	StatusAAffecter:    {},
	StatusEnDifficulte: {},
	StatusOpen:         {},
}

// IsAssignable reports whether an item in this status may receive an owner.
func IsAssignable(status Status) bool {
	_, ok := assignableStatuses[status]
	return ok
}

var treatedStatuses = map[Status]struct{}{
	StatusTraite:          {},
	StatusVirementExecute: {},
	StatusCloture:         {},
	StatusResolved:        {},
	StatusClosed:          {},
}

// IsTreated reports whether the status counts as processed for queue views.
func IsTreated(status Status) bool {
	_, ok := treatedStatuses[status]
	return ok
}

// AssignedStatus is the target of the kind's assignment edge.
func AssignedStatus(kind Kind) Status {
	if kind == KindComplaint {
		return StatusInProgress
	}
	return StatusAssigne
}

// ReturnStatus is the state an item lands in when sent back to the
// supervisory queue.
func ReturnStatus(kind Kind) Status {
	if kind == KindComplaint {
		return StatusOpen
	}
	return StatusEnDifficulte
}

// EscalationStatus is the state forced by an escalation.
func EscalationStatus(kind Kind) Status {
	if kind == KindComplaint {
		return StatusEscalated
	}
	return StatusEnDifficulte
}
