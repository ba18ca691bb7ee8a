package models

import (
	"slices"
	"strings"

	dErrors "oncofeliz/pkg/domain-errors"
)

// Status is the lifecycle state of an aid request.
type Status string

const (
	StatusPending        Status = "PENDIENTE"
	StatusReceived       Status = "RECEPCIONADO"
	StatusRejected       Status = "RECHAZADA"
	StatusReadyForPickup Status = "LISTA_PARA_RECOGER"
	StatusDelivered      Status = "ENTREGADO"
)

// AllStatuses lists the states in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusReceived, StatusReadyForPickup, StatusDelivered, StatusRejected}

// aliases are older names still sent by clients. APROBADA and RECEPCIONADO
// are one state.
var aliases = map[string]Status{
	"APROBADA":  StatusReceived,
	"RECHAZADO": StatusRejected,
}

var transitions = map[Status][]Status{
	StatusPending:        {StatusReceived, StatusRejected},
	StatusReceived:       {StatusReadyForPickup, StatusDelivered},
	StatusReadyForPickup: {StatusDelivered},
}

// ParseStatus accepts a status name or alias in any letter case.
func ParseStatus(s string) (Status, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if st, ok := aliases[raw]; ok {
		return st, nil
	}
	st := Status(raw)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid aid request status: "+s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	return slices.Contains(AllStatuses, s)
}

// IsTerminal reports whether no further transition exists.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo is the single source of truth for the request state machine.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(transitions[s], target)
}

// SourcesOf returns every status that may move to target.
func SourcesOf(target Status) []Status {
	var out []Status
	for _, from := range AllStatuses {
		if from.CanTransitionTo(target) {
			out = append(out, from)
		}
	}
	return out
}

func (s Status) String() string { return string(s) }
