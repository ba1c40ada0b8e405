package enums

import (
	"slices"
	"strings"
)

// HistoryAction labels an entry in the purchase order approval history.
type HistoryAction string

const (
	HistoryActionCreated  HistoryAction = "Created"
	HistoryActionEdited   HistoryAction = "Edited"
	HistoryActionApproved HistoryAction = "Approved"
	HistoryActionVoided   HistoryAction = "Voided"
	HistoryActionReceived HistoryAction = "Received"
	HistoryActionUpdated  HistoryAction = "Updated"
)

var validHistoryActions = []HistoryAction{
	HistoryActionCreated,
	HistoryActionEdited,
	HistoryActionApproved,
	HistoryActionVoided,
	HistoryActionReceived,
	HistoryActionUpdated,
}

func (a HistoryAction) String() string {
	return string(a)
}

func (a HistoryAction) IsValid() bool { return slices.Contains(validHistoryActions, a) }

func ParseHistoryAction(value string) (HistoryAction, error) {
	return lookup(validHistoryActions, value, "history action")
}

// HistoryActionForStatus derives the history label for a transition from the
// raw target status text. Matching is by substring, first hit wins.
func HistoryActionForStatus(target string) HistoryAction {
	folded := foldText(target)
	switch {
	case strings.Contains(folded, "voided"), strings.Contains(folded, "anulad"):
		return HistoryActionVoided
	case strings.Contains(folded, "approved"), strings.Contains(folded, "aprobad"):
		return HistoryActionApproved
	case strings.Contains(folded, "received"), strings.Contains(folded, "recibid"):
		return HistoryActionReceived
	default:
		return HistoryActionUpdated
	}
}
