// Package workflow holds the event status machine and the statistics derived
// from the current event and user collections.
package workflow

import (
	"github.com/metafosfato/AgendaCity-Entregavel/internal/models"
)

// Actor is who asks for a transition. An administrator who also owns the event
// gets the moves of both roles.
type Actor struct {
	Admin bool
	Owner bool
}

var ownerMoves = map[models.EventStatus][]models.EventStatus{
	"":                   {models.StatusDraft, models.StatusPending},
	models.StatusDraft:   {models.StatusDraft, models.StatusPending},
	models.StatusPending: {models.StatusDraft, models.StatusPending},
}

var adminMoves = map[models.EventStatus][]models.EventStatus{
	models.StatusPending: {models.StatusApproved, models.StatusRejected},
}

// Transition returns target when actor may move an event from current to
// target. current is empty for an event that has not been stored yet.
// Approved and rejected are final.
func Transition(current, target models.EventStatus, actor Actor) (models.EventStatus, error) {
	if actor.Owner && allowed(ownerMoves, current, target) {
		return target, nil
	}
	if actor.Admin && allowed(adminMoves, current, target) {
		return target, nil
	}
	return current, &models.TransitionError{From: current, To: target}
}

func allowed(moves map[models.EventStatus][]models.EventStatus, from, to models.EventStatus) bool {
	for _, s := range moves[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Notification topics, keyed by the status an event lands in.
const (
	TopicSubmitted = "event.submitted"
	TopicDrafted   = "event.drafted"
	TopicApproved  = "event.approved"
	TopicRejected  = "event.rejected"
)

func TopicFor(status models.EventStatus) string {
	switch status {
	case models.StatusPending:
		return TopicSubmitted
	case models.StatusApproved:
		return TopicApproved
	case models.StatusRejected:
		return TopicRejected
	default:
		return TopicDrafted
	}
}
