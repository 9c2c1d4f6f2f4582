package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-app-server/internal/models"
)

// Event is a requested change to an appointment's status.
type Event string

const (
	EventConfirm        Event = "confirm"
	EventCancel         Event = "cancel"
	EventRequestCancel  Event = "request_cancel"
	EventApproveCancel  Event = "approve_cancel"
	EventRejectCancel   Event = "reject_cancel"
	EventStartTreatment Event = "start_treatment"
	EventComplete       Event = "complete"
)

// Actor identifies which side of the booking performs an event. Doctors and
// admins both act as staff; patients only ever file cancel requests.
type Actor string

const (
	ActorStaff   Actor = "staff"
	ActorPatient Actor = "patient"
)

// ErrReasonRequired is returned when a cancellation event carries an empty reason.
var ErrReasonRequired = errors.New("a cancellation reason is required")

// InvalidTransitionError reports a (status, event) pair outside the transition table.
type InvalidTransitionError struct {
	From  models.AppointmentStatus
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot apply event %q to appointment in status %q", e.Event, e.From)
}

// ActorNotAllowedError reports a legal transition attempted by the wrong side.
type ActorNotAllowedError struct {
	Event Event
	Actor Actor
}

func (e *ActorNotAllowedError) Error() string {
	return fmt.Sprintf("actor %q may not perform event %q", e.Actor, e.Event)
}

// rule describes one row of the transition table.
type rule struct {
	actor       Actor
	needsReason bool
}

// transitions holds the legal (status, event) pairs. The target status is
// applied in Transition; reject_cancel restores the status captured when the
// cancel request was filed, so it has no static target here.
var transitions = map[models.AppointmentStatus]map[Event]rule{
	models.StatusPending: {
		EventConfirm:       {actor: ActorStaff},
		EventCancel:        {actor: ActorStaff, needsReason: true},
		EventRequestCancel: {actor: ActorPatient, needsReason: true},
	},
	models.StatusConfirmed: {
		EventRequestCancel:  {actor: ActorPatient, needsReason: true},
		EventStartTreatment: {actor: ActorStaff},
	},
	models.StatusCancelRequested: {
		EventApproveCancel: {actor: ActorStaff},
		EventRejectCancel:  {actor: ActorStaff},
	},
	models.StatusInTreatment: {
		EventComplete: {actor: ActorStaff},
	},
}

// CanTransition reports whether the event is legal for the status, regardless
// of the acting role.
func CanTransition(status models.AppointmentStatus, event Event) bool {
	_, ok := transitions[status][event]
	return ok
}

// Transition validates and applies an event to an appointment, returning the
// updated copy. The input value is never modified; on error it is returned
// unchanged. Side effects of start_treatment (invoice and medical record
// creation) belong to the caller.
func Transition(appt models.Appointment, event Event, actor Actor, reason string, now time.Time) (models.Appointment, error) {
	r, ok := transitions[appt.Status][event]
	if !ok {
		return appt, &InvalidTransitionError{From: appt.Status, Event: event}
	}
	if r.actor != actor {
		return appt, &ActorNotAllowedError{Event: event, Actor: actor}
	}
	if r.needsReason && strings.TrimSpace(reason) == "" {
		return appt, ErrReasonRequired
	}

	switch event {
	case EventConfirm:
		appt.Status = models.StatusConfirmed
	case EventCancel:
		appt.Status = models.StatusCancelled
		appt.CancelReason = reason
		appt.CancelConfirmedAt = &now
	case EventRequestCancel:
		appt.StatusBeforeCancel = appt.Status
		appt.Status = models.StatusCancelRequested
		appt.CancelReason = reason
		appt.CancelRequestedAt = &now
	case EventApproveCancel:
		appt.Status = models.StatusCancelled
		appt.CancelConfirmedAt = &now
	case EventRejectCancel:
		// Restore the pre-request status. Older records created before the
		// status was tracked fall back to confirmed.
		restored := appt.StatusBeforeCancel
		if restored == "" {
			restored = models.StatusConfirmed
		}
		appt.Status = restored
		appt.StatusBeforeCancel = ""
		appt.CancelReason = ""
		appt.CancelRequestedAt = nil
	case EventStartTreatment:
		appt.Status = models.StatusInTreatment
	case EventComplete:
		appt.Status = models.StatusCompleted
	}

	return appt, nil
}
