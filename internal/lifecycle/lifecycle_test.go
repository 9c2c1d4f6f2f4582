package lifecycle

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"clinic-app-server/internal/models"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func appointmentIn(status models.AppointmentStatus) models.Appointment {
	return models.Appointment{
		PatientID: 7,
		DoctorID:  3,
		TimeSlot:  "08:00-08:30",
		Status:    status,
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   models.AppointmentStatus
		event  Event
		actor  Actor
		reason string
		want   models.AppointmentStatus
	}{
		{"confirm pending", models.StatusPending, EventConfirm, ActorStaff, "", models.StatusConfirmed},
		{"cancel pending", models.StatusPending, EventCancel, ActorStaff, "patient no-show", models.StatusCancelled},
		{"request cancel from pending", models.StatusPending, EventRequestCancel, ActorPatient, "schedule conflict", models.StatusCancelRequested},
		{"request cancel from confirmed", models.StatusConfirmed, EventRequestCancel, ActorPatient, "schedule conflict", models.StatusCancelRequested},
		{"approve cancel", models.StatusCancelRequested, EventApproveCancel, ActorStaff, "", models.StatusCancelled},
		{"start treatment", models.StatusConfirmed, EventStartTreatment, ActorStaff, "", models.StatusInTreatment},
		{"complete", models.StatusInTreatment, EventComplete, ActorStaff, "", models.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(appointmentIn(tt.from), tt.event, tt.actor, tt.reason, testNow)
			if err != nil {
				t.Fatalf("Transition(%s, %s) returned error: %v", tt.from, tt.event, err)
			}
			if got.Status != tt.want {
				t.Errorf("status = %q, want %q", got.Status, tt.want)
			}
		})
	}
}

func TestInvalidPairsAreExhaustivelyRejected(t *testing.T) {
	statuses := []models.AppointmentStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusCancelRequested,
		models.StatusInTreatment, models.StatusCompleted, models.StatusCancelled,
	}
	events := []Event{
		EventConfirm, EventCancel, EventRequestCancel, EventApproveCancel,
		EventRejectCancel, EventStartTreatment, EventComplete,
	}

	for _, status := range statuses {
		for _, event := range events {
			if CanTransition(status, event) {
				continue
			}
			appt := appointmentIn(status)
			got, err := Transition(appt, event, ActorStaff, "reason", testNow)
			var invalid *InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Errorf("Transition(%s, %s): got err %v, want InvalidTransitionError", status, event, err)
				continue
			}
			if !reflect.DeepEqual(got, appt) {
				t.Errorf("Transition(%s, %s): appointment changed on failure", status, event)
			}
		}
	}
}

func TestTerminalStatesAcceptNothing(t *testing.T) {
	events := []Event{
		EventConfirm, EventCancel, EventRequestCancel, EventApproveCancel,
		EventRejectCancel, EventStartTreatment, EventComplete,
	}
	for _, status := range []models.AppointmentStatus{models.StatusCompleted, models.StatusCancelled} {
		if !status.IsTerminal() {
			t.Fatalf("%s should be terminal", status)
		}
		for _, event := range events {
			if CanTransition(status, event) {
				t.Errorf("terminal status %s accepts event %s", status, event)
			}
		}
	}
}

func TestWrongActorIsRejected(t *testing.T) {
	tests := []struct {
		name  string
		from  models.AppointmentStatus
		event Event
		actor Actor
	}{
		{"patient cannot confirm", models.StatusPending, EventConfirm, ActorPatient},
		{"patient cannot cancel directly", models.StatusPending, EventCancel, ActorPatient},
		{"staff cannot file a cancel request", models.StatusConfirmed, EventRequestCancel, ActorStaff},
		{"patient cannot approve a cancel", models.StatusCancelRequested, EventApproveCancel, ActorPatient},
		{"patient cannot start treatment", models.StatusConfirmed, EventStartTreatment, ActorPatient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transition(appointmentIn(tt.from), tt.event, tt.actor, "reason", testNow)
			var actorErr *ActorNotAllowedError
			if !errors.As(err, &actorErr) {
				t.Errorf("got err %v, want ActorNotAllowedError", err)
			}
		})
	}
}

func TestCancellationRequiresReason(t *testing.T) {
	for _, tt := range []struct {
		event Event
		actor Actor
	}{
		{EventCancel, ActorStaff},
		{EventRequestCancel, ActorPatient},
	} {
		for _, reason := range []string{"", "   "} {
			_, err := Transition(appointmentIn(models.StatusPending), tt.event, tt.actor, reason, testNow)
			if !errors.Is(err, ErrReasonRequired) {
				t.Errorf("Transition(%s, reason=%q): got err %v, want ErrReasonRequired", tt.event, reason, err)
			}
		}
	}
}

func TestCancelRequestStampsFields(t *testing.T) {
	got, err := Transition(appointmentIn(models.StatusConfirmed), EventRequestCancel, ActorPatient, "can no longer attend", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if got.CancelReason != "can no longer attend" {
		t.Errorf("CancelReason = %q", got.CancelReason)
	}
	if got.CancelRequestedAt == nil || !got.CancelRequestedAt.Equal(testNow) {
		t.Errorf("CancelRequestedAt = %v, want %v", got.CancelRequestedAt, testNow)
	}
	if got.StatusBeforeCancel != models.StatusConfirmed {
		t.Errorf("StatusBeforeCancel = %q, want confirmed", got.StatusBeforeCancel)
	}

	approved, err := Transition(got, EventApproveCancel, ActorStaff, "", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if approved.CancelConfirmedAt == nil || !approved.CancelConfirmedAt.Equal(testNow) {
		t.Errorf("CancelConfirmedAt = %v, want %v", approved.CancelConfirmedAt, testNow)
	}
	if approved.CancelReason != "can no longer attend" {
		t.Errorf("approve must keep the request reason, got %q", approved.CancelReason)
	}
}

func TestRejectRestoresPriorStatus(t *testing.T) {
	for _, prior := range []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed} {
		requested, err := Transition(appointmentIn(prior), EventRequestCancel, ActorPatient, "changed my mind", testNow)
		if err != nil {
			t.Fatal(err)
		}
		rejected, err := Transition(requested, EventRejectCancel, ActorStaff, "", testNow)
		if err != nil {
			t.Fatal(err)
		}
		if rejected.Status != prior {
			t.Errorf("reject after request from %s restored %s, want %s", prior, rejected.Status, prior)
		}
		if rejected.CancelReason != "" || rejected.CancelRequestedAt != nil {
			t.Errorf("reject must clear cancel request fields, got reason=%q requestedAt=%v",
				rejected.CancelReason, rejected.CancelRequestedAt)
		}
	}
}

func TestRejectWithoutTrackedStatusFallsBackToConfirmed(t *testing.T) {
	// Records predating prior-status tracking have an empty StatusBeforeCancel.
	appt := appointmentIn(models.StatusCancelRequested)
	got, err := Transition(appt, EventRejectCancel, ActorStaff, "", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusConfirmed {
		t.Errorf("status = %q, want confirmed fallback", got.Status)
	}
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	appt := appointmentIn(models.StatusPending)
	before := appt
	if _, err := Transition(appt, EventConfirm, ActorStaff, "", testNow); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(appt, before) {
		t.Error("input appointment was mutated")
	}
}
