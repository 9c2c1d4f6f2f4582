package notifications

import (
	"fmt"
	"log"

	"clinic-app-server/internal/config"
	"clinic-app-server/internal/models"

	"gopkg.in/gomail.v2"
)

// Mailer sends notification email over SMTP. All sends are best-effort:
// callers run them in a goroutine and a failure only produces a log line,
// never a failed request.
type Mailer struct {
	cfg config.MailerConfig
}

func NewMailer(cfg config.MailerConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) send(to, subject, body string) error {
	if m.cfg.Host == "" {
		// SMTP not configured (local development); treat as a no-op.
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.DefaultFrom)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}

// SendAppointmentConfirmed notifies a patient that staff confirmed their booking.
func (m *Mailer) SendAppointmentConfirmed(patient models.User, appt models.Appointment) {
	body := fmt.Sprintf(
		"Dear %s %s,\n\nYour appointment on %s (%s) has been confirmed.\n\nPlease arrive 15 minutes early.",
		patient.FirstName, patient.LastName, appt.Date.Format("2006-01-02"), appt.TimeSlot)
	if err := m.send(patient.Email, "Appointment confirmed", body); err != nil {
		log.Printf("mailer: confirmation mail to %s failed: %v", patient.Email, err)
	}
}

// SendCancelDecision notifies a patient of the staff decision on their cancel request.
func (m *Mailer) SendCancelDecision(patient models.User, appt models.Appointment, approved bool) {
	decision := "rejected"
	if approved {
		decision = "approved"
	}
	body := fmt.Sprintf(
		"Dear %s %s,\n\nYour cancellation request for the appointment on %s (%s) has been %s.",
		patient.FirstName, patient.LastName, appt.Date.Format("2006-01-02"), appt.TimeSlot, decision)
	if err := m.send(patient.Email, "Cancellation request "+decision, body); err != nil {
		log.Printf("mailer: cancel decision mail to %s failed: %v", patient.Email, err)
	}
}
