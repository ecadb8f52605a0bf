package tracking

import (
	"net/mail"
	"time"

	"github.com/trezcool/classfence/core"
)

const longAbsenceTemplate = "long_absence"

type (
	// staffNotifier hands long absence alerts over to the email service.
	// A nil *staffNotifier notifies nobody.
	staffNotifier struct {
		mailer     core.EmailService
		recipients []mail.Address
	}

	LongAbsenceEmailData struct {
		SubjectID string
		ClassID   string
		ClassName string
		Minutes   float64
		Distance  float64
		Location  Coordinate
		Timestamp time.Time
	}
)

func newStaffNotifier(mailer core.EmailService, conf *core.Config) *staffNotifier {
	if mailer == nil {
		return nil
	}
	recipients := conf.StaffRecipients()
	if len(recipients) == 0 {
		return nil
	}
	return &staffNotifier{mailer: mailer, recipients: recipients}
}

// mark flags the emitted long absence alerts (and their session) as notified to staff.
func (n *staffNotifier) mark(rec *Record, emitted []Alert) {
	if n == nil {
		return
	}
	for i := range emitted {
		if emitted[i].Type != AlertLongAbsence {
			continue
		}
		emitted[i].StaffNotified = true
		if j, ok := rec.FindAlert(emitted[i].ID); ok {
			rec.Alerts[j].StaffNotified = true
		}
		if rec.Session != nil {
			rec.Session.StaffNotified = true
		}
	}
}

func (n *staffNotifier) notify(rec Record, a Alert) {
	if n == nil {
		return
	}
	n.mailer.SendMessages(&core.EmailMessage{
		To:           n.recipients,
		Subject:      "Student outside classroom",
		TemplateName: longAbsenceTemplate,
		TemplateData: LongAbsenceEmailData{
			SubjectID: rec.SubjectID,
			ClassID:   rec.BoundaryID,
			ClassName: rec.Boundary.Name,
			Minutes:   roundMinutes(rec.OutsideDuration(a.Timestamp)),
			Distance:  roundMeters(a.Distance),
			Location:  a.Location,
			Timestamp: a.Timestamp,
		},
	})
}
