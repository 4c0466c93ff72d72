package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/pkg/rbac"
	"github.com/smileworks/clinic-core/pkg/types"
)

// Exporter writes the caller's visible data as CSV. Every value is
// quoted, with embedded quotes doubled, so names and notes containing
// commas or quotes survive a round trip through spreadsheet tools.
type Exporter struct {
	repo *repository.Repository
}

// NewExporter creates an exporter over the repository
func NewExporter(repo *repository.Repository) *Exporter {
	return &Exporter{repo: repo}
}

func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quote(f)
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}

// Appointments writes the appointments visible to the actor
func (e *Exporter) Appointments(actor *types.User, w io.Writer) error {
	if err := rbac.Authorize(actor, rbac.ActionExportData, nil); err != nil {
		return err
	}

	header := []string{"id", "patient_name", "email", "phone", "service", "dentist", "date", "time", "status", "notes"}
	if err := writeRow(w, header); err != nil {
		return err
	}

	visible := rbac.FilterAppointments(actor, e.repo.ListAppointments(types.AppointmentFilters{}))
	for _, appt := range visible {
		row := []string{
			appt.ID,
			appt.PatientName,
			appt.Email,
			appt.Phone,
			appt.Service,
			appt.Dentist,
			appt.Date,
			appt.Time,
			string(appt.Status),
			appt.Notes,
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

// Records writes the treatment records visible to the actor
func (e *Exporter) Records(actor *types.User, w io.Writer) error {
	if err := rbac.Authorize(actor, rbac.ActionExportData, nil); err != nil {
		return err
	}

	header := []string{"id", "patient_name", "treatment", "date", "time", "dentist", "notes", "rating", "review"}
	if err := writeRow(w, header); err != nil {
		return err
	}

	visible := rbac.FilterRecords(actor, e.repo.ListRecords())
	for _, rec := range visible {
		rating := ""
		if rec.Rating > 0 {
			rating = fmt.Sprintf("%d", rec.Rating)
		}
		row := []string{
			rec.ID,
			rec.PatientName,
			rec.Treatment,
			rec.Date,
			rec.Time,
			rec.Dentist,
			rec.Notes,
			rating,
			rec.Review,
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

// Patients writes the patient roster visible to the actor
func (e *Exporter) Patients(actor *types.User, w io.Writer) error {
	if err := rbac.Authorize(actor, rbac.ActionExportData, nil); err != nil {
		return err
	}

	header := []string{"id", "name", "email", "phone", "dob", "address"}
	if err := writeRow(w, header); err != nil {
		return err
	}

	appointments := e.repo.ListAppointments(types.AppointmentFilters{})
	visible := rbac.FilterPatients(actor, e.repo.ListPatients(), appointments)
	for _, p := range visible {
		row := []string{p.ID, p.Name, p.Email, p.Phone, p.DOB, p.Address}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}
