package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

func newTestExporter(t *testing.T) (*Exporter, *repository.Repository) {
	t.Helper()
	repo := repository.New(storage.NewMemoryStore(), storage.NewMemorySession(), logger.New("error"))
	return NewExporter(repo), repo
}

func TestAppointmentsCSV(t *testing.T) {
	exporter, repo := newTestExporter(t)
	admin := &types.User{ID: "u-admin", Role: types.RoleAdmin, Name: "Alice Admin"}

	_, err := repo.CreateAppointment(&types.Appointment{
		PatientName: `Pedro "Jun" Santos`,
		Email:       "pedro@example.test",
		Service:     "Consultation",
		Dentist:     "Juan Dela Cruz",
		Date:        "2026-09-01",
		Time:        "09:00",
		Notes:       "bring x-rays, arrive early",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exporter.Appointments(admin, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"id","patient_name","email","phone","service","dentist","date","time","status","notes"`, lines[0])
	assert.Contains(t, lines[1], `"Pedro ""Jun"" Santos"`, "embedded quotes are doubled")
	assert.Contains(t, lines[1], `"bring x-rays, arrive early"`, "commas survive inside quoted values")
}

func TestExportRequiresPermission(t *testing.T) {
	exporter, _ := newTestExporter(t)
	patient := &types.User{ID: "u-patient", Role: types.RolePatient, Name: "Pedro Santos"}

	var buf bytes.Buffer
	err := exporter.Appointments(patient, &buf)
	require.Error(t, err)
	assert.True(t, types.IsPermission(err))
	assert.Zero(t, buf.Len())
}

func TestRecordsCSVVisibility(t *testing.T) {
	exporter, repo := newTestExporter(t)
	dentist := &types.User{ID: "u-dentist", Role: types.RoleDentist, Name: "Juan Dela Cruz"}

	_, err := repo.CreateRecord(&types.Record{
		PatientName: "Pedro Santos",
		Treatment:   "Consultation",
		Date:        "2026-08-01",
		DentistID:   dentist.ID,
		Dentist:     dentist.Name,
	})
	require.NoError(t, err)
	_, err = repo.CreateRecord(&types.Record{
		PatientName: "Maria Reyes",
		Treatment:   "Root Canal",
		Date:        "2026-08-02",
		DentistID:   "someone-else",
		Dentist:     "Ana Lim",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exporter.Records(dentist, &buf))

	out := buf.String()
	assert.Contains(t, out, `"Pedro Santos"`)
	assert.NotContains(t, out, "Maria Reyes", "dentists export only their own records")
}

func TestPatientsCSV(t *testing.T) {
	exporter, repo := newTestExporter(t)
	admin := &types.User{ID: "u-admin", Role: types.RoleAdmin, Name: "Alice Admin"}

	_, err := repo.CreatePatient(&types.Patient{Name: "Maria Reyes", Email: "maria@example.test"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exporter.Patients(admin, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"id","name","email","phone","dob","address"`, lines[0])
	assert.Contains(t, lines[1], `"Maria Reyes"`)
}
