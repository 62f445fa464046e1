package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/recoverytrack/apiserver/types"
)

func TestBuildWorkbook(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	start := now.Add(-30 * 24 * time.Hour)
	note := "called sponsor"

	data, err := BuildWorkbook(Report{
		User: types.User{ID: 1, Username: "demo_user", Email: "demo@example.com", RecoveryStartDate: &start},
		MoodLogs: []types.MoodLog{
			{ID: 9, Mood: 8, CravingLevel: types.CravingNone, Timestamp: now.Add(-time.Hour)},
			{ID: 8, Mood: 3, CravingLevel: types.CravingStrong, Notes: &note, Timestamp: now.Add(-2 * time.Hour)},
		},
		Medications: []types.Medication{
			{ID: 10, Name: "Naltrexone", Dosage: "50mg", Frequency: "daily", IsActive: true},
		},
		MedicationLogs: []types.MedicationLog{
			{ID: 11, MedicationID: 10, Taken: true, Timestamp: now},
			{ID: 12, MedicationID: 10, Taken: false, Timestamp: now},
		},
		GeneratedAt: now,
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetMoodLogs, SheetMedications, SheetMedicationLogs}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Days in recovery", "30"}, summary[3])
	assert.Equal(t, []string{"Average mood", "5.5"}, summary[5])
	assert.Equal(t, []string{"Doses missed", "1"}, summary[8])

	moods, err := f.GetRows(SheetMoodLogs)
	require.NoError(t, err)
	require.Len(t, moods, 3)
	assert.Equal(t, moodHeader, moods[0])
	assert.Equal(t, []string{"8", "2026-03-10T10:00:00Z", "3", "strong", "called sponsor"}, moods[2])

	doses, err := f.GetRows(SheetMedicationLogs)
	require.NoError(t, err)
	assert.Equal(t, "yes", doses[1][3])
	assert.Equal(t, "no", doses[2][3])
}

func TestBuildWorkbookEmptyReport(t *testing.T) {
	data, err := BuildWorkbook(Report{User: types.User{Username: "new"}, GeneratedAt: time.Now()})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetMoodLogs)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Average mood", "n/a"}, summary[5])
}
