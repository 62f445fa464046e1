package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/recoverytrack/apiserver/types"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names in the generated workbook.
const (
	SheetSummary        = "Summary"
	SheetMoodLogs       = "Mood Logs"
	SheetMedications    = "Medications"
	SheetMedicationLogs = "Medication Logs"
)

var (
	moodHeader          = []string{"ID", "Timestamp", "Mood", "Craving", "Notes"}
	medicationHeader    = []string{"ID", "Name", "Dosage", "Frequency", "Next Dose"}
	medicationLogHeader = []string{"ID", "Medication ID", "Timestamp", "Taken"}
)

// Report is the data rendered into a user's progress workbook.
type Report struct {
	User           types.User
	MoodLogs       []types.MoodLog
	Medications    []types.Medication
	MedicationLogs []types.MedicationLog
	GeneratedAt    time.Time
}

// BuildWorkbook renders report as an XLSX file.
func BuildWorkbook(report Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	summary := [][]any{
		{"Username", report.User.Username},
		{"Email", report.User.Email},
		{"Days in recovery", report.User.DaysInRecovery(report.GeneratedAt)},
		{"Mood check-ins", len(report.MoodLogs)},
		{"Average mood", averageMood(report.MoodLogs)},
		{"Active medications", len(report.Medications)},
		{"Doses taken", countTaken(report.MedicationLogs, true)},
		{"Doses missed", countTaken(report.MedicationLogs, false)},
		{"Generated at", formatTime(report.GeneratedAt)},
	}
	if err := writeSheet(f, SheetSummary, []string{"Metric", "Value"}, summary, headerStyle); err != nil {
		return nil, err
	}

	moods := make([][]any, 0, len(report.MoodLogs))
	for _, log := range report.MoodLogs {
		notes := ""
		if log.Notes != nil {
			notes = *log.Notes
		}
		moods = append(moods, []any{log.ID, formatTime(log.Timestamp), log.Mood, string(log.CravingLevel), notes})
	}
	if err := writeSheet(f, SheetMoodLogs, moodHeader, moods, headerStyle); err != nil {
		return nil, err
	}

	meds := make([][]any, 0, len(report.Medications))
	for _, med := range report.Medications {
		next := ""
		if med.NextDose != nil {
			next = formatTime(*med.NextDose)
		}
		meds = append(meds, []any{med.ID, med.Name, med.Dosage, med.Frequency, next})
	}
	if err := writeSheet(f, SheetMedications, medicationHeader, meds, headerStyle); err != nil {
		return nil, err
	}

	doses := make([][]any, 0, len(report.MedicationLogs))
	for _, log := range report.MedicationLogs {
		taken := "no"
		if log.Taken {
			taken = "yes"
		}
		doses = append(doses, []any{log.ID, log.MedicationID, formatTime(log.Timestamp), taken})
	}
	if err := writeSheet(f, SheetMedicationLogs, medicationLogHeader, doses, headerStyle); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("remove default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex(SheetSummary); err == nil {
		f.SetActiveSheet(index)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, title); err != nil {
			return fmt.Errorf("set header %s!%s: %w", name, cell, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header %s: %w", name, err)
	}

	for r, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(name, start, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, r+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(name, "A", lastCol, 20); err != nil {
		return err
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func averageMood(logs []types.MoodLog) string {
	if len(logs) == 0 {
		return "n/a"
	}
	total := 0
	for _, log := range logs {
		total += log.Mood
	}
	return fmt.Sprintf("%.1f", float64(total)/float64(len(logs)))
}

func countTaken(logs []types.MedicationLog, taken bool) int {
	n := 0
	for _, log := range logs {
		if log.Taken == taken {
			n++
		}
	}
	return n
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
