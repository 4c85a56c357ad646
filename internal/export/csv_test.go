package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umnlabs/checkoff/internal/models"
)

func row(email, first, last, section, lab, ta string, points, maxPoints int, verified time.Time, notes string) models.GradebookRow {
	return models.GradebookRow{
		GradebookEntry: models.GradebookEntry{
			Points:     points,
			MaxPoints:  maxPoints,
			TAInitials: ta,
			VerifiedAt: verified,
			Notes:      notes,
		},
		StudentEmail:     email,
		StudentFirstName: first,
		StudentLastName:  last,
		StudentSection:   section,
		LabCode:          lab,
		LabTitle:         "Lab " + lab,
	}
}

func TestTransform_Detailed(t *testing.T) {
	verified := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	records, err := Transform([]models.GradebookRow{
		row("swan0042@umn.edu", "Ada", "Swanson", "Section 010", "LAB05", "JK", 83, 100, verified, "resubmitted once"),
	}, FormatDetailed, "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"Student Email", "First Name", "Last Name", "Section",
		"Lab Code", "Lab Title", "Points", "Max Points", "Percentage",
		"TA Initials", "Verified Date", "Notes",
	}, records[0])
	assert.Equal(t, []string{
		"swan0042@umn.edu", "Ada", "Swanson", "Section 010",
		"LAB05", "Lab LAB05", "83", "100", "83.0%",
		"JK", "2026-03-14", "resubmitted once",
	}, records[1])
}

func TestTransform_SummaryPivot(t *testing.T) {
	verified := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	rows := []models.GradebookRow{
		row("swan0042@umn.edu", "Ada", "Swanson", "Section 010", "LAB02", "JK", 90, 100, verified, ""),
		row("swan0042@umn.edu", "Ada", "Swanson", "Section 010", "LAB01", "MN", 80, 100, verified, ""),
		row("lind0099@umn.edu", "Bo", "Lindgren", "Section 020", "LAB01", "JK", 100, 100, verified, ""),
	}

	records, err := Transform(rows, FormatSummary, "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Lab column groups are sorted lexicographically regardless of input order.
	assert.Equal(t, []string{
		"Student Email", "First Name", "Last Name", "Section",
		"LAB01 Points", "LAB01 TA", "LAB01 Date",
		"LAB02 Points", "LAB02 TA", "LAB02 Date",
		"Total Points", "Total Possible", "Overall Percentage",
	}, records[0])

	// Students keep first-seen order from the input rows.
	assert.Equal(t, []string{
		"swan0042@umn.edu", "Ada", "Swanson", "Section 010",
		"80", "MN", "2026-03-14",
		"90", "JK", "2026-03-14",
		"170", "200", "85.0%",
	}, records[1])

	// Unattempted labs fill zero points and empty TA and date, and still
	// count 100 toward the possible total.
	assert.Equal(t, []string{
		"lind0099@umn.edu", "Bo", "Lindgren", "Section 020",
		"100", "JK", "2026-03-14",
		"0", "", "",
		"100", "200", "50.0%",
	}, records[2])
}

func TestTransform_SectionFilter(t *testing.T) {
	verified := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	rows := []models.GradebookRow{
		row("swan0042@umn.edu", "Ada", "Swanson", "Section 010", "LAB01", "JK", 90, 100, verified, ""),
		row("lind0099@umn.edu", "Bo", "Lindgren", "Section 020", "LAB01", "JK", 100, 100, verified, ""),
	}

	records, err := Transform(rows, FormatSummary, "Section 020")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "lind0099@umn.edu", records[1][0])
}

func TestTransform_UnknownFormat(t *testing.T) {
	_, err := Transform(nil, Format("xml"), "")
	assert.Error(t, err)
}

func TestTransform_EmptySummary(t *testing.T) {
	records, err := Transform(nil, FormatSummary, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{
		"Student Email", "First Name", "Last Name", "Section",
		"Total Points", "Total Possible", "Overall Percentage",
	}, records[0])
}

func TestMarshal_QuotesSpecialFields(t *testing.T) {
	verified := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	records, err := Transform([]models.GradebookRow{
		row("swan0042@umn.edu", "Ada", "Swanson", "Section 010", "LAB01", "JK", 90, 100, verified,
			`partial credit, see "notes"`),
	}, FormatDetailed, "")
	require.NoError(t, err)

	data, err := Marshal(records)
	require.NoError(t, err)

	// Fields with commas or quotes must survive a round trip intact.
	assert.Contains(t, string(data), `"partial credit, see ""notes"""`)
}

func TestPercentage_ZeroDenominator(t *testing.T) {
	assert.Equal(t, "0%", percentage(0, 0))
	assert.Equal(t, "56.7%", percentage(170, 300))
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "gradebook-summary-all-2026-08-29.csv", Filename(FormatSummary, "", now))
	assert.Equal(t, "gradebook-detailed-Section 010-2026-08-29.csv", Filename(FormatDetailed, "Section 010", now))
}
