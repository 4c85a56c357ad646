// Package export reshapes gradebook rows into tabular CSV output, either flat
// (one row per entry) or pivoted per student with one column group per lab.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/umnlabs/checkoff/internal/models"
)

type Format string

const (
	FormatSummary  Format = "summary"
	FormatDetailed Format = "detailed"
)

func (f Format) String() string {
	return string(f)
}

func IsValidFormat(format string) bool {
	switch Format(format) {
	case FormatSummary, FormatDetailed:
		return true
	default:
		return false
	}
}

const dateLayout = "2006-01-02"

// Transform produces the CSV records (header first) for the requested format.
// The section filter is exact string equality against the student's section
// and is applied before any grouping.
func Transform(rows []models.GradebookRow, format Format, section string) ([][]string, error) {
	filtered := rows
	if section != "" {
		filtered = make([]models.GradebookRow, 0, len(rows))
		for _, row := range rows {
			if row.StudentSection == section {
				filtered = append(filtered, row)
			}
		}
	}

	switch format {
	case FormatDetailed:
		return detailed(filtered), nil
	case FormatSummary:
		return summary(filtered), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Marshal serializes records with RFC 4180 quoting.
func Marshal(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename matches the download name the frontend expects,
// e.g. gradebook-summary-all-2026-08-29.csv.
func Filename(format Format, section string, now time.Time) string {
	if section == "" {
		section = "all"
	}
	return fmt.Sprintf("gradebook-%s-%s-%s.csv", format, section, now.Format(dateLayout))
}

func detailed(rows []models.GradebookRow) [][]string {
	records := [][]string{{
		"Student Email",
		"First Name",
		"Last Name",
		"Section",
		"Lab Code",
		"Lab Title",
		"Points",
		"Max Points",
		"Percentage",
		"TA Initials",
		"Verified Date",
		"Notes",
	}}

	for _, row := range rows {
		records = append(records, []string{
			row.StudentEmail,
			row.StudentFirstName,
			row.StudentLastName,
			row.StudentSection,
			row.LabCode,
			row.LabTitle,
			strconv.Itoa(row.Points),
			strconv.Itoa(row.MaxPoints),
			percentage(row.Points, row.MaxPoints),
			row.TAInitials,
			row.VerifiedAt.Format(dateLayout),
			row.Notes,
		})
	}

	return records
}

type studentGrades struct {
	email     string
	firstName string
	lastName  string
	section   string
	labs      map[string]models.GradebookRow
}

func summary(rows []models.GradebookRow) [][]string {
	students := make(map[string]*studentGrades)
	var studentOrder []string
	labSet := make(map[string]struct{})

	for _, row := range rows {
		labSet[row.LabCode] = struct{}{}

		student, ok := students[row.StudentEmail]
		if !ok {
			student = &studentGrades{
				email:     row.StudentEmail,
				firstName: row.StudentFirstName,
				lastName:  row.StudentLastName,
				section:   row.StudentSection,
				labs:      make(map[string]models.GradebookRow),
			}
			students[row.StudentEmail] = student
			studentOrder = append(studentOrder, row.StudentEmail)
		}
		student.labs[row.LabCode] = row
	}

	labs := make([]string, 0, len(labSet))
	for lab := range labSet {
		labs = append(labs, lab)
	}
	sort.Strings(labs)

	header := []string{"Student Email", "First Name", "Last Name", "Section"}
	for _, lab := range labs {
		header = append(header, lab+" Points", lab+" TA", lab+" Date")
	}
	header = append(header, "Total Points", "Total Possible", "Overall Percentage")
	records := [][]string{header}

	for _, email := range studentOrder {
		student := students[email]
		record := []string{student.email, student.firstName, student.lastName, student.section}

		totalPoints := 0
		totalPossible := 0
		for _, lab := range labs {
			if entry, ok := student.labs[lab]; ok {
				record = append(record,
					strconv.Itoa(entry.Points),
					entry.TAInitials,
					entry.VerifiedAt.Format(dateLayout),
				)
				totalPoints += entry.Points
				totalPossible += entry.MaxPoints
			} else {
				// Unattempted labs still count toward the denominator.
				record = append(record, "0", "", "")
				totalPossible += 100
			}
		}

		record = append(record,
			strconv.Itoa(totalPoints),
			strconv.Itoa(totalPossible),
			percentage(totalPoints, totalPossible),
		)
		records = append(records, record)
	}

	return records
}

func percentage(points, maxPoints int) string {
	if maxPoints <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(points)/float64(maxPoints)*100)
}
