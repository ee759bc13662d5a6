package csvio

import "strings"

// TemplateHeader is the canonical column order for uploads.
var TemplateHeader = []string{
	ColTaskHours,
	ColIdleHours,
	ColSocialMedia,
	ColBreakFrequency,
	ColTasksCompleted,
}

var templateRows = [][]string{
	{"6", "1", "0.5", "4", "8"},
	{"8", "0.5", "1", "3", "12"},
	{"4", "3", "2", "8", "3"},
	{"7", "1", "1.5", "5", "10"},
	{"5", "2", "3", "6", "5"},
	{"3", "4", "4", "10", "2"},
	{"9", "0", "0.5", "2", "15"},
}

// Template returns a downloadable example CSV covering the full
// productivity range, header included.
func Template() string {
	var b strings.Builder
	b.WriteString(strings.Join(TemplateHeader, ","))
	b.WriteString("\n")
	for _, row := range templateRows {
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	return b.String()
}
