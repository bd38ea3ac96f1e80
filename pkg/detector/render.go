package detector

import (
	"strconv"
	"strings"
	"time"

	"phishjudge/pkg/features"
	"phishjudge/pkg/risk"
)

// Response is the JSON form of a verdict served to clients.
type Response struct {
	ID                string         `json:"id"`
	URL               string         `json:"url"`
	Result            Label          `json:"result"`
	Probability       float64        `json:"probability"`
	Confidence        float64        `json:"confidence"`
	RiskLevel         risk.Tier      `json:"risk_level"`
	Warnings          []string       `json:"warnings"`
	Features          map[string]int `json:"features"`
	StatisticalReport int            `json:"statistical_report"`
	Errors            []string       `json:"errors,omitempty"`
	CheckedAt         time.Time      `json:"checked_at"`
}

func (v *Verdict) Response() Response {
	return Response{
		ID:                v.ID,
		URL:               v.URL,
		Result:            v.Label,
		Probability:       v.Probability,
		Confidence:        v.Confidence,
		RiskLevel:         v.Tier,
		Warnings:          v.Warnings,
		Features:          v.Features.Named(),
		StatisticalReport: int(v.Report),
		Errors:            v.Errors,
		CheckedAt:         v.CheckedAt,
	}
}

// CSVHeader returns the header row matching ToCSVRow.
func CSVHeader() []string {
	header := []string{"id", "url", "result", "probability", "confidence", "risk_level"}
	header = append(header, features.Names[:]...)
	return append(header,
		features.ReportName,
		"status_code", "redirect_count", "warnings", "extraction_errors", "checked_at", "is_phishing",
	)
}

// btoi renders a ground-truth flag; unknown is empty.
func btoi(b *bool) string {
	switch {
	case b == nil:
		return ""
	case *b:
		return "True"
	default:
		return "False"
	}
}

// ToCSVRow flattens the verdict in CSVHeader order.
func (v *Verdict) ToCSVRow() []string {
	row := make([]string, 0, len(CSVHeader()))
	row = append(row,
		v.ID,
		v.URL,
		string(v.Label),
		strconv.FormatFloat(v.Probability, 'f', 6, 64),
		strconv.FormatFloat(v.Confidence, 'f', 6, 64),
		string(v.Tier),
	)
	for _, s := range v.Features {
		row = append(row, strconv.Itoa(int(s)))
	}
	row = append(row, strconv.Itoa(int(v.Report)))

	status := ""
	if v.Status != 0 {
		status = strconv.Itoa(v.Status)
	}
	return append(row,
		status,
		strconv.Itoa(len(v.Redirects)),
		strings.Join(v.Warnings, "; "),
		strings.Join(v.Errors, "; "),
		v.CheckedAt.Format(time.RFC3339),
		btoi(v.Truth),
	)
}
