// Package report renders a decoded filing for people: a plain-text view
// for the terminal and a standalone HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// ReportData is the flattened view both templates render.
type ReportData struct {
	Title     string
	ID        string
	Period    string
	Issuer    models.Issuer
	Reporters []ReporterRow
	Rows      []TransactionRow
}

// ReporterRow is one reporting owner.
type ReporterRow struct {
	Name  string
	CIK   string
	Roles string
}

// TransactionRow is one non-derivative or derivative line.
type TransactionRow struct {
	Kind      string // "common" or "derivative"
	Security  string
	Date      string
	Codes     string
	CodeNotes []string
	Change    string // e.g. "-100" or "+1,000"
	Price     string
	Owned     string
	Ownership string
	Class     string // "positive", "negative" or ""
}

// GenerateText renders a terminal-friendly summary.
func GenerateText(f *models.Filing) (string, error) {
	if f == nil {
		return "", fmt.Errorf("filing is nil")
	}
	tmpl, err := texttemplate.New("text").Parse(TextTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildReportData(f)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// GenerateHTML renders a standalone HTML page.
func GenerateHTML(f *models.Filing) (string, error) {
	if f == nil {
		return "", fmt.Errorf("filing is nil")
	}
	tmpl, err := template.New("report").Parse(HTMLTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildReportData(f)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func buildReportData(f *models.Filing) ReportData {
	d := ReportData{
		Title:  fmt.Sprintf("%s (%s) insider filing %s", f.Issuer.Name, f.Issuer.TradingSymbol, f.ID),
		ID:     f.ID,
		Period: f.PeriodOfReport,
		Issuer: f.Issuer,
	}

	for _, r := range f.Reporters {
		d.Reporters = append(d.Reporters, ReporterRow{Name: r.Name, CIK: r.CIK, Roles: formatRoles(r.Relations)})
	}

	for _, t := range f.NonDerivative {
		row := TransactionRow{
			Kind:      "common",
			Security:  t.SecurityTitle,
			Date:      deref(t.Date),
			Owned:     FormatShares(t.SharesOwned),
			Ownership: formatOwnership(t.Ownership),
		}
		row.Codes, row.CodeNotes = formatCodes(t.Codes)
		if t.Effect != nil {
			n := t.Effect.Shares
			if !t.Effect.Acquired() {
				n = -n
			}
			row.Change = FormatChange(n)
			row.Price = FormatPrice(t.Effect.PricePerShare)
			row.Class = changeClass(n)
		}
		d.Rows = append(d.Rows, row)
	}

	for _, t := range f.Derivative {
		row := TransactionRow{
			Kind:      "derivative",
			Security:  t.SecurityTitle,
			Date:      deref(t.Date),
			Owned:     FormatShares(t.SharesOwned),
			Ownership: formatOwnership(t.Ownership),
		}
		row.Codes, row.CodeNotes = formatCodes(t.Codes)
		if t.Count != nil {
			row.Change = FormatChange(t.Count.Signed())
			row.Class = changeClass(t.Count.Signed())
		}
		if t.PricePerShare != nil {
			row.Price = FormatPrice(*t.PricePerShare)
		}
		if t.Underlying != nil {
			row.Security += " on " + FormatShares(t.Underlying.Shares) + " " + t.Underlying.Title
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// formatRoles lists the set flags in form order. A title is shown even
// when its flag is not set.
func formatRoles(s models.RelationSet) string {
	var parts []string
	if s.Has(models.RelationDirector) {
		parts = append(parts, "Director")
	}
	parts = appendTitled(parts, "Officer", s.Has(models.RelationOfficer), s.OfficerTitle)
	if s.Has(models.RelationTenPercentOwner) {
		parts = append(parts, "10% Owner")
	}
	parts = appendTitled(parts, "Other", s.Has(models.RelationOther), s.OtherText)
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func appendTitled(parts []string, label string, flagged bool, title *string) []string {
	switch {
	case flagged && title != nil:
		return append(parts, label+" ("+*title+")")
	case flagged:
		return append(parts, label)
	case title != nil:
		return append(parts, *title)
	}
	return parts
}

func formatCodes(codes []models.TransactionCode) (string, []string) {
	if len(codes) == 0 {
		return "-", nil
	}
	var letters strings.Builder
	notes := make([]string, 0, len(codes))
	for _, c := range codes {
		letters.WriteString(string(c))
		notes = append(notes, string(c)+": "+c.Description())
	}
	return letters.String(), notes
}

func formatOwnership(o models.Ownership) string {
	if o.IsDirect() {
		return "Direct"
	}
	return "Indirect (" + o.Nature + ")"
}

func changeClass(n int64) string {
	switch {
	case n > 0:
		return "positive"
	case n < 0:
		return "negative"
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
