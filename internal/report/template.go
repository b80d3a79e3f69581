package report

// TextTemplate is the terminal rendering of ReportData.
const TextTemplate = `{{.Title}}
{{- if .Period}}
Period of report: {{.Period}}{{end}}
Issuer: {{.Issuer.Name}} ({{.Issuer.TradingSymbol}}) CIK {{.Issuer.CIK}}

Reporting owners:
{{- range .Reporters}}
  {{.Name}} (CIK {{.CIK}}): {{.Roles}}
{{- end}}
{{if .Rows}}
Transactions:
{{- range .Rows}}
  [{{.Kind}}] {{.Security}}
    date {{.Date}}  code {{.Codes}}  change {{or .Change "-"}}  price {{or .Price "-"}}
    owned after {{.Owned}}  {{.Ownership}}
{{- range .CodeNotes}}
    {{.}}
{{- end}}
{{- end}}
{{else}}
No transactions reported.
{{end}}`

// HTMLTemplate is a standalone page rendering of ReportData.
const HTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 960px; margin: 0 auto; padding: 20px; color: #1a1a2e; }
  h1 { font-size: 1.4rem; border-bottom: 3px solid #2563eb; padding-bottom: 8px; }
  h2 { font-size: 1.1rem; margin-top: 24px; }
  table { border-collapse: collapse; width: 100%; font-size: 0.9rem; }
  th, td { border-bottom: 1px solid #e5e7eb; padding: 6px 8px; text-align: left; }
  th { background: #f8fafc; }
  .muted { color: #6b7280; font-size: 0.85rem; }
  .positive { color: #16a34a; }
  .negative { color: #dc2626; }
</style>
</head>
<body>
<h1>{{.Issuer.Name}} <span class="muted">{{.Issuer.TradingSymbol}} &middot; CIK {{.Issuer.CIK}}</span></h1>
<p class="muted">Accession {{.ID}}{{if .Period}} &middot; period {{.Period}}{{end}}</p>

<h2>Reporting owners</h2>
<table>
<tr><th>Name</th><th>CIK</th><th>Relationship</th></tr>
{{- range .Reporters}}
<tr><td>{{.Name}}</td><td>{{.CIK}}</td><td>{{.Roles}}</td></tr>
{{- end}}
</table>

<h2>Transactions</h2>
{{- if .Rows}}
<table>
<tr><th>Security</th><th>Date</th><th>Code</th><th>Change</th><th>Price</th><th>Owned after</th><th>Ownership</th></tr>
{{- range .Rows}}
<tr>
<td>{{.Security}} <span class="muted">{{.Kind}}</span></td>
<td>{{.Date}}</td>
<td title="{{range $i, $n := .CodeNotes}}{{if $i}}; {{end}}{{$n}}{{end}}">{{.Codes}}</td>
<td class="{{.Class}}">{{or .Change "-"}}</td>
<td>{{or .Price "-"}}</td>
<td>{{.Owned}}</td>
<td>{{.Ownership}}</td>
</tr>
{{- end}}
</table>
{{- else}}
<p class="muted">No transactions reported.</p>
{{- end}}
</body>
</html>
`
