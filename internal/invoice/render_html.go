package invoice

import (
	"html/template"
	"io"
)

var htmlTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} {{.Number}}</title>
<style>
body { font-family: Arial, sans-serif; padding: 20px; }
h2 { text-align: center; }
.details p, .totals p { margin: 5px 0; }
table { width: 100%; border-collapse: collapse; margin-top: 20px; }
th, td { border: 1px solid #ddd; padding: 10px; text-align: left; }
th { background-color: #f2f2f2; }
td.placeholder { text-align: center; }
@media print { .no-print { display: none; } }
</style>
</head>
<body>
<h2>{{.Title}}</h2>
<div class="details">
{{- range .Header}}
<p><strong>{{.Label}}:</strong> {{.Value}}</p>
{{- end}}
</div>
<table>
<thead>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- $span := len .Columns}}
{{- range .Rows}}
{{- if .Placeholder}}
<tr><td class="placeholder" colspan="{{$span}}">{{index .Cells 0}}</td></tr>
{{- else}}
<tr>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
{{- end}}
</tbody>
</table>
<div class="totals">
{{- range .Footer}}
<p><strong>{{.Label}}:</strong> {{.Value}}</p>
{{- end}}
</div>
<p class="no-print"><button onclick="window.print()">Print Invoice</button></p>
</body>
</html>
`))

// RenderHTML writes a standalone printable page.
func RenderHTML(w io.Writer, doc Document) error {
	return htmlTemplate.Execute(w, doc)
}
