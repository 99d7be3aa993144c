package planner

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

const defaultSummaryTemplate = `Plan {{.ID}}
Jobs: {{.TotalJobs}} on {{.Config.Workers}} workers ({{.Passes}} passes)
Makespan: {{.Makespan}} (lower bound {{.LowerBound}})
Order: {{.Order}}
Critical path: {{join .CriticalPath " -> "}}
{{- range .Workers}}
worker {{.Index}}:{{range .Jobs}} {{.JobID}}[{{.Start}}-{{.End}}]{{end}} ({{pct .Utilization}})
{{- end}}
`

var summaryFuncs = template.FuncMap{
	"join": strings.Join,
	"pct":  func(r float64) string { return fmt.Sprintf("%.0f%%", r*100) },
}

// RenderSummary renders a plan summary using either a custom template file or the default.
func RenderSummary(plan *Plan, templatePath string) (string, error) {
	tmplStr := defaultSummaryTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", err
		}
		tmplStr = string(content)
	}

	tmpl, err := template.New("summary").Funcs(summaryFuncs).Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, plan); err != nil {
		return "", err
	}
	return buf.String(), nil
}
