package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

// RunReport summarizes one finished backtest run for the Org-mode report.
type RunReport struct {
	RunID    string
	Strategy string
	Symbols  []string
	Created  time.Time

	Start string
	End   string

	Deposits   float64
	FinalValue float64

	TotalTrades       int
	CommissionExpense float64
	SpreadExpense     float64
	DebtExpense       float64
	OtherExpense      float64

	Notes []string
}

// NetPL is the result net of everything paid in.
func (r *RunReport) NetPL() float64 { return r.FinalValue - r.Deposits }

// ReturnPct is the net result in percent of the deposits.
func (r *RunReport) ReturnPct() float64 {
	if r.Deposits == 0 {
		return 0
	}
	return r.NetPL() / r.Deposits * 100
}

// TotalExpenses sums every expense category.
func (r *RunReport) TotalExpenses() float64 {
	return r.CommissionExpense + r.SpreadExpense + r.DebtExpense + r.OtherExpense
}

var runOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

// WriteOrg renders the report as an Org-mode file at path.
func (r *RunReport) WriteOrg(path string) error {
	t, err := template.New("run").Funcs(runOrgFuncs).Parse(runOrgTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := t.Execute(buf, r); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

const runOrgTemplate = `
* BACKTEST: {{.Strategy}}{{range .Symbols}} {{.}}{{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:START_DATE:  {{.Start}}
:END_DATE:    {{.End}}
:DEPOSITS:    {{printf "%.2f" .Deposits}}
:FINAL_VALUE: {{printf "%.2f" .FinalValue}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:TRADES:      {{.TotalTrades}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Deposits:         *{{printf "%.2f" .Deposits}}*
- Final Value:      *{{printf "%.2f" .FinalValue}}*
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*

** Expenses
| Category   | Amount |
|------------+--------|
| Commission | {{printf "%.2f" .CommissionExpense}} |
| Spread     | {{printf "%.2f" .SpreadExpense}} |
| Debt       | {{printf "%.2f" .DebtExpense}} |
| Other      | {{printf "%.2f" .OtherExpense}} |
| Total      | {{printf "%.2f" .TotalExpenses}} |

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
