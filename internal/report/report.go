// Package report exports health-score history and open alerts to XLSX.
package report

import (
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/health-score/internal/model"
)

// Sheet names in the exported workbook.
const (
	SheetRuns   = "Health Scores"
	SheetAlerts = "Open Alerts"
)

var (
	runHeader   = []string{"Created At", "Client ID", "Client", "Score", "Financial", "Proximity", "Outcome", "NPS", "Churn Risk", "Flags", "Triggered By", "Tokens", "Cost (BRL)"}
	alertHeader = []string{"Created At", "Client ID", "Client", "Type", "Severity", "Message"}
)

// Input is the data exported by Build. ClientNames maps client id to a
// display name; unknown ids leave the name column empty.
type Input struct {
	Runs        []model.AnalysisRun
	Alerts      []model.Alert
	ClientNames map[string]string
}

// Build assembles the workbook.
func Build(in Input) (*xlsx.File, error) {
	f := xlsx.NewFile()

	runs, err := f.AddSheet(SheetRuns)
	if err != nil {
		return nil, eris.Wrap(err, "report: add runs sheet")
	}
	addHeader(runs, runHeader)
	for _, r := range in.Runs {
		row := runs.AddRow()
		addString(row, r.CreatedAt.UTC().Format(time.RFC3339))
		addString(row, r.ClientID)
		addString(row, in.ClientNames[r.ClientID])
		row.AddCell().SetInt(r.ScoreTotal)
		for _, p := range []*int{r.ScoreFinancial, r.ScoreProximity, r.ScoreOutcome, r.ScoreNPS} {
			addOptionalInt(row, p)
		}
		addString(row, string(r.ChurnRisk))
		addString(row, strings.Join(r.Flags, ", "))
		addString(row, string(r.TriggeredBy))
		row.AddCell().SetInt(r.TokensUsed)
		row.AddCell().SetFloat(r.EstimatedCostBRL)
	}

	alerts, err := f.AddSheet(SheetAlerts)
	if err != nil {
		return nil, eris.Wrap(err, "report: add alerts sheet")
	}
	addHeader(alerts, alertHeader)
	for _, a := range in.Alerts {
		row := alerts.AddRow()
		addString(row, a.CreatedAt.UTC().Format(time.RFC3339))
		addString(row, a.ClientID)
		addString(row, in.ClientNames[a.ClientID])
		addString(row, a.Type)
		addString(row, string(a.Severity))
		addString(row, a.Message)
	}
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "report: write xlsx")
}

// Save builds the workbook and saves it to path.
func Save(path string, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func addHeader(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		addString(row, c)
	}
}

func addString(row *xlsx.Row, v string) {
	row.AddCell().SetString(v)
}

func addOptionalInt(row *xlsx.Row, v *int) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt(*v)
	}
}
