package analysis

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/health-score/internal/agent"
	"github.com/sells-group/health-score/internal/model"
)

// AlertDefinition describes the alert raised for one flag.
type AlertDefinition struct {
	Severity model.Severity `yaml:"severity"`
	Message  string         `yaml:"message"`
}

// Catalog maps flags to alert definitions and carries the cancellation
// keywords used by the messaging agent.
type Catalog struct {
	Alerts               map[string]AlertDefinition `yaml:"alerts"`
	CancellationKeywords []string                   `yaml:"cancellation_keywords"`
}

// DefaultCatalog returns the built-in alert definitions. no_payment_data and
// no_whatsapp_data have no definition and never raise an alert.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Alerts: map[string]AlertDefinition{
			agent.FlagChargeback:         {model.SeverityHigh, "A chargeback or refund was registered in the last 60 days."},
			agent.FlagLongOverdue:        {model.SeverityHigh, "A payment is more than 30 days overdue."},
			agent.FlagConsecutiveOverdue: {model.SeverityHigh, "Two or more consecutive payments are overdue."},
			agent.FlagNoFormResponse:     {model.SeverityLow, "No satisfaction form answered in the last 90 days."},
			agent.FlagNPSDetractor:       {model.SeverityMedium, "The latest NPS rating is 6 or lower."},
			agent.FlagNPSConsecutiveLow:  {model.SeverityHigh, "The last two NPS ratings are 6 or lower."},
			agent.FlagFormSilence:        {model.SeverityMedium, "Detractor with no form answered in the last 30 days."},
			agent.FlagSilence:            {model.SeverityMedium, "The client barely wrote in the group chat in the last 60 days."},
			agent.FlagCancellationRisk:   {model.SeverityHigh, "Client messages mention cancellation or dissatisfaction."},
		},
		CancellationKeywords: append([]string(nil), agent.DefaultCancellationKeywords...),
	}
}

// LoadCatalog returns the default catalog overlaid with the YAML file at
// path. Alert entries in the file replace or extend the defaults; a non-empty
// keyword list replaces the default keywords. An empty path returns the
// defaults.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: read catalog %s", path)
	}
	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "analysis: parse catalog %s", path)
	}

	for flag, def := range file.Alerts {
		switch def.Severity {
		case model.SeverityLow, model.SeverityMedium, model.SeverityHigh:
		default:
			return nil, eris.Errorf("analysis: catalog %s: flag %q has invalid severity %q", path, flag, def.Severity)
		}
		if def.Message == "" {
			return nil, eris.Errorf("analysis: catalog %s: flag %q has no message", path, flag)
		}
		cat.Alerts[flag] = def
	}
	if len(file.CancellationKeywords) > 0 {
		cat.CancellationKeywords = file.CancellationKeywords
	}
	return cat, nil
}

// Lookup returns the alert definition for a flag.
func (c *Catalog) Lookup(flag string) (AlertDefinition, bool) {
	def, ok := c.Alerts[flag]
	return def, ok
}

// MappedFlags returns the distinct flags that have an alert definition, in
// sorted order.
func (c *Catalog) MappedFlags(flags []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range flags {
		if _, ok := c.Alerts[f]; ok && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
