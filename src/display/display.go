// Package display renders search results and publish outcomes for the terminal.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/usgs"
)

const rule = "------"

// Printer writes styled output to w.
type Printer struct {
	w      io.Writer
	styles *StyleConfig
}

// NewPrinter creates a printer with the default palette.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styles: DefaultStyles()}
}

func (p *Printer) line(style lipgloss.Style, format string, args ...interface{}) {
	fmt.Fprintln(p.w, style.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) plain(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) rule() {
	p.line(p.styles.RuleStyle(), rule)
}

// SearchResults prints the earthquakes a query returned.
func (p *Printer) SearchResults(quakes []usgs.Earthquake) {
	if len(quakes) == 0 {
		p.line(p.styles.WarningStyle(), "SUCCESS! (kinda)")
		p.rule()
		p.plain("No results found for the provided criteria :(")
		p.rule()
		return
	}

	p.line(p.styles.SuccessStyle(), "SUCCESS!")
	p.plain("%s", EarthquakeTable(quakes, p.styles))
}

// EarthquakeTable renders events as a bordered table.
func EarthquakeTable(quakes []usgs.Earthquake, styles *StyleConfig) string {
	rows := make([][]string, 0, len(quakes))
	for _, q := range quakes {
		rows = append(rows, []string{
			q.ID,
			q.Time.UTC().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.3f", q.Latitude),
			fmt.Sprintf("%.3f", q.Longitude),
			fmt.Sprintf("%.1f", q.Depth),
			fmt.Sprintf("M%.1f", q.Magnitude),
			q.Place,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.BorderColor)).
		Headers("ID", "TIME (UTC)", "LAT", "LON", "DEPTH KM", "MAG", "PLACE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.HeaderStyle()
			}
			return styles.CellStyle()
		})
	return t.String()
}

// Outcome prints the per-step result of a publish.
// On failure the steps are listed up to the first error.
func (p *Printer) Outcome(outcome contracts.Outcome) {
	steps := outcome.Requests.Steps()

	if !outcome.Succeeded {
		for _, step := range steps {
			p.plain("%s: %s - Status: %s", step.Name, step.Report.Message, step.Report.Status)
			if step.Report.Status == contracts.StatusError {
				if step.Name == "check_topic" {
					p.line(p.styles.WarningStyle(), "Tip: You can use --force to bypass topic checks.")
				}
				return
			}
		}
		return
	}

	p.rule()
	for _, step := range steps {
		switch step.Report.Status {
		case contracts.StatusWarning:
			p.line(p.styles.WarningStyle(), "Warning! %s: %s", step.Name, step.Report.Message)
		case contracts.StatusError:
			p.line(p.styles.ErrorStyle(), "%s: %s - Status: %s", step.Name, step.Report.Message, step.Report.Status)
		default:
			p.line(p.styles.SuccessStyle(), "%s: %s - Status: %s", step.Name, step.Report.Message, step.Report.Status)
		}
	}

	if len(outcome.Records) == 0 {
		p.line(p.styles.SuccessStyle(), "Success!")
		p.plain("No data has been sent.")
		p.rule()
		return
	}

	p.line(p.styles.SuccessStyle(), "Data successfully sent!")
	p.plain("The following items were added to Kafka:")
	p.rule()
	for _, record := range outcome.Records {
		p.plain("%s", RecordLine(record))
	}
	p.rule()
}

// RecordLine formats a delivered earthquake record as
// "id YYYY-MM-DD HH:MM:SS (lat,lon) depth km Mmag".
func RecordLine(record contracts.Record) string {
	value, err := record.Value()
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(record))
	}

	ts := time.Unix(toInt64(value["timestamp"]), 0).UTC().Format("2006-01-02 15:04:05")
	return fmt.Sprintf("%v %s (%v,%v) %v km M%v",
		value["id"], ts, value["latitude"], value["longitude"], value["depth"], value["magnitude"])
}

// toInt64 accepts the numeric types a record holds before and after a JSON round trip.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
