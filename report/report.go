package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/TFMV/rsmetrics/types"
)

// Format selects how results are rendered
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or csv)", s)
}

// Metric names one column of the output
type Metric string

const (
	MetricLCOM Metric = "lcom"
	MetricCBO  Metric = "cbo"
	MetricWMC  Metric = "wmc"
)

// AllMetrics in output order.
var AllMetrics = []Metric{MetricLCOM, MetricCBO, MetricWMC}

// ParseMetrics reads a comma separated metric list, or "all". The result is
// in canonical order without duplicates.
func ParseMetrics(s string) ([]Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return AllMetrics, nil
	}

	want := make(map[Metric]bool)
	for _, part := range strings.Split(s, ",") {
		m := Metric(strings.TrimSpace(part))
		if !slices.Contains(AllMetrics, m) {
			return nil, fmt.Errorf("unknown metric %q (want lcom, cbo, wmc or all)", part)
		}
		want[m] = true
	}

	var metrics []Metric
	for _, m := range AllMetrics {
		if want[m] {
			metrics = append(metrics, m)
		}
	}
	return metrics, nil
}

// Sort keys besides the metric names
const (
	SortDiscovery = "discovery"
	SortName      = "name"
)

// Sort orders results in place by key: "discovery" (or "") keeps the input
// order, "name" sorts ascending, a metric sorts descending (worst first).
// Ties keep their input order.
func Sort(results []types.AnalysisResult, key string) error {
	var cmp func(a, b types.AnalysisResult) int
	switch strings.ToLower(key) {
	case "", SortDiscovery:
		return nil
	case SortName:
		cmp = func(a, b types.AnalysisResult) int { return strings.Compare(a.TypeName, b.TypeName) }
	case string(MetricLCOM):
		cmp = func(a, b types.AnalysisResult) int { return compareDesc(a.LCOM, b.LCOM) }
	case string(MetricCBO):
		cmp = func(a, b types.AnalysisResult) int { return compareDesc(a.CBO, b.CBO) }
	case string(MetricWMC):
		cmp = func(a, b types.AnalysisResult) int { return compareDesc(a.WMC, b.WMC) }
	default:
		return fmt.Errorf("unknown sort key %q (want discovery, name, lcom, cbo or wmc)", key)
	}
	slices.SortStableFunc(results, cmp)
	return nil
}

func compareDesc[T int | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// Write renders results in the given format, restricted to metrics.
func Write(w io.Writer, results []types.AnalysisResult, format Format, metrics []Metric) error {
	if len(metrics) == 0 {
		metrics = AllMetrics
	}
	switch format {
	case FormatTable, "":
		return writeTable(w, results, metrics)
	case FormatJSON:
		return writeJSON(w, results, metrics)
	case FormatCSV:
		return writeCSV(w, results, metrics)
	}
	return fmt.Errorf("unknown output format %q", format)
}

const metricsLegend = `
LCOM  lack of cohesion in methods (Henderson-Sellers), 0 = cohesive, 1 = no shared fields
CBO   coupling between objects, distinct local types referenced
WMC   weighted methods per class, sum of method cyclomatic complexity
`

// NoResults is the whole table output of an empty run.
const NoResults = "No structs found to analyze.\n"

func writeTable(w io.Writer, results []types.AnalysisResult, metrics []Metric) error {
	if len(results) == 0 {
		_, err := io.WriteString(w, NoResults)
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-30s", "TYPE")
	for _, m := range metrics {
		fmt.Fprintf(&b, " %10s", strings.ToUpper(string(m)))
	}
	fmt.Fprintf(&b, "  %s\n", "FILE")

	for _, r := range results {
		fmt.Fprintf(&b, "%-30s", r.TypeName)
		for _, m := range metrics {
			switch m {
			case MetricLCOM:
				fmt.Fprintf(&b, " %10.3f", r.LCOM)
			case MetricCBO:
				fmt.Fprintf(&b, " %10d", r.CBO)
			case MetricWMC:
				fmt.Fprintf(&b, " %10d", r.WMC)
			}
		}
		fmt.Fprintf(&b, "  %s\n", r.File)
	}
	b.WriteString(metricsLegend)

	_, err := io.WriteString(w, b.String())
	return err
}

// row is one result with only the selected metrics set
type row struct {
	TypeName string   `json:"type_name"`
	File     string   `json:"file"`
	LCOM     *float64 `json:"lcom,omitempty"`
	CBO      *int     `json:"cbo,omitempty"`
	WMC      *int     `json:"wmc,omitempty"`
}

func newRow(r types.AnalysisResult, metrics []Metric) row {
	out := row{TypeName: r.TypeName, File: r.File}
	for _, m := range metrics {
		switch m {
		case MetricLCOM:
			out.LCOM = &r.LCOM
		case MetricCBO:
			out.CBO = &r.CBO
		case MetricWMC:
			out.WMC = &r.WMC
		}
	}
	return out
}

func writeJSON(w io.Writer, results []types.AnalysisResult, metrics []Metric) error {
	rows := make([]row, 0, len(results))
	for _, r := range results {
		rows = append(rows, newRow(r, metrics))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, results []types.AnalysisResult, metrics []Metric) error {
	cw := csv.NewWriter(w)

	header := []string{"type_name", "file"}
	for _, m := range metrics {
		header = append(header, string(m))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range results {
		record := []string{r.TypeName, r.File}
		for _, m := range metrics {
			switch m {
			case MetricLCOM:
				record = append(record, strconv.FormatFloat(r.LCOM, 'f', -1, 64))
			case MetricCBO:
				record = append(record, strconv.Itoa(r.CBO))
			case MetricWMC:
				record = append(record, strconv.Itoa(r.WMC))
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteType dumps one resolved type record as indented JSON.
func WriteType(w io.Writer, rec types.TypeRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode type %s: %w", rec.Name, err)
	}
	return nil
}
