package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/panbanda/oometrics/pkg/analyzer/cohesion"
	"github.com/panbanda/oometrics/pkg/config"
)

// CSVHeader is the column layout of the CSV export.
var CSVHeader = []string{"Class", "Path", "WMC", "DIT", "NOC", "CBO", "AdvancedCBO", "RFC", "LCOM"}

// CKReport renders a CK metrics analysis. Thresholds drive highlighting in
// text output only.
type CKReport struct {
	Analysis   *cohesion.Analysis
	Thresholds config.ThresholdConfig
}

// NewCKReport wraps an analysis for rendering.
func NewCKReport(analysis *cohesion.Analysis, thresholds config.ThresholdConfig) *CKReport {
	return &CKReport{Analysis: analysis, Thresholds: thresholds}
}

// ckData is the serialized form of an analysis. Enum fields are plain
// strings because the TOON encoder rejects named string types.
type ckData struct {
	GeneratedAt string                  `json:"generated_at" yaml:"generated_at" toon:"generated_at"`
	Scope       string                  `json:"scope" yaml:"scope" toon:"scope"`
	RFCFormula  string                  `json:"rfc_formula" yaml:"rfc_formula" toon:"rfc_formula"`
	LCOMFormula string                  `json:"lcom_formula" yaml:"lcom_formula" toon:"lcom_formula"`
	Classes     []cohesion.ClassMetrics `json:"classes" yaml:"classes" toon:"classes"`
	Summary     cohesion.Summary        `json:"summary" yaml:"summary" toon:"summary"`
	Diagnostics []string                `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" toon:"diagnostics,omitempty"`
}

func (r *CKReport) RenderData() any {
	a := r.Analysis
	return ckData{
		GeneratedAt: a.GeneratedAt.UTC().Format(time.RFC3339),
		Scope:       string(a.Scope),
		RFCFormula:  string(a.RFCFormula),
		LCOMFormula: string(a.LCOMFormula),
		Classes:     a.Classes,
		Summary:     a.Summary,
		Diagnostics: a.Diagnostics,
	}
}

func (r *CKReport) headers() []string {
	return []string{"Class", "File", "WMC", "DIT", "NOC", "CBO", "ACBO", "RFC", "LCOM"}
}

func (r *CKReport) row(c *cohesion.ClassMetrics, colored bool) []string {
	cell := func(v, threshold int) string {
		s := strconv.Itoa(v)
		if colored {
			return ThresholdColor(v, threshold, s)
		}
		return s
	}

	dit := cell(c.DIT, r.Thresholds.DIT)
	if c.DITCycle {
		dit += "*"
	}
	return []string{
		c.ClassName,
		c.Path,
		cell(c.WMC, r.Thresholds.WMC),
		dit,
		cell(c.NOC, r.Thresholds.NOC),
		cell(c.CBO, r.Thresholds.CBO),
		cell(c.AdvancedCBO, r.Thresholds.CBO),
		cell(c.RFC, r.Thresholds.RFC),
		cell(c.LCOM, r.Thresholds.LCOM),
	}
}

func (r *CKReport) table(colored bool) *Table {
	rows := make([][]string, 0, len(r.Analysis.Classes))
	for i := range r.Analysis.Classes {
		rows = append(rows, r.row(&r.Analysis.Classes[i], colored))
	}
	s := r.Analysis.Summary
	footer := []string{
		fmt.Sprintf("%d classes", s.TotalClasses),
		fmt.Sprintf("%d files", s.TotalFiles),
		fmt.Sprintf("avg %.1f", s.AvgWMC),
		fmt.Sprintf("avg %.1f", s.AvgDIT),
		"",
		fmt.Sprintf("avg %.1f", s.AvgCBO),
		fmt.Sprintf("avg %.1f", s.AvgACBO),
		fmt.Sprintf("avg %.1f", s.AvgRFC),
		fmt.Sprintf("avg %.1f", s.AvgLCOM),
	}
	return NewTable("CK Metrics", r.headers(), rows, footer, nil)
}

func (r *CKReport) summary() *Section {
	s := r.Analysis.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "Scope: %s, RFC: %s, LCOM: %s\n", r.Analysis.Scope, r.Analysis.RFCFormula, r.Analysis.LCOMFormula)
	fmt.Fprintf(&b, "Max WMC %d, DIT %d, NOC %d, CBO %d, RFC %d, LCOM %d\n",
		s.MaxWMC, s.MaxDIT, s.MaxNOC, s.MaxCBO, s.MaxRFC, s.MaxLCOM)
	fmt.Fprintf(&b, "Low cohesion classes: %d\n", s.LowCohesionCount)
	fmt.Fprintf(&b, "Inheritance cycles: %d\n", s.InheritanceCycles)
	fmt.Fprintf(&b, "Failed files: %d", s.FailedFiles)

	sec := &Section{Title: "Summary", Content: b.String()}
	if len(r.Analysis.Diagnostics) > 0 {
		sec.Sections = append(sec.Sections, Section{
			Title:   "Diagnostics",
			Content: "- " + strings.Join(r.Analysis.Diagnostics, "\n- "),
		})
	}
	return sec
}

func (r *CKReport) RenderText(w io.Writer, colored bool) error {
	if len(r.Analysis.Classes) == 0 {
		fmt.Fprintln(w, "No classes found.")
		return nil
	}
	if err := r.table(colored).RenderText(w, colored); err != nil {
		return err
	}
	return r.summary().RenderText(w, colored)
}

func (r *CKReport) RenderMarkdown(w io.Writer) error {
	if len(r.Analysis.Classes) == 0 {
		fmt.Fprintln(w, "No classes found.")
		return nil
	}
	if err := r.table(false).RenderMarkdown(w); err != nil {
		return err
	}
	return r.summary().RenderMarkdown(w)
}

// RenderCSV writes one row per class under CSVHeader.
func (r *CKReport) RenderCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, c := range r.Analysis.Classes {
		record := []string{
			c.ClassName,
			c.Path,
			strconv.Itoa(c.WMC),
			strconv.Itoa(c.DIT),
			strconv.Itoa(c.NOC),
			strconv.Itoa(c.CBO),
			strconv.Itoa(c.AdvancedCBO),
			strconv.Itoa(c.RFC),
			strconv.Itoa(c.LCOM),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
