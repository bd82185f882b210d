// Package report assembles the per-document ranking output and writes it
// to disk.
package report

import (
	"time"

	"github.com/dgallion1/sectionrank/internal/doctree"
)

// TimestampLayout is ISO-8601 with microseconds and no zone.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Report is the output record for one ranked document.
type Report struct {
	Metadata           Metadata             `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis"`
}

type Metadata struct {
	Document            string `json:"document"`
	Collection          string `json:"collection"`
	Persona             string `json:"persona"`
	JobToBeDone         string `json:"job_to_be_done"`
	ProcessingTimestamp string `json:"processing_timestamp"`
}

type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

type SubsectionAnalysis struct {
	Document    string `json:"document"`
	RefinedText string `json:"refined_text"`
	PageNumber  int    `json:"page_number"`
}

// Assembler turns ranked sections into a Report.
type Assembler struct {
	RefineLines int
	Now         func() time.Time
}

// Build produces the report for one document. Page numbers are 1-based.
func (a Assembler) Build(meta Metadata, ranked []doctree.RankedSection) *Report {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	meta.ProcessingTimestamp = now().Format(TimestampLayout)

	rep := &Report{
		Metadata:           meta,
		ExtractedSections:  make([]ExtractedSection, 0, len(ranked)),
		SubsectionAnalysis: make([]SubsectionAnalysis, 0, len(ranked)),
	}
	for _, rs := range ranked {
		rep.ExtractedSections = append(rep.ExtractedSections, ExtractedSection{
			Document:       meta.Document,
			SectionTitle:   rs.Title,
			ImportanceRank: rs.Rank,
			PageNumber:     rs.Page + 1,
		})
		rep.SubsectionAnalysis = append(rep.SubsectionAnalysis, SubsectionAnalysis{
			Document:    meta.Document,
			RefinedText: rs.Prefix(a.RefineLines),
			PageNumber:  rs.Page + 1,
		})
	}
	return rep
}
