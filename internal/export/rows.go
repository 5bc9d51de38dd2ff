// Package export serializes an aggregated, filtered result set into a
// wide or long tabular layout, as CSV text or an XLSX workbook. The
// confidence threshold is applied through the aggregator's all-fields
// rule before any row is built; this package only renders.
package export

import (
	"math"
	"strconv"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/entity"
	"github.com/docsift/docsift/internal/results"
)

// BuildRows renders the header plus data rows for the requested layout.
// Missing variable entries render as empty strings, never a null literal.
func BuildRows(docs []entity.DocumentResult, variables []string, opts entity.ExportOptions) [][]string {
	if opts.MinConfidence != nil {
		docs = results.FilterByConfidence(docs, *opts.MinConfidence)
	}
	if opts.Structure == constants.ExportLong {
		return longRows(docs, variables, opts)
	}
	return wideRows(docs, variables, opts)
}

// wideRows emits one row per document, one column per variable. With
// confidence included, each variable's confidence column follows its
// value column, keeping the pair adjacent for spreadsheet readers.
func wideRows(docs []entity.DocumentResult, variables []string, opts entity.ExportOptions) [][]string {
	header := []string{"Document"}
	for _, v := range variables {
		header = append(header, v)
		if opts.IncludeConfidence {
			header = append(header, v+"_confidence")
		}
	}
	header = append(header, "AvgConfidence")

	rows := [][]string{header}
	for _, doc := range docs {
		row := []string{documentLabel(doc)}
		for _, v := range variables {
			fv, ok := doc.Data[v]
			row = append(row, fieldText(fv, ok))
			if opts.IncludeConfidence {
				if ok {
					row = append(row, strconv.Itoa(fv.Confidence))
				} else {
					row = append(row, "")
				}
			}
		}
		row = append(row, formatAverage(doc.AverageConfidence))
		rows = append(rows, row)
	}
	return rows
}

// longRows emits one row per (document, variable) pair present in the
// data map. Documents with no entry for a variable produce no row.
func longRows(docs []entity.DocumentResult, variables []string, opts entity.ExportOptions) [][]string {
	header := []string{"Document", "Variable", "Value"}
	if opts.IncludeConfidence {
		header = append(header, "Confidence")
	}
	if opts.IncludeSourceText {
		header = append(header, "SourceText")
	}

	rows := [][]string{header}
	for _, doc := range docs {
		for _, v := range variables {
			fv, ok := doc.Data[v]
			if !ok {
				continue
			}
			row := []string{documentLabel(doc), v, fieldText(fv, true)}
			if opts.IncludeConfidence {
				row = append(row, strconv.Itoa(fv.Confidence))
			}
			if opts.IncludeSourceText {
				if fv.SourceText != nil {
					row = append(row, *fv.SourceText)
				} else {
					row = append(row, "")
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func documentLabel(doc entity.DocumentResult) string {
	if doc.DocumentName != "" {
		return doc.DocumentName
	}
	return doc.DocumentID
}

func fieldText(fv entity.FieldValue, ok bool) string {
	if !ok || fv.Value == nil {
		return ""
	}
	return *fv.Value
}

// formatAverage renders a mean confidence rounded to two decimals, with
// no trailing ".0" so whole numbers stay whole in the output.
func formatAverage(avg float64) string {
	return strconv.FormatFloat(math.Round(avg*100)/100, 'f', -1, 64)
}
