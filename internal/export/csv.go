package export

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/docsift/docsift/constants"
	"github.com/docsift/docsift/internal/entity"
)

// ToCSV serializes the result set into a complete in-memory CSV string.
// Fields containing a comma, double quote, or newline are wrapped in
// double quotes with inner quotes doubled (RFC 4180); lines end in LF.
func ToCSV(docs []entity.DocumentResult, variables []string, opts entity.ExportOptions) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(BuildRows(docs, variables, opts)); err != nil {
		return "", fmt.Errorf("csv write: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("csv flush: %w", err)
	}
	return sb.String(), nil
}

// Filename suggests a download name for an export produced at t.
// Triggering the actual download is the caller's concern.
func Filename(opts entity.ExportOptions, t time.Time, extension string) string {
	structure := opts.Structure
	if structure == "" {
		structure = constants.ExportWide
	}
	return fmt.Sprintf("extraction_results_%s_%s.%s",
		strings.ToLower(string(structure)), t.Format("20060102_150405"), extension)
}
