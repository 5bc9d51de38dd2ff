package constants

// ExportStructure selects the CSV/XLSX layout.
type ExportStructure string

const (
	ExportWide ExportStructure = "WIDE" // one row per document, one column per variable
	ExportLong ExportStructure = "LONG" // one row per (document, variable) pair
)

// FeedbackType is a human judgment on a single extraction.
type FeedbackType string

const (
	FeedbackCorrect   FeedbackType = "CORRECT"
	FeedbackIncorrect FeedbackType = "INCORRECT"
)
