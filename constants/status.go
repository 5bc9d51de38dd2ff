package constants

// JobStatus is the canonical lifecycle status of a processing job.
type JobStatus string

// Stable values (the service sends these exact strings on the wire).
const (
	JobStatusPending    JobStatus = "PENDING"    // created, not yet picked up
	JobStatusProcessing JobStatus = "PROCESSING" // extraction in progress
	JobStatusComplete   JobStatus = "COMPLETE"   // terminal success
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure
	JobStatusCancelled  JobStatus = "CANCELLED"  // terminal, cancelled by user
)

// Terminal reports whether no further status transition can occur.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusComplete, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// ParseJobStatus maps a wire status to a JobStatus. Unknown values fall
// back to PENDING so that polling survives forward-compatible additions.
func ParseJobStatus(s string) JobStatus {
	switch JobStatus(s) {
	case JobStatusPending, JobStatusProcessing, JobStatusComplete, JobStatusFailed, JobStatusCancelled:
		return JobStatus(s)
	}
	return JobStatusPending
}

// JobType distinguishes a sample run over a document subset from a full run.
type JobType string

const (
	JobTypeSample JobType = "SAMPLE"
	JobTypeFull   JobType = "FULL"
)

// ParseJobType maps a wire job type, defaulting unknown values to FULL.
func ParseJobType(s string) JobType {
	if JobType(s) == JobTypeSample {
		return JobTypeSample
	}
	return JobTypeFull
}

// LogLevel is the severity of a job log entry.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// ParseLogLevel maps a wire log level, defaulting unknown values to INFO.
func ParseLogLevel(s string) LogLevel {
	switch LogLevel(s) {
	case LogLevelInfo, LogLevelWarning, LogLevelError:
		return LogLevel(s)
	}
	return LogLevelInfo
}
