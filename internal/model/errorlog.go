package model

// Severity classifies an error-log entry. Batch ingestion cannot surface
// per-item exceptions, so libraries accumulate structured problems instead.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// ErrorLogEntry is one recorded problem on a library. Entries are
// deduplicated by (Issue, Message): re-running a check never produces a
// second copy of the same finding.
type ErrorLogEntry struct {
	Issue    string // stable machine-readable topic, e.g. "license-conflict"
	Message  string // human-readable detail
	Severity Severity
	Status   string // "open" until a reviewer closes it
}

// Well-known error-log issue topics.
const (
	IssueLicenseConflict   = "license-conflict"
	IssueLicenseResolution = "license-resolution"
	IssueFuzzyArchiveMatch = "fuzzy-archive-match"
	IssueCopyright         = "copyright"
	IssueUpload            = "upload"
)

// LogProblem appends an error-log entry unless an entry with the same issue
// and message already exists. Returns true if the entry was added.
func (l *Library) LogProblem(issue, message string, severity Severity) bool {
	for _, e := range l.ErrorLog {
		if e.Issue == issue && e.Message == message {
			return false
		}
	}
	l.ErrorLog = append(l.ErrorLog, ErrorLogEntry{
		Issue:    issue,
		Message:  message,
		Severity: severity,
		Status:   "open",
	})
	return true
}

// HasProblem reports whether an entry with the given issue and message is
// already recorded.
func (l *Library) HasProblem(issue, message string) bool {
	for _, e := range l.ErrorLog {
		if e.Issue == issue && e.Message == message {
			return true
		}
	}
	return false
}
