package copyright

import "github.com/kompline/kompline/internal/model"

// Reconciled is the caller-facing outcome of weighing the full scan against
// the documentation-only scan. Copyrights is what gets stored on the library;
// Severity/Message describe the log entry to record (Message empty when the
// two scans agree well enough that nothing is worth logging).
type Reconciled struct {
	Copyrights []string
	Severity   model.Severity
	Message    string
}

// Reconcile applies the disagreement policy between the two scan sets:
//
//   - documentation set present but the full scan found more than twice as
//     many statements: trust the documentation set, flag for manual audit
//   - documentation set empty, full scan non-empty: take the full scan,
//     note the lower confidence
//   - both empty: sentinel "no copyright found", loud
//   - otherwise: the documentation set stands
func Reconcile(res Result) Reconciled {
	switch {
	case len(res.Simple) > 0 && len(res.Full) > 2*len(res.Simple):
		return Reconciled{
			Copyrights: res.Simple,
			Severity:   model.SeverityMedium,
			Message:    "full copyright scan disagrees with documentation files, audit manually",
		}
	case len(res.Simple) == 0 && len(res.Full) > 0:
		return Reconciled{
			Copyrights: res.Full,
			Severity:   model.SeverityLow,
			Message:    "only non-documentation files contained copyright statements",
		}
	case len(res.Simple) == 0 && len(res.Full) == 0:
		return Reconciled{
			Copyrights: nil,
			Severity:   model.SeverityHigh,
			Message:    "no copyright statement found in the source archive",
		}
	default:
		return Reconciled{Copyrights: res.Simple}
	}
}

// FromLicenseText is the fallback when no archive is resolvable at all: the
// library's already-downloaded license text is scanned on its own. Success is
// low-confidence (the text rarely carries every holder); an empty result
// degrades to the sentinel with a loud entry.
func FromLicenseText(text string) Reconciled {
	statements := ExtractFromText(text)
	if len(statements) > 0 {
		return Reconciled{
			Copyrights: statements,
			Severity:   model.SeverityLow,
			Message:    "copyright extracted from license text only, source archive unavailable",
		}
	}
	return Reconciled{
		Copyrights: nil,
		Severity:   model.SeverityHigh,
		Message:    "no copyright statement found, source archive unavailable",
	}
}

// Apply stores a reconciliation outcome on the library: the joined statement
// list (or the sentinel) plus the log entry when one is called for.
func Apply(lib *model.Library, rec Reconciled) {
	if len(rec.Copyrights) == 0 {
		lib.Copyright = model.NoCopyrightFound
	} else {
		lib.Copyright = joinStatements(rec.Copyrights)
	}
	if rec.Message != "" {
		lib.LogProblem(model.IssueCopyright, rec.Message, rec.Severity)
	}
}

func joinStatements(statements []string) string {
	out := ""
	for i, s := range statements {
		if i > 0 {
			out += "\n"
		}
		out += s
	}
	return out
}
