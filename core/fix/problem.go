// Package fix detects and repairs known sensor firmware problems.
//
// Every problem has a read-only check and a fix. Checks may be run any
// number of times. Fixes only ever rewrite bytes in place; a repair that
// would change the length of the file is refused.
package fix

import (
	"fmt"

	"github.com/ecoacoustics/emu/core"
)

// CheckStatus is the state of one file with respect to one problem.
type CheckStatus int

const (
	Unaffected CheckStatus = iota
	Affected
	NotApplicable
	Repaired
	Error
)

func (s CheckStatus) String() string {
	switch s {
	case Unaffected:
		return "Unaffected"
	case Affected:
		return "Affected"
	case NotApplicable:
		return "NotApplicable"
	case Repaired:
		return "Repaired"
	case Error:
		return "Error"
	}
	return fmt.Sprintf("CheckStatus(%d)", int(s))
}

// Severity grades an affected file.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "None"
	case SeverityMild:
		return "Mild"
	case SeverityModerate:
		return "Moderate"
	case SeveritySevere:
		return "Severe"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// FixStatus is the outcome of a fix attempt.
type FixStatus int

const (
	NoOperation FixStatus = iota
	Fixed
	NotFixed
	Renamed
)

func (s FixStatus) String() string {
	switch s {
	case NoOperation:
		return "NoOperation"
	case Fixed:
		return "Fixed"
	case NotFixed:
		return "NotFixed"
	case Renamed:
		return "Renamed"
	}
	return fmt.Sprintf("FixStatus(%d)", int(s))
}

// WellKnownProblem describes a problem users may look up by id.
type WellKnownProblem struct {
	Title   string
	Message string
	Code    int
	Group   string
	URL     string
}

// ID is the group and zero-padded code, e.g. "FL010".
func (p WellKnownProblem) ID() string {
	return fmt.Sprintf("%s%03d", p.Group, p.Code)
}

// CheckResult is the outcome of a check. Data carries problem-specific
// details for the matching fix.
type CheckResult struct {
	Status   CheckStatus
	Severity Severity
	Message  string
	Data     any
	Err      error
}

func checkError(err error) CheckResult {
	return CheckResult{Status: Error, Message: err.Error(), Err: err}
}

// Report renders r for output.
func (r CheckResult) Report(path string, p WellKnownProblem) core.Report {
	rep := core.Report{
		Path:    path,
		Problem: p.ID(),
		Status:  r.Status.String(),
		Message: r.Message,
	}
	if r.Status == Affected {
		rep.Severity = r.Severity.String()
	}
	return rep
}

// FixResult is the outcome of a fix.
type FixResult struct {
	Status      FixStatus
	CheckResult CheckResult
	Message     string
	NewPath     string
	Actions     []string
}

// Report renders r for output.
func (r FixResult) Report(path string, p WellKnownProblem) core.Report {
	msg := r.Message
	if msg == "" {
		msg = r.CheckResult.Message
	}
	return core.Report{
		Path:     path,
		Problem:  p.ID(),
		Status:   r.Status.String(),
		Severity: r.CheckResult.Report(path, p).Severity,
		Message:  msg,
		NewPath:  r.NewPath,
		Actions:  r.Actions,
	}
}

// skipFix is the result of a fix whose check did not find the file
// affected. A check that failed leaves the file unrepaired.
func skipFix(check CheckResult) FixResult {
	if check.Status == Error {
		return notFixed(check, "check failed: %s", check.Message)
	}
	return FixResult{Status: NoOperation, CheckResult: check}
}

func notFixed(check CheckResult, format string, args ...any) FixResult {
	return FixResult{Status: NotFixed, CheckResult: check, Message: fmt.Sprintf(format, args...)}
}
