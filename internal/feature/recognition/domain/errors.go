// Package domain defines domain-level errors for the recognition feature.
package domain

import (
	"errors"
	"fmt"

	"fingerprint_access/internal/feature/recognition/domain/entity"
)

// Pipeline errors. Upper layers classify them with errors.Is.
var (
	// ErrInvalidRequest is returned when a recognition request fails validation.
	ErrInvalidRequest = errors.New("invalid recognition request")

	// ErrModelNotFound is permanent: the model id does not resolve.
	ErrModelNotFound = errors.New("model not found")

	// ErrModelRegistryUnavailable is transient: the registry could not be reached.
	ErrModelRegistryUnavailable = errors.New("model registry unavailable")

	ErrMatcherTimeout         = errors.New("matcher timed out")
	ErrMatcherExecutionFailed = errors.New("matcher execution failed")
	ErrMatcherReportedError   = errors.New("matcher reported an error")
	ErrMatcherMalformedReport = errors.New("matcher report is malformed")

	// ErrAreaNotFound is returned by area stores; the orchestrator decides whether it is fatal.
	ErrAreaNotFound = errors.New("area not found")

	// ErrAccessControlUnavailable is transient: area or grant data could not be read.
	ErrAccessControlUnavailable = errors.New("access control unavailable")

	// ErrAccessLogWriteFailed is fatal for the request.
	ErrAccessLogWriteFailed = errors.New("access log write failed")

	// ErrRecognitionEventWriteFailed and ErrLinkBackFailed downgrade the response to a partial success.
	ErrRecognitionEventWriteFailed = errors.New("recognition event write failed")
	ErrLinkBackFailed              = errors.New("access log link-back failed")

	// ErrSubjectNotFound annotates a match whose subject is unknown. It never fails a request.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrSampleNotFound annotates a match whose reported sample is not enrolled. It never fails a request.
	ErrSampleNotFound = errors.New("fingerprint sample not found")

	// ErrDuplicateScan is returned when an access log with the same scan key already exists.
	ErrDuplicateScan = errors.New("duplicate scan")

	// ErrScanInFlight is returned while a request with the same scan key is still being processed.
	ErrScanInFlight = errors.New("scan already in flight")
)

// ModelNotFoundError identifies which model failed to resolve.
type ModelNotFoundError struct {
	ID   string
	Kind entity.ModelKind
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("%s model not found: %s", e.Kind, e.ID)
}

func (e *ModelNotFoundError) Is(target error) bool { return target == ErrModelNotFound }

// MatcherExecutionError carries the exit status and standard error of a failed matcher run.
type MatcherExecutionError struct {
	ExitCode int
	Stderr   string
}

func (e *MatcherExecutionError) Error() string {
	return fmt.Sprintf("matcher exited with code %d: %s", e.ExitCode, e.Stderr)
}

func (e *MatcherExecutionError) Is(target error) bool { return target == ErrMatcherExecutionFailed }

// MatcherReportedError carries the message the matcher wrote into its report.
type MatcherReportedError struct {
	Message string
}

func (e *MatcherReportedError) Error() string {
	return "matcher reported error: " + e.Message
}

func (e *MatcherReportedError) Is(target error) bool { return target == ErrMatcherReportedError }

// IsTransient reports whether the caller may retry the whole request.
func IsTransient(err error) bool {
	return errors.Is(err, ErrModelRegistryUnavailable) ||
		errors.Is(err, ErrAccessControlUnavailable) ||
		errors.Is(err, ErrMatcherTimeout) ||
		errors.Is(err, ErrScanInFlight)
}
