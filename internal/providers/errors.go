package providers

import "strings"

type ErrorType string

const (
	ErrorQuota       ErrorType = "quota"
	ErrorRate        ErrorType = "rate"
	ErrorUnavailable ErrorType = "unavailable"
	ErrorContext     ErrorType = "context"
	ErrorPermanent   ErrorType = "permanent"
)

// ClassifyError maps a raw provider error onto a coarse category used for
// audit records and operator-facing messages. Providers return plain errors;
// wire- and quota-level failures all look different per vendor, so this is
// substring matching on purpose.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "connection refused"), strings.Contains(e, "no such host"),
		strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"),
		strings.Contains(e, "unavailable"), strings.Contains(e, "503"):
		return ErrorUnavailable
	default:
		return ErrorPermanent
	}
}
