package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for low-severity diagnostics.
	SevInfo Severity = iota
	// SevWarning is for normal diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Level maps the severity onto the 0 (low) / 5 (normal) / 10 (critical) scale.
func (s Severity) Level() int {
	switch s {
	case SevWarning:
		return 5
	case SevError:
		return 10
	default:
		return 0
	}
}
