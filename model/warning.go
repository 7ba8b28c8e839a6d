package model

import "fmt"

// Severity indicates how serious a warning is.
// SeverityError marks a recoverable problem - it never aborts a conversion.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityError
)

func MapSeverity(s string) Severity {
	switch s {
	case "INFO":
		return SeverityInfo
	case "WARNING":
		return SeverityWarning
	case "ERROR":
		return SeverityError
	default:
		return 0
	}
}

func (v Severity) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v Severity) String() string {
	switch v {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return ""
	}
}

func (v *Severity) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapSeverity(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid severity data %s", s)
	}
	return nil
}

// WarningType describes the different problems that are recorded during a conversion.
type WarningType int

const (
	WarningInvalidTimer WarningType = iota + 1
	WarningLayoutDegraded
	WarningMissingCondition
	WarningOrphanElement
	WarningRoutingFallback
	WarningUnresolvedReference
	WarningUnsupportedElement
)

func MapWarningType(s string) WarningType {
	switch s {
	case "INVALID_TIMER":
		return WarningInvalidTimer
	case "LAYOUT_DEGRADED":
		return WarningLayoutDegraded
	case "MISSING_CONDITION":
		return WarningMissingCondition
	case "ORPHAN_ELEMENT":
		return WarningOrphanElement
	case "ROUTING_FALLBACK":
		return WarningRoutingFallback
	case "UNRESOLVED_REFERENCE":
		return WarningUnresolvedReference
	case "UNSUPPORTED_ELEMENT":
		return WarningUnsupportedElement
	default:
		return 0
	}
}

func (v WarningType) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v WarningType) String() string {
	switch v {
	case WarningInvalidTimer:
		return "INVALID_TIMER"
	case WarningLayoutDegraded:
		return "LAYOUT_DEGRADED"
	case WarningMissingCondition:
		return "MISSING_CONDITION"
	case WarningOrphanElement:
		return "ORPHAN_ELEMENT"
	case WarningRoutingFallback:
		return "ROUTING_FALLBACK"
	case WarningUnresolvedReference:
		return "UNRESOLVED_REFERENCE"
	case WarningUnsupportedElement:
		return "UNSUPPORTED_ELEMENT"
	default:
		return ""
	}
}

func (v *WarningType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapWarningType(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid warning type data %s", s)
	}
	return nil
}

// Warning is a non-fatal problem, found while parsing, validating or converting a process document.
type Warning struct {
	Type      WarningType `json:"type"`                // Problem classification.
	Severity  Severity    `json:"severity"`            // How serious the problem is.
	ElementId string      `json:"elementId,omitempty"` // ID of the offending element, flow or container.
	Message   string      `json:"message"`             // Human readable description.
}

func (w Warning) String() string {
	if w.ElementId == "" {
		return fmt.Sprintf("%s: %s", w.Severity, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Severity, w.ElementId, w.Message)
}
