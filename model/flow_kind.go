package model

import "fmt"

// FlowKind describes the different edge kinds of a process graph.
//
// Conditional and default flows are sequence flows with a distinct visual
// treatment - they behave like sequence flows everywhere else.
type FlowKind int

const (
	FlowAssociation FlowKind = iota + 1
	FlowConditional
	FlowDefault
	FlowMessage
	FlowSequence
)

func MapFlowKind(s string) FlowKind {
	switch s {
	case "ASSOCIATION":
		return FlowAssociation
	case "CONDITIONAL":
		return FlowConditional
	case "DEFAULT":
		return FlowDefault
	case "MESSAGE":
		return FlowMessage
	case "SEQUENCE":
		return FlowSequence
	default:
		return 0
	}
}

// IsSequence determines if the kind orders elements within a container.
func (v FlowKind) IsSequence() bool {
	switch v {
	case FlowConditional, FlowDefault, FlowSequence:
		return true
	default:
		return false
	}
}

func (v FlowKind) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v FlowKind) String() string {
	switch v {
	case FlowAssociation:
		return "ASSOCIATION"
	case FlowConditional:
		return "CONDITIONAL"
	case FlowDefault:
		return "DEFAULT"
	case FlowMessage:
		return "MESSAGE"
	case FlowSequence:
		return "SEQUENCE"
	default:
		return ""
	}
}

func (v *FlowKind) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapFlowKind(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid flow kind data %s", s)
	}
	return nil
}
