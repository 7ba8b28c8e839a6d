package model

import "fmt"

// ElementKind describes the different BPMN flow node kinds - tasks, gateways and events.
// Recognized but unsupported tags are mapped to ElementUnsupported instead of being rejected.
type ElementKind int

const (
	ElementBusinessRuleTask ElementKind = iota + 1
	ElementCallActivity
	ElementComplexGateway
	ElementErrorBoundaryEvent
	ElementErrorEndEvent
	ElementEscalationBoundaryEvent
	ElementEventBasedGateway
	ElementExclusiveGateway
	ElementInclusiveGateway
	ElementManualTask
	ElementMessageBoundaryEvent
	ElementMessageCatchEvent
	ElementMessageEndEvent
	ElementMessageStartEvent
	ElementMessageThrowEvent
	ElementNoneEndEvent
	ElementNoneStartEvent
	ElementNoneThrowEvent
	ElementParallelGateway
	ElementReceiveTask
	ElementScriptTask
	ElementSendTask
	ElementServiceTask
	ElementSignalBoundaryEvent
	ElementSignalCatchEvent
	ElementSignalStartEvent
	ElementSignalThrowEvent
	ElementTask
	ElementTerminateEndEvent
	ElementTextAnnotation
	ElementTimerBoundaryEvent
	ElementTimerCatchEvent
	ElementTimerStartEvent
	ElementUnsupported
	ElementUserTask
)

func MapElementKind(s string) ElementKind {
	switch s {
	case "BUSINESS_RULE_TASK":
		return ElementBusinessRuleTask
	case "CALL_ACTIVITY":
		return ElementCallActivity
	case "COMPLEX_GATEWAY":
		return ElementComplexGateway
	case "ERROR_BOUNDARY_EVENT":
		return ElementErrorBoundaryEvent
	case "ERROR_END_EVENT":
		return ElementErrorEndEvent
	case "ESCALATION_BOUNDARY_EVENT":
		return ElementEscalationBoundaryEvent
	case "EVENT_BASED_GATEWAY":
		return ElementEventBasedGateway
	case "EXCLUSIVE_GATEWAY":
		return ElementExclusiveGateway
	case "INCLUSIVE_GATEWAY":
		return ElementInclusiveGateway
	case "MANUAL_TASK":
		return ElementManualTask
	case "MESSAGE_BOUNDARY_EVENT":
		return ElementMessageBoundaryEvent
	case "MESSAGE_CATCH_EVENT":
		return ElementMessageCatchEvent
	case "MESSAGE_END_EVENT":
		return ElementMessageEndEvent
	case "MESSAGE_START_EVENT":
		return ElementMessageStartEvent
	case "MESSAGE_THROW_EVENT":
		return ElementMessageThrowEvent
	case "NONE_END_EVENT":
		return ElementNoneEndEvent
	case "NONE_START_EVENT":
		return ElementNoneStartEvent
	case "NONE_THROW_EVENT":
		return ElementNoneThrowEvent
	case "PARALLEL_GATEWAY":
		return ElementParallelGateway
	case "RECEIVE_TASK":
		return ElementReceiveTask
	case "SCRIPT_TASK":
		return ElementScriptTask
	case "SEND_TASK":
		return ElementSendTask
	case "SERVICE_TASK":
		return ElementServiceTask
	case "SIGNAL_BOUNDARY_EVENT":
		return ElementSignalBoundaryEvent
	case "SIGNAL_CATCH_EVENT":
		return ElementSignalCatchEvent
	case "SIGNAL_START_EVENT":
		return ElementSignalStartEvent
	case "SIGNAL_THROW_EVENT":
		return ElementSignalThrowEvent
	case "TASK":
		return ElementTask
	case "TERMINATE_END_EVENT":
		return ElementTerminateEndEvent
	case "TEXT_ANNOTATION":
		return ElementTextAnnotation
	case "TIMER_BOUNDARY_EVENT":
		return ElementTimerBoundaryEvent
	case "TIMER_CATCH_EVENT":
		return ElementTimerCatchEvent
	case "TIMER_START_EVENT":
		return ElementTimerStartEvent
	case "UNSUPPORTED":
		return ElementUnsupported
	case "USER_TASK":
		return ElementUserTask
	default:
		return 0
	}
}

// IsBoundaryEvent determines if the kind is an event that is attached to an activity.
func (v ElementKind) IsBoundaryEvent() bool {
	switch v {
	case
		ElementErrorBoundaryEvent,
		ElementEscalationBoundaryEvent,
		ElementMessageBoundaryEvent,
		ElementSignalBoundaryEvent,
		ElementTimerBoundaryEvent:
		return true
	default:
		return false
	}
}

// IsEndEvent determines if the kind is an end event.
func (v ElementKind) IsEndEvent() bool {
	switch v {
	case
		ElementErrorEndEvent,
		ElementMessageEndEvent,
		ElementNoneEndEvent,
		ElementTerminateEndEvent:
		return true
	default:
		return false
	}
}

// IsEvent determines if the kind is an event of any sort.
func (v ElementKind) IsEvent() bool {
	switch v {
	case
		ElementMessageCatchEvent,
		ElementMessageThrowEvent,
		ElementNoneThrowEvent,
		ElementSignalCatchEvent,
		ElementSignalThrowEvent,
		ElementTimerCatchEvent:
		return true
	default:
		return v.IsBoundaryEvent() || v.IsEndEvent() || v.IsStartEvent()
	}
}

// IsGateway determines if the kind is a gateway.
func (v ElementKind) IsGateway() bool {
	switch v {
	case
		ElementComplexGateway,
		ElementEventBasedGateway,
		ElementExclusiveGateway,
		ElementInclusiveGateway,
		ElementParallelGateway:
		return true
	default:
		return false
	}
}

// IsStartEvent determines if the kind is a start event.
func (v ElementKind) IsStartEvent() bool {
	switch v {
	case
		ElementMessageStartEvent,
		ElementNoneStartEvent,
		ElementSignalStartEvent,
		ElementTimerStartEvent:
		return true
	default:
		return false
	}
}

// IsTask determines if the kind is a task or an activity that behaves like one.
func (v ElementKind) IsTask() bool {
	switch v {
	case
		ElementBusinessRuleTask,
		ElementCallActivity,
		ElementManualTask,
		ElementReceiveTask,
		ElementScriptTask,
		ElementSendTask,
		ElementServiceTask,
		ElementTask,
		ElementUserTask:
		return true
	default:
		return false
	}
}

// IsTimerEvent determines if the kind is an event with a timer definition.
func (v ElementKind) IsTimerEvent() bool {
	switch v {
	case
		ElementTimerBoundaryEvent,
		ElementTimerCatchEvent,
		ElementTimerStartEvent:
		return true
	default:
		return false
	}
}

func (v ElementKind) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ElementKind) String() string {
	switch v {
	case ElementBusinessRuleTask:
		return "BUSINESS_RULE_TASK"
	case ElementCallActivity:
		return "CALL_ACTIVITY"
	case ElementComplexGateway:
		return "COMPLEX_GATEWAY"
	case ElementErrorBoundaryEvent:
		return "ERROR_BOUNDARY_EVENT"
	case ElementErrorEndEvent:
		return "ERROR_END_EVENT"
	case ElementEscalationBoundaryEvent:
		return "ESCALATION_BOUNDARY_EVENT"
	case ElementEventBasedGateway:
		return "EVENT_BASED_GATEWAY"
	case ElementExclusiveGateway:
		return "EXCLUSIVE_GATEWAY"
	case ElementInclusiveGateway:
		return "INCLUSIVE_GATEWAY"
	case ElementManualTask:
		return "MANUAL_TASK"
	case ElementMessageBoundaryEvent:
		return "MESSAGE_BOUNDARY_EVENT"
	case ElementMessageCatchEvent:
		return "MESSAGE_CATCH_EVENT"
	case ElementMessageEndEvent:
		return "MESSAGE_END_EVENT"
	case ElementMessageStartEvent:
		return "MESSAGE_START_EVENT"
	case ElementMessageThrowEvent:
		return "MESSAGE_THROW_EVENT"
	case ElementNoneEndEvent:
		return "NONE_END_EVENT"
	case ElementNoneStartEvent:
		return "NONE_START_EVENT"
	case ElementNoneThrowEvent:
		return "NONE_THROW_EVENT"
	case ElementParallelGateway:
		return "PARALLEL_GATEWAY"
	case ElementReceiveTask:
		return "RECEIVE_TASK"
	case ElementScriptTask:
		return "SCRIPT_TASK"
	case ElementSendTask:
		return "SEND_TASK"
	case ElementServiceTask:
		return "SERVICE_TASK"
	case ElementSignalBoundaryEvent:
		return "SIGNAL_BOUNDARY_EVENT"
	case ElementSignalCatchEvent:
		return "SIGNAL_CATCH_EVENT"
	case ElementSignalStartEvent:
		return "SIGNAL_START_EVENT"
	case ElementSignalThrowEvent:
		return "SIGNAL_THROW_EVENT"
	case ElementTask:
		return "TASK"
	case ElementTerminateEndEvent:
		return "TERMINATE_END_EVENT"
	case ElementTextAnnotation:
		return "TEXT_ANNOTATION"
	case ElementTimerBoundaryEvent:
		return "TIMER_BOUNDARY_EVENT"
	case ElementTimerCatchEvent:
		return "TIMER_CATCH_EVENT"
	case ElementTimerStartEvent:
		return "TIMER_START_EVENT"
	case ElementUnsupported:
		return "UNSUPPORTED"
	case ElementUserTask:
		return "USER_TASK"
	default:
		return ""
	}
}

func (v *ElementKind) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapElementKind(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid element kind data %s", s)
	}
	return nil
}
