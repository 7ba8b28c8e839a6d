package diagram

import (
	"fmt"

	"github.com/adhocore/gronx"
	"github.com/gclaussn/go-bpmn-diagram/model"
)

// validateDocument checks a parsed document for modeling problems that do not prevent a conversion.
// Warnings are produced in document order, so repeated conversions yield the same list.
func validateDocument(doc *model.ProcessDocument) []model.Warning {
	var warnings []model.Warning

	for _, elementId := range doc.ElementIds {
		element := doc.Elements[elementId]

		if isOrphan(element) {
			warnings = append(warnings, model.Warning{
				Type:      model.WarningOrphanElement,
				Severity:  model.SeverityWarning,
				ElementId: element.Id,
				Message:   fmt.Sprintf("element %s has no incoming and no outgoing flows", element.Id),
			})
		}

		if element.Kind.IsTimerEvent() && element.TimerDefinition != "" && !isValidTimerDefinition(element.TimerDefinition) {
			warnings = append(warnings, model.Warning{
				Type:      model.WarningInvalidTimer,
				Severity:  model.SeverityWarning,
				ElementId: element.Id,
				Message:   fmt.Sprintf("timer definition %s is neither an ISO 8601 duration nor a cron expression", element.TimerDefinition),
			})
		}

		if isConditionalFork(element.Kind) && len(element.Outgoing) > 1 {
			warnings = append(warnings, validateFork(doc, element)...)
		}
	}

	// the parser drops flows with unresolved endpoints, but a document is not
	// necessarily built by the parser
	for _, flowId := range doc.FlowIds {
		flow := doc.Flows[flowId]
		for _, endpointId := range []string{flow.SourceId, flow.TargetId} {
			if doc.Elements[endpointId] == nil && doc.Containers[endpointId] == nil {
				warnings = append(warnings, model.Warning{
					Type:      model.WarningUnresolvedReference,
					Severity:  model.SeverityWarning,
					ElementId: flow.Id,
					Message:   fmt.Sprintf("flow references unknown endpoint %s", endpointId),
				})
			}
		}
	}

	return warnings
}

// isConditionalFork determines if outgoing sequence flows of the kind must be distinguishable by name or condition.
// Parallel gateways fork unconditionally and event based gateways fork on event occurrence.
func isConditionalFork(kind model.ElementKind) bool {
	switch kind {
	case model.ElementComplexGateway, model.ElementExclusiveGateway, model.ElementInclusiveGateway:
		return true
	default:
		return false
	}
}

func isOrphan(element *model.Element) bool {
	if len(element.Incoming) != 0 || len(element.Outgoing) != 0 {
		return false
	}

	switch {
	case element.Kind.IsStartEvent() || element.Kind.IsEndEvent():
		return false // a standalone start or end event is not an error
	case element.Kind.IsBoundaryEvent() && element.AttachedToId != "":
		return false
	case element.Kind == model.ElementTextAnnotation || element.Kind == model.ElementUnsupported:
		return false
	default:
		return true
	}
}

func isValidTimerDefinition(v string) bool {
	if _, err := model.NewISO8601Duration(v); err == nil {
		return true
	}
	return gronx.IsValid(v)
}

func validateFork(doc *model.ProcessDocument, element *model.Element) []model.Warning {
	var warnings []model.Warning

	var defaultCount int
	for _, flowId := range element.Outgoing {
		flow := doc.Flows[flowId]
		if flow == nil || !flow.Kind.IsSequence() {
			continue
		}

		if flow.Kind == model.FlowDefault {
			defaultCount++
			continue
		}

		if flow.Name == "" && flow.Condition == "" {
			warnings = append(warnings, model.Warning{
				Type:      model.WarningMissingCondition,
				Severity:  model.SeverityWarning,
				ElementId: flow.Id,
				Message:   fmt.Sprintf("sequence flow of forking gateway %s has neither a name nor a condition", element.Id),
			})
		}
	}

	if defaultCount > 1 {
		warnings = append(warnings, model.Warning{
			Type:      model.WarningMissingCondition,
			Severity:  model.SeverityWarning,
			ElementId: element.Id,
			Message:   fmt.Sprintf("gateway %s has %d default flows", element.Id, defaultCount),
		})
	}

	return warnings
}
