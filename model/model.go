package model

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// New parses a BPMN XML document into a ProcessDocument.
//
// The parser is tolerant: unknown tags are skipped, recognized but
// unsupported flow nodes are mapped to ElementUnsupported and flows with
// unresolvable endpoints are dropped. Each such decision is recorded as a
// warning. An error is returned only when the root structure cannot be
// recognized or when a sequence flow connects elements of different pools.
//
// Diagram interchange geometry is applied only when it is complete - when
// every element and every non synthesized container has a shape. Otherwise
// the geometry is discarded and HasGeometry is left false.
func New(bpmnXmlReader io.Reader) (*ProcessDocument, []Warning, error) {
	var (
		doc      = newProcessDocument()
		warnings []Warning

		definitionsParsed bool

		element *Element   // current flow node, nil outside of one
		flow    *Flow      // current sequence flow
		lane    *Container // current lane

		containerStack []*Container // enclosing sub processes, nil entries mark skipped ones

		currentProcessId string
		processIds       []string
		processNames     = map[string]string{}
		processChildren  = map[string][]string{}
		processLanes     = map[string][]*Container{}
		laneMembers      = map[string][]string{}

		participants []participant

		isIncoming       bool
		isOutgoing       bool
		isCondition      bool
		isFlowNodeRef    bool
		isTimerValue     bool
		isAnnotationText bool
		isLabel          bool

		charData string

		shapeBounds = map[string]*Geometry{}
		edgePoints  = map[string][]Point{}
		diShape     string
		diEdge      string
	)

	addWarning := func(warningType WarningType, severity Severity, elementId string, message string) {
		warnings = append(warnings, Warning{Type: warningType, Severity: severity, ElementId: elementId, Message: message})
	}

	topContainer := func() *Container {
		for i := len(containerStack) - 1; i >= 0; i-- {
			if containerStack[i] != nil {
				return containerStack[i]
			}
		}
		return nil
	}

	addElement := func() {
		if element.Id == "" || doc.Elements[element.Id] != nil {
			addWarning(WarningUnresolvedReference, SeverityWarning, element.Id, "element has an empty or duplicate id")
			element = nil
			return
		}

		if parent := topContainer(); parent != nil {
			element.ContainerId = parent.Id
			parent.ChildIds = append(parent.ChildIds, element.Id)
		} else {
			processChildren[currentProcessId] = append(processChildren[currentProcessId], element.Id)
		}

		doc.addElement(element)
	}

	addNewElement := func(kind ElementKind, attributes []xml.Attr) {
		element = newElement(kind, attributes)
		addElement()
	}

	addNewContainer := func(kind ContainerKind, attributes []xml.Attr) *Container {
		container := &Container{
			Id:   getAttrValue(attributes, "id"),
			Kind: kind,
			Name: getAttrValue(attributes, "name"),
		}

		if container.Id == "" || doc.Containers[container.Id] != nil {
			addWarning(WarningUnresolvedReference, SeverityWarning, container.Id, "container has an empty or duplicate id")
			return nil
		}

		doc.addContainer(container)
		return container
	}

	flowById := func(id string) *Flow {
		if f := doc.Flows[id]; f != nil {
			return f
		}

		f := &Flow{Id: id, Kind: FlowSequence}
		doc.addFlow(f)
		return f
	}

	decoder := xml.NewDecoder(bpmnXmlReader)

	count := 0
	for {
		token, err := decoder.Token()
		if token == nil || err == io.EOF {
			if count == 0 {
				return nil, nil, errors.New("XML is empty")
			}
			break
		} else if err != nil {
			return nil, nil, fmt.Errorf("failed to decode XML: %v", err)
		}

		count++

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "BPMNEdge":
				diEdge = getAttrValue(t.Attr, "bpmnElement")
			case "BPMNLabel":
				isLabel = true
			case "BPMNShape":
				diShape = getAttrValue(t.Attr, "bpmnElement")
			case "Bounds":
				if diShape != "" && !isLabel {
					shapeBounds[diShape] = &Geometry{
						X:      getAttrFloat(t.Attr, "x"),
						Y:      getAttrFloat(t.Attr, "y"),
						Width:  getAttrFloat(t.Attr, "width"),
						Height: getAttrFloat(t.Attr, "height"),
					}
				}
			case "adHocSubProcess", "subProcess", "transaction":
				container := addNewContainer(ContainerSubProcess, t.Attr)
				if container != nil {
					if parent := topContainer(); parent != nil {
						container.ParentId = parent.Id
						parent.ChildIds = append(parent.ChildIds, container.Id)
					} else {
						processChildren[currentProcessId] = append(processChildren[currentProcessId], container.Id)
					}
				}
				containerStack = append(containerStack, container)
				element = nil
			case "association":
				if id := getAttrValue(t.Attr, "id"); id != "" && doc.Flows[id] == nil {
					doc.addFlow(&Flow{
						Id:       id,
						Kind:     FlowAssociation,
						SourceId: getAttrValue(t.Attr, "sourceRef"),
						TargetId: getAttrValue(t.Attr, "targetRef"),
					})
				}
			case "boundaryEvent":
				element = newElement(0, t.Attr) // kind depends on the event definition
				element.AttachedToId = getAttrValue(t.Attr, "attachedToRef")
				addElement()
			case "businessRuleTask":
				addNewElement(ElementBusinessRuleTask, t.Attr)
			case "callActivity":
				addNewElement(ElementCallActivity, t.Attr)
			case "collaboration", "laneSet", "childLaneSet", "extensionElements", "documentation":
				// structural tags that must not reset the current element
			case "complexGateway":
				addNewElement(ElementComplexGateway, t.Attr)
			case "conditionExpression":
				isCondition = true
			case "callChoreography", "choreographyTask", "dataObjectReference", "dataStoreReference", "group", "subChoreography":
				addNewElement(ElementUnsupported, t.Attr)
				if element != nil {
					addWarning(WarningUnsupportedElement, SeverityInfo, element.Id, fmt.Sprintf("unsupported element %s", t.Name.Local))
				}
			case "definitions":
				doc.Id = getAttrValue(t.Attr, "id")
				definitionsParsed = true
			case "endEvent":
				addNewElement(ElementNoneEndEvent, t.Attr)
			case "errorEventDefinition":
				if element != nil {
					switch {
					case element.AttachedToId != "":
						element.Kind = ElementErrorBoundaryEvent
					case element.Kind == ElementNoneEndEvent:
						element.Kind = ElementErrorEndEvent
					}
				}
			case "escalationEventDefinition":
				if element != nil && element.AttachedToId != "" {
					element.Kind = ElementEscalationBoundaryEvent
				}
			case "eventBasedGateway":
				addNewElement(ElementEventBasedGateway, t.Attr)
			case "exclusiveGateway":
				addNewElement(ElementExclusiveGateway, t.Attr)
			case "flowNodeRef":
				isFlowNodeRef = true
			case "inclusiveGateway":
				addNewElement(ElementInclusiveGateway, t.Attr)
			case "incoming":
				isIncoming = true
			case "intermediateCatchEvent":
				element = newElement(0, t.Attr) // kind depends on the event definition
				addElement()
			case "intermediateThrowEvent":
				addNewElement(ElementNoneThrowEvent, t.Attr)
			case "lane":
				lane = addNewContainer(ContainerLane, t.Attr)
				if lane != nil {
					processLanes[currentProcessId] = append(processLanes[currentProcessId], lane)
				}
			case "manualTask":
				addNewElement(ElementManualTask, t.Attr)
			case "messageEventDefinition":
				if element != nil {
					switch {
					case element.AttachedToId != "":
						element.Kind = ElementMessageBoundaryEvent
					case element.Kind == ElementNoneStartEvent:
						element.Kind = ElementMessageStartEvent
					case element.Kind == ElementNoneEndEvent:
						element.Kind = ElementMessageEndEvent
					case element.Kind == ElementNoneThrowEvent:
						element.Kind = ElementMessageThrowEvent
					default:
						element.Kind = ElementMessageCatchEvent
					}
				}
			case "messageFlow":
				if id := getAttrValue(t.Attr, "id"); id != "" && doc.Flows[id] == nil {
					doc.addFlow(&Flow{
						Id:       id,
						Kind:     FlowMessage,
						Name:     getAttrValue(t.Attr, "name"),
						SourceId: getAttrValue(t.Attr, "sourceRef"),
						TargetId: getAttrValue(t.Attr, "targetRef"),
					})
				}
			case "outgoing":
				isOutgoing = true
			case "parallelGateway":
				addNewElement(ElementParallelGateway, t.Attr)
			case "participant":
				participants = append(participants, participant{
					id:         getAttrValue(t.Attr, "id"),
					name:       getAttrValue(t.Attr, "name"),
					processRef: getAttrValue(t.Attr, "processRef"),
				})
			case "process":
				currentProcessId = getAttrValue(t.Attr, "id")
				processIds = append(processIds, currentProcessId)
				processNames[currentProcessId] = getAttrValue(t.Attr, "name")
				element = nil
			case "receiveTask":
				addNewElement(ElementReceiveTask, t.Attr)
			case "scriptTask":
				addNewElement(ElementScriptTask, t.Attr)
			case "sendTask":
				addNewElement(ElementSendTask, t.Attr)
			case "sequenceFlow":
				id := getAttrValue(t.Attr, "id")
				if id == "" {
					flow = nil
					break
				}

				flow = flowById(id)
				flow.Name = getAttrValue(t.Attr, "name")
				if v := getAttrValue(t.Attr, "sourceRef"); v != "" {
					flow.SourceId = v
				}
				if v := getAttrValue(t.Attr, "targetRef"); v != "" {
					flow.TargetId = v
				}
			case "serviceTask":
				addNewElement(ElementServiceTask, t.Attr)
			case "signalEventDefinition":
				if element != nil {
					switch {
					case element.AttachedToId != "":
						element.Kind = ElementSignalBoundaryEvent
					case element.Kind == ElementNoneStartEvent:
						element.Kind = ElementSignalStartEvent
					case element.Kind == ElementNoneThrowEvent:
						element.Kind = ElementSignalThrowEvent
					default:
						element.Kind = ElementSignalCatchEvent
					}
				}
			case "startEvent":
				addNewElement(ElementNoneStartEvent, t.Attr)
			case "task":
				addNewElement(ElementTask, t.Attr)
			case "terminateEventDefinition":
				if element != nil && element.Kind == ElementNoneEndEvent {
					element.Kind = ElementTerminateEndEvent
				}
			case "text":
				isAnnotationText = element != nil && element.Kind == ElementTextAnnotation
			case "textAnnotation":
				addNewElement(ElementTextAnnotation, t.Attr)
			case "timeCycle", "timeDate", "timeDuration":
				isTimerValue = t.Name.Local != "timeDate"
			case "timerEventDefinition":
				if element != nil {
					switch {
					case element.AttachedToId != "":
						element.Kind = ElementTimerBoundaryEvent
					case element.Kind == ElementNoneStartEvent:
						element.Kind = ElementTimerStartEvent
					default:
						element.Kind = ElementTimerCatchEvent
					}
				}
			case "userTask":
				addNewElement(ElementUserTask, t.Attr)
			case "waypoint":
				if diEdge != "" {
					edgePoints[diEdge] = append(edgePoints[diEdge], Point{
						X: getAttrFloat(t.Attr, "x"),
						Y: getAttrFloat(t.Attr, "y"),
					})
				}
			default:
				element = nil
			}
		case xml.CharData:
			if isIncoming || isOutgoing || isCondition || isFlowNodeRef || isTimerValue || isAnnotationText {
				charData += string(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "BPMNEdge":
				diEdge = ""
			case "BPMNLabel":
				isLabel = false
			case "BPMNShape":
				diShape = ""
			case "adHocSubProcess", "subProcess", "transaction":
				if len(containerStack) > 0 {
					containerStack = containerStack[:len(containerStack)-1]
				}
			case "boundaryEvent", "intermediateCatchEvent":
				if element != nil && element.Kind == 0 {
					element.Kind = ElementUnsupported
					addWarning(WarningUnsupportedElement, SeverityInfo, element.Id, fmt.Sprintf("unsupported event definition of %s", t.Name.Local))
				}
			case "conditionExpression":
				isCondition = false
				if flow != nil {
					flow.Condition = strings.TrimSpace(charData)
				}
				charData = ""
			case "flowNodeRef":
				isFlowNodeRef = false
				if lane != nil {
					if ref := strings.TrimSpace(charData); ref != "" {
						laneMembers[lane.Id] = append(laneMembers[lane.Id], ref)
					}
				}
				charData = ""
			case "incoming":
				isIncoming = false
				if element != nil {
					if ref := strings.TrimSpace(charData); ref != "" {
						f := flowById(ref)
						if f.TargetId == "" {
							f.TargetId = element.Id
						}
					}
				}
				charData = ""
			case "lane":
				lane = nil
			case "outgoing":
				isOutgoing = false
				if element != nil {
					if ref := strings.TrimSpace(charData); ref != "" {
						f := flowById(ref)
						if f.SourceId == "" {
							f.SourceId = element.Id
						}
					}
				}
				charData = ""
			case "process":
				currentProcessId = ""
			case "sequenceFlow":
				flow = nil
			case "text":
				if isAnnotationText && element != nil && element.Name == "" {
					element.Name = strings.TrimSpace(charData)
				}
				isAnnotationText = false
				charData = ""
			case "timeCycle", "timeDuration":
				isTimerValue = false
				if element != nil {
					element.TimerDefinition = strings.TrimSpace(charData)
				}
				charData = ""
			}
		}
	}

	if !definitionsParsed {
		return nil, nil, errors.New("no definitions found")
	}
	if len(processIds) == 0 && len(participants) == 0 {
		return nil, nil, errors.New("no process or collaboration found")
	}

	// events whose definition was shadowed by an unknown tag, e.g. extension elements
	for _, elementId := range doc.ElementIds {
		if e := doc.Elements[elementId]; e.Kind == 0 {
			e.Kind = ElementUnsupported
			addWarning(WarningUnsupportedElement, SeverityInfo, e.Id, "element has no supported event definition")
		}
	}

	synthesizedPools := buildPools(doc, participants, processIds, processNames, processChildren, processLanes, laneMembers, &warnings)

	resolveBoundaryEvents(doc, &warnings)

	if err := resolveFlows(doc, &warnings); err != nil {
		return nil, nil, err
	}

	applyGeometry(doc, shapeBounds, edgePoints, synthesizedPools)

	if doc.Name == "" {
		doc.Name = doc.Id
	}

	return doc, warnings, nil
}

type participant struct {
	id         string
	name       string
	processRef string
}

// buildPools creates the top level containers and partitions process children
// into lanes. It returns the IDs of pools that have been synthesized because
// the source defines no participant for a process.
func buildPools(
	doc *ProcessDocument,
	participants []participant,
	processIds []string,
	processNames map[string]string,
	processChildren map[string][]string,
	processLanes map[string][]*Container,
	laneMembers map[string][]string,
	warnings *[]Warning,
) map[string]bool {
	synthesized := map[string]bool{}
	pooled := map[string]bool{}

	addPool := func(id string, name string, processId string) {
		pool := &Container{Id: id, Kind: ContainerPool, Name: name}
		doc.addContainer(pool)
		doc.Pools = append(doc.Pools, pool.Id)

		if processId == "" {
			return // pool without a process
		}

		pooled[processId] = true
		if doc.Name == "" {
			doc.Name = processNames[processId]
		}
		if doc.Name == "" {
			doc.Name = name
		}

		attachProcess(doc, pool, processChildren[processId], processLanes[processId], laneMembers, warnings)
	}

	for _, p := range participants {
		id := p.id
		if id == "" {
			id = p.processRef
		}
		if id == "" || doc.Containers[id] != nil {
			continue
		}

		name := p.name
		if name == "" {
			name = processNames[p.processRef]
		}

		processId := ""
		if _, ok := processChildren[p.processRef]; ok || contains(processIds, p.processRef) {
			processId = p.processRef
		}
		addPool(id, name, processId)
	}

	// processes that no participant refers to still need a pool
	for _, processId := range processIds {
		if pooled[processId] {
			continue
		}

		id := "_pool_" + processId
		for doc.Containers[id] != nil {
			id += "_"
		}

		synthesized[id] = true
		addPool(id, processNames[processId], processId)
	}

	return synthesized
}

func attachProcess(
	doc *ProcessDocument,
	pool *Container,
	children []string,
	lanes []*Container,
	laneMembers map[string][]string,
	warnings *[]Warning,
) {
	if len(lanes) == 0 {
		for _, childId := range children {
			assignChild(doc, pool, childId)
		}
		return
	}

	childSet := map[string]bool{}
	for _, childId := range children {
		childSet[childId] = true
	}

	memberOf := map[string]*Container{}
	for _, l := range lanes {
		l.ParentId = pool.Id
		pool.ChildIds = append(pool.ChildIds, l.Id)

		for _, ref := range laneMembers[l.Id] {
			if !childSet[ref] {
				*warnings = append(*warnings, Warning{
					Type:      WarningUnresolvedReference,
					Severity:  SeverityInfo,
					ElementId: l.Id,
					Message:   fmt.Sprintf("lane refers to unknown flow node %s", ref),
				})
				continue
			}
			if memberOf[ref] == nil {
				memberOf[ref] = l
			}
		}
	}

	for _, childId := range children {
		l := memberOf[childId]
		if l == nil {
			l = lanes[0]
			*warnings = append(*warnings, Warning{
				Type:      WarningUnresolvedReference,
				Severity:  SeverityInfo,
				ElementId: childId,
				Message:   fmt.Sprintf("flow node is not referenced by any lane and has been put into lane %s", l.Id),
			})
		}
		assignChild(doc, l, childId)
	}
}

func assignChild(doc *ProcessDocument, container *Container, childId string) {
	if e := doc.Elements[childId]; e != nil {
		e.ContainerId = container.Id
		container.ChildIds = append(container.ChildIds, childId)
	} else if c := doc.Containers[childId]; c != nil {
		c.ParentId = container.Id
		container.ChildIds = append(container.ChildIds, childId)
	}
}

// resolveBoundaryEvents moves each boundary event into the container of its
// host activity. A sub process hosts events in its parent container, so that
// the event becomes a sibling of its host. Events with an unresolvable host
// stay where they are and are laid out like ordinary elements.
func resolveBoundaryEvents(doc *ProcessDocument, warnings *[]Warning) {
	for _, elementId := range doc.ElementIds {
		element := doc.Elements[elementId]
		if element.AttachedToId == "" {
			continue
		}

		if host := doc.Elements[element.AttachedToId]; host != nil {
			if element.ContainerId != host.ContainerId {
				moveChild(doc, element, host.ContainerId)
			}
			continue
		}

		hostContainer := doc.Containers[element.AttachedToId]
		if hostContainer != nil && hostContainer.Kind == ContainerSubProcess {
			if element.ContainerId != hostContainer.ParentId {
				moveChild(doc, element, hostContainer.ParentId)
			}
			continue
		}

		*warnings = append(*warnings, Warning{
			Type:      WarningUnresolvedReference,
			Severity:  SeverityWarning,
			ElementId: element.Id,
			Message:   fmt.Sprintf("boundary event is attached to unknown activity %s", element.AttachedToId),
		})
		element.AttachedToId = ""
	}
}

func moveChild(doc *ProcessDocument, element *Element, containerId string) {
	if from := doc.Containers[element.ContainerId]; from != nil {
		for i := range from.ChildIds {
			if from.ChildIds[i] == element.Id {
				from.ChildIds = append(from.ChildIds[:i], from.ChildIds[i+1:]...)
				break
			}
		}
	}
	if to := doc.Containers[containerId]; to != nil {
		to.ChildIds = append(to.ChildIds, element.Id)
	}
	element.ContainerId = containerId
}

// resolveFlows drops flows with unresolvable endpoints and rebuilds the
// incoming and outgoing lists of all elements. Sequence flows that connect
// elements of different pools make the document invalid.
func resolveFlows(doc *ProcessDocument, warnings *[]Warning) error {
	resolves := func(id string) bool {
		return doc.Elements[id] != nil || doc.Containers[id] != nil
	}

	var dropped []string
	for _, flowId := range doc.FlowIds {
		flow := doc.Flows[flowId]

		if flow.Condition != "" && flow.Kind == FlowSequence {
			flow.Kind = FlowConditional
		}

		if !resolves(flow.SourceId) || !resolves(flow.TargetId) {
			unresolved := flow.SourceId
			if resolves(flow.SourceId) {
				unresolved = flow.TargetId
			}
			*warnings = append(*warnings, Warning{
				Type:      WarningUnresolvedReference,
				Severity:  SeverityWarning,
				ElementId: flow.Id,
				Message:   fmt.Sprintf("flow has been dropped, since %s cannot be resolved", unresolved),
			})
			dropped = append(dropped, flowId)
			continue
		}

		if flow.Kind.IsSequence() {
			sourcePool := doc.PoolOf(flow.SourceId)
			targetPool := doc.PoolOf(flow.TargetId)
			if sourcePool != nil && targetPool != nil && sourcePool != targetPool {
				return fmt.Errorf("sequence flow %s connects pool %s with pool %s", flow.Id, sourcePool.Id, targetPool.Id)
			}
		}
	}

	for _, flowId := range dropped {
		doc.removeFlow(flowId)
	}

	for _, elementId := range doc.ElementIds {
		element := doc.Elements[elementId]
		element.Incoming = nil
		element.Outgoing = nil
	}

	for _, flowId := range doc.FlowIds {
		flow := doc.Flows[flowId]
		if source := doc.Elements[flow.SourceId]; source != nil {
			source.Outgoing = append(source.Outgoing, flow.Id)
			if source.DefaultFlowId == flow.Id {
				flow.Kind = FlowDefault
			}
		}
		if target := doc.Elements[flow.TargetId]; target != nil {
			target.Incoming = append(target.Incoming, flow.Id)
		}
	}

	return nil
}

// applyGeometry marks the document as positioned and copies shape bounds and
// edge waypoints, but only if every element and every container that is not
// synthesized has a shape. Partial geometry is discarded.
func applyGeometry(doc *ProcessDocument, shapeBounds map[string]*Geometry, edgePoints map[string][]Point, synthesizedPools map[string]bool) {
	if len(shapeBounds) == 0 {
		return
	}

	for _, elementId := range doc.ElementIds {
		if shapeBounds[elementId] == nil {
			return
		}
	}
	for _, containerId := range doc.ContainerIds {
		if synthesizedPools[containerId] {
			continue
		}
		if shapeBounds[containerId] == nil {
			return
		}
	}

	for _, elementId := range doc.ElementIds {
		bounds := *shapeBounds[elementId]
		doc.Elements[elementId].Geometry = &bounds
	}
	for _, containerId := range doc.ContainerIds {
		if shapeBounds[containerId] == nil {
			continue
		}
		bounds := *shapeBounds[containerId]
		doc.Containers[containerId].Geometry = &bounds
	}
	for _, flowId := range doc.FlowIds {
		if points := edgePoints[flowId]; len(points) >= 2 {
			doc.Flows[flowId].Waypoints = points
		}
	}

	doc.HasGeometry = true
}

func contains(values []string, value string) bool {
	for i := range values {
		if values[i] == value {
			return true
		}
	}
	return false
}

func getAttrValue(attributes []xml.Attr, name string) string {
	for i := range attributes {
		if attributes[i].Name.Local == name {
			return attributes[i].Value
		}
	}
	return ""
}

func getAttrFloat(attributes []xml.Attr, name string) float64 {
	f, _ := strconv.ParseFloat(getAttrValue(attributes, name), 64)
	return f
}

func newElement(kind ElementKind, attributes []xml.Attr) *Element {
	return &Element{
		Id:            getAttrValue(attributes, "id"),
		Kind:          kind,
		Name:          getAttrValue(attributes, "name"),
		DefaultFlowId: getAttrValue(attributes, "default"),
	}
}
