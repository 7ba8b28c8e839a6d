package model

import "fmt"

// Element is a flow node within a process graph.
type Element struct {
	Id   string      `json:"id" validate:"required"`   // Element ID, unique within the document.
	Kind ElementKind `json:"kind" validate:"required"` // BPMN element kind.
	Name string      `json:"name,omitempty"`           // Element name within the BPMN XML.

	ContainerId string `json:"containerId"` // ID of the owning container.

	Incoming []string `json:"incoming,omitempty"` // IDs of incoming flows, in document order.
	Outgoing []string `json:"outgoing,omitempty"` // IDs of outgoing flows, in document order.

	AttachedToId    string `json:"attachedToId,omitempty"`    // ID of the host activity, in case of a boundary event.
	DefaultFlowId   string `json:"defaultFlowId,omitempty"`   // ID of the default outgoing flow, in case of a gateway or task.
	TimerDefinition string `json:"timerDefinition,omitempty"` // ISO 8601 duration or cron expression, in case of a timer event.

	Geometry *Geometry `json:"geometry,omitempty"` // Resolved position and size.
}

func (v Element) String() string {
	return fmt.Sprintf("%s:%s", v.Id, v.Kind)
}

// Flow is a directed edge between two flow nodes, or between elements of different pools.
type Flow struct {
	Id   string   `json:"id" validate:"required"`   // Flow ID, unique within the document.
	Kind FlowKind `json:"kind" validate:"required"` // Edge kind.
	Name string   `json:"name,omitempty"`           // Flow name within the BPMN XML.

	SourceId string `json:"sourceId"` // ID of the source element, container or pool.
	TargetId string `json:"targetId"` // ID of the target element, container or pool.

	Condition string `json:"condition,omitempty"` // Condition expression, in case of a conditional flow.

	Waypoints []Point `json:"waypoints,omitempty"` // Routed path, from source to target.
}

func (v Flow) String() string {
	return fmt.Sprintf("%s:%s", v.Id, v.Kind)
}

// Container is a pool, lane or sub process, owning an ordered sequence of children.
type Container struct {
	Id   string        `json:"id" validate:"required"`   // Container ID, unique within the document.
	Kind ContainerKind `json:"kind" validate:"required"` // Container kind.
	Name string        `json:"name,omitempty"`           // Container name within the BPMN XML.

	ParentId string   `json:"parentId,omitempty"` // ID of the parent container, empty for pools.
	ChildIds []string `json:"childIds,omitempty"` // IDs of owned elements and containers, in document order.

	Geometry *Geometry `json:"geometry,omitempty"` // Resolved position and size.
}

func (v Container) String() string {
	return fmt.Sprintf("%s:%s", v.Id, v.Kind)
}
