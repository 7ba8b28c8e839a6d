package model

// ProcessDocument is the root of a parsed BPMN document.
//
// Elements, flows and containers are stored in flat, ID keyed tables.
// Containment is expressed through ID references, so that both downward
// (Container.ChildIds) and upward (Element.ContainerId, Container.ParentId)
// traversal work without ownership cycles. The ordered ID slices preserve
// document order for deterministic iteration.
type ProcessDocument struct {
	Id   string // ID of the definitions element.
	Name string // Name of the first process.

	Pools []string // IDs of top level containers, in document order.

	Elements   map[string]*Element
	Flows      map[string]*Flow
	Containers map[string]*Container

	ElementIds   []string // Element IDs, in document order.
	FlowIds      []string // Flow IDs, in document order.
	ContainerIds []string // Container IDs, in document order.

	HasGeometry bool // Determines if the source supplied complete diagram interchange geometry.
}

func newProcessDocument() *ProcessDocument {
	return &ProcessDocument{
		Elements:   map[string]*Element{},
		Flows:      map[string]*Flow{},
		Containers: map[string]*Container{},
	}
}

func (d *ProcessDocument) addContainer(container *Container) {
	d.Containers[container.Id] = container
	d.ContainerIds = append(d.ContainerIds, container.Id)
}

func (d *ProcessDocument) addElement(element *Element) {
	d.Elements[element.Id] = element
	d.ElementIds = append(d.ElementIds, element.Id)
}

func (d *ProcessDocument) addFlow(flow *Flow) {
	d.Flows[flow.Id] = flow
	d.FlowIds = append(d.FlowIds, flow.Id)
}

func (d *ProcessDocument) removeFlow(id string) {
	delete(d.Flows, id)
	for i := range d.FlowIds {
		if d.FlowIds[i] == id {
			d.FlowIds = append(d.FlowIds[:i], d.FlowIds[i+1:]...)
			break
		}
	}
}

// AttachedTo returns all boundary events that are attached to a specific activity.
func (d *ProcessDocument) AttachedTo(id string) []*Element {
	var elements []*Element
	for _, elementId := range d.ElementIds {
		element := d.Elements[elementId]
		if element.AttachedToId == id {
			elements = append(elements, element)
		}
	}
	return elements
}

// ChildContainers returns the direct child containers of a container, in document order.
func (d *ProcessDocument) ChildContainers(containerId string) []*Container {
	container := d.Containers[containerId]
	if container == nil {
		return nil
	}

	var containers []*Container
	for _, childId := range container.ChildIds {
		if child := d.Containers[childId]; child != nil {
			containers = append(containers, child)
		}
	}
	return containers
}

// ChildElements returns the direct child elements of a container, in document order.
func (d *ProcessDocument) ChildElements(containerId string) []*Element {
	container := d.Containers[containerId]
	if container == nil {
		return nil
	}

	var elements []*Element
	for _, childId := range container.ChildIds {
		if child := d.Elements[childId]; child != nil {
			elements = append(elements, child)
		}
	}
	return elements
}

// CommonAncestor returns the innermost container that contains both ids, or
// nil, if the ids do not share a container. An id that resolves to a container
// counts from its parent, so a container is not an ancestor of itself.
func (d *ProcessDocument) CommonAncestor(id string, otherId string) *Container {
	ancestorIds := map[string]bool{}
	for ancestorId := d.parentId(id); ancestorId != ""; ancestorId = d.parentId(ancestorId) {
		ancestorIds[ancestorId] = true
	}
	for ancestorId := d.parentId(otherId); ancestorId != ""; ancestorId = d.parentId(ancestorId) {
		if ancestorIds[ancestorId] {
			return d.Containers[ancestorId]
		}
	}
	return nil
}

// ContainerById returns the container with the given id, or nil, if no such container exists.
func (d *ProcessDocument) ContainerById(id string) *Container {
	return d.Containers[id]
}

// Depth returns the nesting depth of a container. Pools have a depth of 0.
func (d *ProcessDocument) Depth(containerId string) int {
	depth := 0
	container := d.Containers[containerId]
	for container != nil && container.ParentId != "" {
		depth++
		container = d.Containers[container.ParentId]
	}
	return depth
}

// ElementById returns the element with the given id, or nil, if no such element exists.
func (d *ProcessDocument) ElementById(id string) *Element {
	return d.Elements[id]
}

// FlowById returns the flow with the given id, or nil, if no such flow exists.
func (d *ProcessDocument) FlowById(id string) *Flow {
	return d.Flows[id]
}

// IsAncestor determines if ancestorId is an ancestor container of the element
// or container with the given id. A container is not its own ancestor.
func (d *ProcessDocument) IsAncestor(ancestorId string, id string) bool {
	parentId := d.parentId(id)
	for parentId != "" {
		if parentId == ancestorId {
			return true
		}
		parentId = d.parentId(parentId)
	}
	return false
}

// PoolOf returns the top level container that an element or container belongs
// to, or nil, if the id resolves to neither.
func (d *ProcessDocument) PoolOf(id string) *Container {
	for {
		if container := d.Containers[id]; container != nil {
			if container.ParentId == "" {
				return container
			}
			id = container.ParentId
			continue
		}
		if element := d.Elements[id]; element != nil {
			id = element.ContainerId
			continue
		}
		return nil
	}
}

func (d *ProcessDocument) parentId(id string) string {
	if element := d.Elements[id]; element != nil {
		return element.ContainerId
	}
	if container := d.Containers[id]; container != nil {
		return container.ParentId
	}
	return ""
}
