package diagram

import (
	"fmt"
	"math"
	"sync"

	"github.com/gclaussn/go-bpmn-diagram/model"
)

const (
	taskWidth        = 100
	taskHeight       = 80
	eventSize        = 36
	gatewaySize      = 50
	annotationWidth  = 100
	annotationHeight = 30

	rankGap      = 50 // gap between ranks along the primary axis
	siblingGap   = 30 // gap between nodes of the same rank
	containerGap = 30 // gap between stacked pools
	margin       = 20 // inner margin of containers
	headerSize   = 30 // label band of pools and lanes

	minContentPs = 160 // minimal content extent of a container along the primary axis
	minContentSs = 80  // minimal content extent of a container along the secondary axis

	originOffset = 40 // offset of the whole diagram from the coordinate origin

	// number of children per container at which rank based placement is abandoned
	maxLayoutNodes = 4000
)

// box is a rectangle in layout space, expressed along the primary and secondary
// axis instead of x and y, so that one placement algorithm serves all four
// directions.
type box struct {
	p, s   float64 // position, relative to the owning container
	ps, ss float64 // extent along the primary and secondary axis
}

type layoutNode struct {
	id   string
	size box
}

type layoutEdge struct {
	from string
	to   string
}

// containerLayout is the result of placing the children of one container.
// Boxes are relative to the container origin, while size is the resulting
// extent of the container itself.
type containerLayout struct {
	containerId string
	boxes       map[string]box
	size        box
	warnings    []model.Warning
}

type layouter struct {
	doc        *model.ProcessDocument
	horizontal bool

	local map[string]box // final boxes, relative to the owning container origin
	sizes map[string]box // container extents, input for the parent placement
}

// computeLayout derives geometry for every element and container of the document.
//
// Containers are laid out bottom up, so that the extent of a sub process or lane
// is known before its parent is placed. Within a container, children are ranked
// along the primary axis by following their sequence flows.
func computeLayout(doc *model.ProcessDocument, options Options) []model.Warning {
	l := layouter{
		doc:        doc,
		horizontal: options.Direction.IsHorizontal(),

		local: map[string]box{},
		sizes: map[string]box{},
	}

	warnings := l.placeContainers(options.Parallel)
	l.stackPools()
	l.translate(options.Direction)
	return warnings
}

// preserveLayout keeps the source geometry, but grows each container to enclose
// its children. Synthesized pools without source geometry are derived from the
// bounding box of their children.
func preserveLayout(doc *model.ProcessDocument) {
	depths := map[int][]string{}
	maxDepth := 0
	for _, containerId := range doc.ContainerIds {
		depth := doc.Depth(containerId)
		depths[depth] = append(depths[depth], containerId)
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	for depth := maxDepth; depth >= 0; depth-- {
		for _, containerId := range depths[depth] {
			container := doc.Containers[containerId]

			var bbox model.Geometry
			var found bool
			for _, childId := range container.ChildIds {
				var g *model.Geometry
				if element := doc.Elements[childId]; element != nil {
					g = element.Geometry
				} else if child := doc.Containers[childId]; child != nil {
					g = child.Geometry
				}
				if g == nil {
					continue
				}
				if !found {
					bbox = *g
					found = true
				} else {
					bbox = bbox.Union(*g)
				}
			}

			if !found {
				continue
			}

			required := model.Geometry{
				X:      bbox.X - margin,
				Y:      bbox.Y - margin,
				Width:  bbox.Width + 2*margin,
				Height: bbox.Height + 2*margin,
			}
			if container.Kind != model.ContainerSubProcess {
				required.X -= headerSize
				required.Width += headerSize
			}

			if container.Geometry == nil {
				container.Geometry = &required
			} else {
				union := container.Geometry.Union(required)
				container.Geometry = &union
			}
		}
	}
}

func (l *layouter) placeContainers(parallel bool) []model.Warning {
	depths := map[int][]string{}
	maxDepth := 0
	for _, containerId := range l.doc.ContainerIds {
		depth := l.doc.Depth(containerId)
		depths[depth] = append(depths[depth], containerId)
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	var warnings []model.Warning
	for depth := maxDepth; depth >= 0; depth-- {
		containerIds := depths[depth]
		layouts := make([]containerLayout, len(containerIds))

		if parallel && len(containerIds) > 1 {
			var wg sync.WaitGroup
			for i, containerId := range containerIds {
				wg.Add(1)
				go func(i int, containerId string) {
					defer wg.Done()
					layouts[i] = l.placeChildren(containerId)
				}(i, containerId)
			}
			wg.Wait()
		} else {
			for i, containerId := range containerIds {
				layouts[i] = l.placeChildren(containerId)
			}
		}

		// merge in document order, so that the result is independent of scheduling
		for i := range layouts {
			for id, b := range layouts[i].boxes {
				l.local[id] = b
			}
			l.sizes[layouts[i].containerId] = layouts[i].size
			warnings = append(warnings, layouts[i].warnings...)
		}
	}
	return warnings
}

func (l *layouter) placeChildren(containerId string) containerLayout {
	container := l.doc.Containers[containerId]

	childContainers := l.doc.ChildContainers(containerId)
	if container.Kind == model.ContainerPool && len(childContainers) != 0 && childContainers[0].Kind == model.ContainerLane {
		return l.stackLanes(container, childContainers)
	}
	return l.rankChildren(container)
}

// stackLanes places the lanes of a pool, stretching all lanes to a uniform
// primary extent. Lanes are flush with each other and with the pool body.
func (l *layouter) stackLanes(pool *model.Container, lanes []*model.Container) containerLayout {
	boxes := make(map[string]box, len(lanes))

	maxPs := 0.0
	for _, lane := range lanes {
		if size := l.sizes[lane.Id]; size.ps > maxPs {
			maxPs = size.ps
		}
	}

	s := 0.0
	for _, lane := range lanes {
		size := l.sizes[lane.Id]
		boxes[lane.Id] = box{p: headerSize, s: s, ps: maxPs, ss: size.ss}
		s += size.ss
	}

	return containerLayout{
		containerId: pool.Id,
		boxes:       boxes,
		size:        box{ps: headerSize + maxPs, ss: s},
	}
}

func (l *layouter) rankChildren(container *model.Container) containerLayout {
	nodes := map[string]*layoutNode{}
	var order []string
	var boundary []*model.Element

	for _, childId := range container.ChildIds {
		if element := l.doc.Elements[childId]; element != nil {
			if element.Kind.IsBoundaryEvent() && element.AttachedToId != "" {
				boundary = append(boundary, element)
				continue
			}
			nodes[childId] = &layoutNode{id: childId, size: l.elementSize(element)}
		} else if l.doc.Containers[childId] != nil {
			nodes[childId] = &layoutNode{id: childId, size: l.sizes[childId]}
		} else {
			continue
		}
		order = append(order, childId)
	}

	if len(order)+len(boundary) > maxLayoutNodes {
		return l.gridChildren(container)
	}

	// resolve maps a flow endpoint to the direct child it belongs to.
	// Endpoints outside of this container resolve to an empty string.
	// A boundary event resolves to its host, which ranks the targets of its
	// outgoing flows after the host activity.
	resolve := func(id string) string {
		if element := l.doc.Elements[id]; element != nil && element.Kind.IsBoundaryEvent() && element.AttachedToId != "" {
			id = element.AttachedToId
		}
		for id != "" && id != container.Id {
			if _, ok := nodes[id]; ok {
				return id
			}
			if element := l.doc.Elements[id]; element != nil {
				id = element.ContainerId
			} else if child := l.doc.Containers[id]; child != nil {
				id = child.ParentId
			} else {
				return ""
			}
		}
		return ""
	}

	var edges []layoutEdge
	for _, flowId := range l.doc.FlowIds {
		flow := l.doc.Flows[flowId]
		if flow.Kind == model.FlowMessage {
			continue
		}

		from := resolve(flow.SourceId)
		to := resolve(flow.TargetId)
		if from == "" || to == "" || from == to {
			continue
		}

		edges = append(edges, layoutEdge{from: from, to: to})
	}

	contentP := contentOffsetP(container.Kind)
	ranks := assignRanks(order, edges)

	maxSs := 0.0
	for _, ids := range ranks {
		ss := float64(len(ids)-1) * siblingGap
		for _, id := range ids {
			ss += nodes[id].size.ss
		}
		if ss > maxSs {
			maxSs = ss
		}
	}

	boxes := map[string]box{}

	p := 0.0
	for _, ids := range ranks {
		rankPs := 0.0
		ss := float64(len(ids)-1) * siblingGap
		for _, id := range ids {
			if nodes[id].size.ps > rankPs {
				rankPs = nodes[id].size.ps
			}
			ss += nodes[id].size.ss
		}

		s := (maxSs - ss) / 2 // center the rank along the secondary axis
		for _, id := range ids {
			size := nodes[id].size
			boxes[id] = box{
				p:  contentP + p + (rankPs-size.ps)/2,
				s:  margin + s,
				ps: size.ps,
				ss: size.ss,
			}
			s += size.ss + siblingGap
		}

		p += rankPs + rankGap
	}

	contentPs := p - rankGap
	if contentPs < minContentPs {
		contentPs = minContentPs
	}
	contentSs := maxSs
	if contentSs < minContentSs {
		contentSs = minContentSs
	}

	// snap boundary events onto the border of their host, distributed along the
	// edge that faces away from the secondary axis origin
	hostCount := map[string]int{}
	for _, element := range boundary {
		hostCount[element.AttachedToId]++
	}

	hostSeen := map[string]int{}
	for _, element := range boundary {
		size := l.elementSize(element)

		host, ok := boxes[element.AttachedToId]
		if !ok {
			boxes[element.Id] = box{p: contentP, s: margin, ps: size.ps, ss: size.ss}
			continue
		}

		i := hostSeen[element.AttachedToId]
		hostSeen[element.AttachedToId]++
		n := hostCount[element.AttachedToId]

		boxes[element.Id] = box{
			p:  host.p + host.ps*float64(i+1)/float64(n+1) - size.ps/2,
			s:  host.s + host.ss - size.ss/2,
			ps: size.ps,
			ss: size.ss,
		}
	}

	size := box{ps: contentP + contentPs + margin, ss: margin + contentSs + margin}
	for _, b := range boxes {
		if b.p+b.ps+margin > size.ps {
			size.ps = b.p + b.ps + margin
		}
		if b.s+b.ss+margin > size.ss {
			size.ss = b.s + b.ss + margin
		}
	}

	return containerLayout{containerId: container.Id, boxes: boxes, size: size}
}

// gridChildren places children in a simple grid, used when a container holds
// too many children for rank based placement.
func (l *layouter) gridChildren(container *model.Container) containerLayout {
	var cellPs, cellSs float64
	var order []string
	sizes := map[string]box{}

	for _, childId := range container.ChildIds {
		var size box
		if element := l.doc.Elements[childId]; element != nil {
			size = l.elementSize(element)
		} else if l.doc.Containers[childId] != nil {
			size = l.sizes[childId]
		} else {
			continue
		}

		order = append(order, childId)
		sizes[childId] = size
		if size.ps > cellPs {
			cellPs = size.ps
		}
		if size.ss > cellSs {
			cellSs = size.ss
		}
	}

	contentP := contentOffsetP(container.Kind)
	columns := int(math.Ceil(math.Sqrt(float64(len(order)))))

	boxes := make(map[string]box, len(order))
	size := box{ps: contentP + minContentPs + margin, ss: margin + minContentSs + margin}
	for i, childId := range order {
		b := box{
			p:  contentP + float64(i%columns)*(cellPs+rankGap),
			s:  margin + float64(i/columns)*(cellSs+siblingGap),
			ps: sizes[childId].ps,
			ss: sizes[childId].ss,
		}
		boxes[childId] = b

		if b.p+b.ps+margin > size.ps {
			size.ps = b.p + b.ps + margin
		}
		if b.s+b.ss+margin > size.ss {
			size.ss = b.s + b.ss + margin
		}
	}

	return containerLayout{
		containerId: container.Id,
		boxes:       boxes,
		size:        size,
		warnings: []model.Warning{{
			Type:      model.WarningLayoutDegraded,
			Severity:  model.SeverityWarning,
			ElementId: container.Id,
			Message:   fmt.Sprintf("container %s has %d children, falling back to grid placement", container.Id, len(order)),
		}},
	}
}

func (l *layouter) elementSize(element *model.Element) box {
	var w, h float64
	switch {
	case element.Kind.IsGateway():
		w, h = gatewaySize, gatewaySize
	case element.Kind.IsEvent():
		w, h = eventSize, eventSize
	case element.Kind == model.ElementTextAnnotation:
		w, h = annotationWidth, annotationHeight
	default:
		w, h = taskWidth, taskHeight
	}

	if l.horizontal {
		return box{ps: w, ss: h}
	}
	return box{ps: h, ss: w}
}

func (l *layouter) stackPools() {
	s := float64(originOffset)
	for _, poolId := range l.doc.Pools {
		size := l.sizes[poolId]
		l.local[poolId] = box{p: originOffset, s: s, ps: size.ps, ss: size.ss}
		s += size.ss + containerGap
	}
}

// translate resolves local boxes into absolute geometry, mirroring the primary
// axis for reversed directions.
func (l *layouter) translate(direction Direction) {
	abs := map[string]box{}
	for _, poolId := range l.doc.Pools {
		l.placeAbs(poolId, l.local[poolId], abs)
	}

	if direction.IsReversed() {
		total := 0.0
		for _, b := range abs {
			if b.p+b.ps > total {
				total = b.p + b.ps
			}
		}
		for id, b := range abs {
			b.p = total + originOffset - b.p - b.ps
			abs[id] = b
		}
	}

	for id, b := range abs {
		var g model.Geometry
		if l.horizontal {
			g = model.Geometry{X: b.p, Y: b.s, Width: b.ps, Height: b.ss}
		} else {
			g = model.Geometry{X: b.s, Y: b.p, Width: b.ss, Height: b.ps}
		}

		if element := l.doc.Elements[id]; element != nil {
			element.Geometry = &g
		} else if container := l.doc.Containers[id]; container != nil {
			container.Geometry = &g
		}
	}
}

func (l *layouter) placeAbs(containerId string, b box, abs map[string]box) {
	abs[containerId] = b

	container := l.doc.Containers[containerId]
	for _, childId := range container.ChildIds {
		local, ok := l.local[childId]
		if !ok {
			continue
		}

		child := box{p: b.p + local.p, s: b.s + local.s, ps: local.ps, ss: local.ss}
		if l.doc.Containers[childId] != nil {
			l.placeAbs(childId, child, abs)
		} else {
			abs[childId] = child
		}
	}
}

// assignRanks assigns a rank to every node by following edges from the root
// nodes, using the longest path. Cycles are cut at revisited nodes. Nodes that
// remain unranked, like isolated elements, are put into one tail rank.
func assignRanks(order []string, edges []layoutEdge) [][]string {
	indegree := map[string]int{}
	outgoing := map[string][]string{}
	for _, edge := range edges {
		indegree[edge.to]++
		outgoing[edge.from] = append(outgoing[edge.from], edge.to)
	}

	rank := map[string]int{}
	onPath := map[string]bool{}

	var visit func(id string, r int)
	visit = func(id string, r int) {
		if onPath[id] {
			return
		}
		if assigned, ok := rank[id]; ok && r <= assigned {
			return
		}

		rank[id] = r
		onPath[id] = true
		for _, next := range outgoing[id] {
			visit(next, r+1)
		}
		onPath[id] = false
	}

	var hasRoot bool
	for _, id := range order {
		if indegree[id] == 0 && len(outgoing[id]) != 0 {
			visit(id, 0)
			hasRoot = true
		}
	}
	if !hasRoot {
		// a pure cycle has no indegree free node, break it at the first node in document order
		for _, id := range order {
			if len(outgoing[id]) != 0 {
				visit(id, 0)
				break
			}
		}
	}

	maxRank := -1
	for _, r := range rank {
		if r > maxRank {
			maxRank = r
		}
	}
	for _, id := range order {
		if _, ok := rank[id]; !ok {
			rank[id] = maxRank + 1
		}
	}

	total := 0
	for _, r := range rank {
		if r+1 > total {
			total = r + 1
		}
	}

	ranks := make([][]string, total)
	for _, id := range order {
		ranks[rank[id]] = append(ranks[rank[id]], id)
	}
	return ranks
}

func contentOffsetP(kind model.ContainerKind) float64 {
	if kind == model.ContainerSubProcess {
		return margin
	}
	return headerSize + margin
}
