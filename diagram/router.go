package diagram

import (
	"fmt"
	"math"

	"github.com/gclaussn/go-bpmn-diagram/model"
)

const (
	routeGap      = 20 // clearance between a routed edge and an obstacle
	routeAttempts = 8  // obstacle repairs per flow, before falling back to a direct connection
	loopOffset    = 20 // clearance of a self loop path
)

type side int

const (
	sideTop side = iota
	sideRight
	sideBottom
	sideLeft
)

// routeFlows computes orthogonal waypoints for every flow of the document.
//
// Pools and sub processes act as routing obstacles, unless they contain one of
// the flow's endpoints. Lanes are transparent. When a path cannot be cleared
// within a bounded number of repairs, the flow degrades to a direct connection.
func routeFlows(doc *model.ProcessDocument, preserve bool) []model.Warning {
	var warnings []model.Warning

	var obstacleIds []string
	for _, containerId := range doc.ContainerIds {
		if doc.Containers[containerId].Kind != model.ContainerLane {
			obstacleIds = append(obstacleIds, containerId)
		}
	}

	for _, flowId := range doc.FlowIds {
		flow := doc.Flows[flowId]

		if preserve && len(flow.Waypoints) >= 2 {
			continue
		}

		source := geometryOf(doc, flow.SourceId)
		target := geometryOf(doc, flow.TargetId)
		if source == nil || target == nil {
			continue
		}

		if flow.SourceId == flow.TargetId {
			flow.Waypoints = routeLoop(*source)
			continue
		}

		exit := sideOf(source.Center(), target.Center())
		if element := doc.Elements[flow.SourceId]; element != nil && element.Kind.IsBoundaryEvent() && element.AttachedToId != "" {
			// a boundary event connects at the side that faces away from its host
			if host := geometryOf(doc, element.AttachedToId); host != nil {
				exit = sideOf(host.Center(), source.Center())
			}
		}

		points, ok := route(*source, *target, exit, relevantObstacles(doc, obstacleIds, flow))
		if !ok {
			flow.Waypoints = []model.Point{source.Center(), target.Center()}
			warnings = append(warnings, model.Warning{
				Type:      model.WarningRoutingFallback,
				Severity:  model.SeverityWarning,
				ElementId: flow.Id,
				Message:   fmt.Sprintf("flow %s could not be routed around all obstacles, using a direct connection", flow.Id),
			})
			continue
		}

		flow.Waypoints = points
	}

	return warnings
}

func route(source, target model.Geometry, exit side, obstacles []model.Geometry) ([]model.Point, bool) {
	start := connectorPoint(source, exit)

	// when the preferred entry side cannot be cleared, the remaining sides of
	// the target are tried, so that a path can swing around a large obstacle
	// instead of folding into it
	for _, entry := range entrySides(target.Center(), start) {
		path := simplify(initialPath(source, target, exit, entry))

		for attempt := 0; attempt < routeAttempts; attempt++ {
			i, obstacle := firstCrossing(path, obstacles)
			if i < 0 {
				return path, true
			}

			path = repair(path, i, obstacle)
			if path == nil {
				break
			}
			path = simplify(path)
		}
	}

	return nil, false
}

func initialPath(source, target model.Geometry, exit side, entry side) []model.Point {
	start := connectorPoint(source, exit)
	end := connectorPoint(target, entry)

	exitH := exit == sideLeft || exit == sideRight
	entryH := entry == sideLeft || entry == sideRight

	switch {
	case exitH && entryH:
		midX := (start.X + end.X) / 2
		return []model.Point{start, {X: midX, Y: start.Y}, {X: midX, Y: end.Y}, end}
	case !exitH && !entryH:
		midY := (start.Y + end.Y) / 2
		return []model.Point{start, {X: start.X, Y: midY}, {X: end.X, Y: midY}, end}
	case exitH:
		return []model.Point{start, {X: end.X, Y: start.Y}, end}
	default:
		return []model.Point{start, {X: start.X, Y: end.Y}, end}
	}
}

// firstCrossing returns the index of the first path segment that crosses an
// obstacle, or -1 when the path is clear.
func firstCrossing(path []model.Point, obstacles []model.Geometry) (int, model.Geometry) {
	for i := 0; i < len(path)-1; i++ {
		for _, obstacle := range obstacles {
			if crossesSegment(path[i], path[i+1], obstacle) {
				return i, obstacle
			}
		}
	}
	return -1, model.Geometry{}
}

// crossesSegment determines if an axis aligned segment runs through the
// interior of a rectangle. Touching an edge does not count as crossing.
func crossesSegment(a, b model.Point, g model.Geometry) bool {
	if a.Y == b.Y {
		if a.Y <= g.Y || a.Y >= g.Bottom() {
			return false
		}
		lo, hi := math.Min(a.X, b.X), math.Max(a.X, b.X)
		return lo < g.Right() && hi > g.X
	}
	if a.X == b.X {
		if a.X <= g.X || a.X >= g.Right() {
			return false
		}
		lo, hi := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
		return lo < g.Bottom() && hi > g.Y
	}
	return false
}

// repair replaces the crossing segment with a detour around the nearer edge of
// the obstacle, keeping the path orthogonal. When the segment ends within the
// span of the obstacle, the detour is extended past it, so that the path does
// not fold back into the obstacle.
func repair(path []model.Point, i int, g model.Geometry) []model.Point {
	a, b := path[i], path[i+1]

	var p1, p2, p3 model.Point
	if a.Y == b.Y {
		y := g.Y - routeGap
		if a.Y-g.Y > g.Bottom()-a.Y {
			y = g.Bottom() + routeGap
		}

		x := b.X
		if b.X > g.X && b.X < g.Right() {
			if b.X >= a.X {
				x = g.Right() + routeGap
			} else {
				x = g.X - routeGap
			}
		}

		p1 = model.Point{X: a.X, Y: y}
		p2 = model.Point{X: x, Y: y}
		p3 = model.Point{X: x, Y: b.Y}
	} else if a.X == b.X {
		x := g.X - routeGap
		if a.X-g.X > g.Right()-a.X {
			x = g.Right() + routeGap
		}

		y := b.Y
		if b.Y > g.Y && b.Y < g.Bottom() {
			if b.Y >= a.Y {
				y = g.Bottom() + routeGap
			} else {
				y = g.Y - routeGap
			}
		}

		p1 = model.Point{X: x, Y: a.Y}
		p2 = model.Point{X: x, Y: y}
		p3 = model.Point{X: b.X, Y: y}
	} else {
		return nil
	}

	repaired := make([]model.Point, 0, len(path)+3)
	repaired = append(repaired, path[:i+1]...)
	repaired = append(repaired, p1, p2, p3)
	repaired = append(repaired, path[i+1:]...)
	return repaired
}

func relevantObstacles(doc *model.ProcessDocument, obstacleIds []string, flow *model.Flow) []model.Geometry {
	var obstacles []model.Geometry
	for _, id := range obstacleIds {
		if id == flow.SourceId || id == flow.TargetId {
			continue
		}
		if doc.IsAncestor(id, flow.SourceId) || doc.IsAncestor(id, flow.TargetId) {
			continue
		}
		if g := doc.Containers[id].Geometry; g != nil {
			obstacles = append(obstacles, *g)
		}
	}
	return obstacles
}

// routeLoop returns the fixed path of a self loop, leaving at the right side
// and entering at the top.
func routeLoop(g model.Geometry) []model.Point {
	return []model.Point{
		{X: g.Right(), Y: g.Y + g.Height/2},
		{X: g.Right() + loopOffset, Y: g.Y + g.Height/2},
		{X: g.Right() + loopOffset, Y: g.Y - loopOffset},
		{X: g.X + g.Width/2, Y: g.Y - loopOffset},
		{X: g.X + g.Width/2, Y: g.Y},
	}
}

// simplify removes duplicate waypoints and merges collinear segments.
func simplify(path []model.Point) []model.Point {
	simplified := make([]model.Point, 0, len(path))
	simplified = append(simplified, path[0])

	for i := 1; i < len(path); i++ {
		p := path[i]
		last := simplified[len(simplified)-1]
		if p == last {
			continue
		}

		if len(simplified) >= 2 {
			prev := simplified[len(simplified)-2]
			if (prev.X == last.X && last.X == p.X) || (prev.Y == last.Y && last.Y == p.Y) {
				simplified[len(simplified)-1] = p
				continue
			}
		}

		simplified = append(simplified, p)
	}

	return simplified
}

func connectorPoint(g model.Geometry, v side) model.Point {
	switch v {
	case sideTop:
		return model.Point{X: g.X + g.Width/2, Y: g.Y}
	case sideRight:
		return model.Point{X: g.Right(), Y: g.Y + g.Height/2}
	case sideBottom:
		return model.Point{X: g.X + g.Width/2, Y: g.Bottom()}
	default:
		return model.Point{X: g.X, Y: g.Y + g.Height/2}
	}
}

// sideOf returns the side of a rectangle centered at from that faces to.
func sideOf(from, to model.Point) side {
	dx := to.X - from.X
	dy := to.Y - from.Y

	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return sideRight
		}
		return sideLeft
	}
	if dy >= 0 {
		return sideBottom
	}
	return sideTop
}

// entrySides returns all sides of a rectangle centered at from, ordered by how
// well they face to. The first side equals sideOf(from, to).
func entrySides(from, to model.Point) []side {
	h := sideRight
	if to.X < from.X {
		h = sideLeft
	}
	v := sideBottom
	if to.Y < from.Y {
		v = sideTop
	}

	if math.Abs(to.X-from.X) >= math.Abs(to.Y-from.Y) {
		return []side{h, v, oppositeOf(h), oppositeOf(v)}
	}
	return []side{v, h, oppositeOf(v), oppositeOf(h)}
}

func oppositeOf(v side) side {
	switch v {
	case sideTop:
		return sideBottom
	case sideRight:
		return sideLeft
	case sideBottom:
		return sideTop
	default:
		return sideRight
	}
}

func geometryOf(doc *model.ProcessDocument, id string) *model.Geometry {
	if element := doc.Elements[id]; element != nil {
		return element.Geometry
	}
	if container := doc.Containers[id]; container != nil {
		return container.Geometry
	}
	return nil
}
