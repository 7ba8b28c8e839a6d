package diagram

import (
	"math"

	"github.com/gclaussn/go-bpmn-diagram/model"
)

const (
	labelWidth  = 80
	labelHeight = 20
)

// generateCells produces one cell per pool, lane, sub process, element and flow.
//
// Vertices come first, parents before children, so that a consumer can resolve
// parent references in one pass. Edges follow in document order. Labels come
// last, one per flow that carries a condition.
func generateCells(doc *model.ProcessDocument, options Options, warnings []model.Warning) []Cell {
	resolver := options.StyleResolver
	horizontal := options.Direction.IsHorizontal()

	flagged := map[string]bool{}
	for _, warning := range warnings {
		if warning.Severity >= model.SeverityWarning && warning.ElementId != "" {
			flagged[warning.ElementId] = true
		}
	}

	var cells []Cell

	var emit func(containerId string, parentId string)
	emit = func(containerId string, parentId string) {
		container := doc.Containers[containerId]

		containerStyle := resolver.ContainerStyle(container.Kind, horizontal)
		if flagged[container.Id] {
			containerStyle = resolver.WarnStyle(containerStyle)
		}

		cells = append(cells, Cell{
			Id:            container.Id,
			Type:          CellShape,
			ParentId:      parentId,
			Value:         container.Name,
			Style:         containerStyle,
			ContainerKind: container.Kind,
			Geometry:      container.Geometry,
		})

		for _, childId := range container.ChildIds {
			if doc.Containers[childId] != nil {
				emit(childId, container.Id)
				continue
			}

			element := doc.Elements[childId]
			if element == nil {
				continue
			}

			elementStyle := resolver.ShapeStyle(element.Kind)
			if flagged[element.Id] {
				elementStyle = resolver.WarnStyle(elementStyle)
			}

			cells = append(cells, Cell{
				Id:          element.Id,
				Type:        CellShape,
				ParentId:    container.Id,
				Value:       element.Name,
				Style:       elementStyle,
				ElementKind: element.Kind,
				Geometry:    element.Geometry,
			})
		}
	}

	for _, poolId := range doc.Pools {
		emit(poolId, "")
	}

	var labels []Cell
	for _, flowId := range doc.FlowIds {
		flow := doc.Flows[flowId]

		edgeStyle := resolver.EdgeStyle(flow.Kind)
		if flagged[flow.Id] {
			edgeStyle = resolver.WarnStyle(edgeStyle)
		}

		// message flows between pools have no common ancestor and stay at the root
		var edgeParentId string
		if ancestor := doc.CommonAncestor(flow.SourceId, flow.TargetId); ancestor != nil {
			edgeParentId = ancestor.Id
		}

		cells = append(cells, Cell{
			Id:       flow.Id,
			Type:     CellEdge,
			ParentId: edgeParentId,
			Value:    flow.Name,
			Style:    edgeStyle,
			FlowKind: flow.Kind,
			SourceId: flow.SourceId,
			TargetId: flow.TargetId,
			Points:   flow.Waypoints,
		})

		if flow.Condition != "" {
			mid := pathMidpoint(flow.Waypoints)
			labels = append(labels, Cell{
				Id:       flow.Id + "_label",
				Type:     CellLabel,
				ParentId: flow.Id,
				Value:    flow.Condition,
				Style:    resolver.LabelStyle(),
				Geometry: &model.Geometry{
					X:      mid.X - labelWidth/2,
					Y:      mid.Y - labelHeight/2,
					Width:  labelWidth,
					Height: labelHeight,
				},
			})
		}
	}

	return append(cells, labels...)
}

// pathMidpoint returns the point at half of the path length.
func pathMidpoint(points []model.Point) model.Point {
	if len(points) == 0 {
		return model.Point{}
	}

	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += math.Hypot(points[i+1].X-points[i].X, points[i+1].Y-points[i].Y)
	}
	if total == 0 {
		return points[0]
	}

	remaining := total / 2
	for i := 0; i < len(points)-1; i++ {
		d := math.Hypot(points[i+1].X-points[i].X, points[i+1].Y-points[i].Y)
		if d >= remaining && d > 0 {
			t := remaining / d
			return model.Point{
				X: points[i].X + (points[i+1].X-points[i].X)*t,
				Y: points[i].Y + (points[i+1].Y-points[i].Y)*t,
			}
		}
		remaining -= d
	}

	return points[len(points)-1]
}
