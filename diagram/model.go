package diagram

import (
	"fmt"

	"github.com/gclaussn/go-bpmn-diagram/model"
)

type CellType int

const (
	CellEdge CellType = iota + 1
	CellLabel
	CellShape
)

func MapCellType(s string) CellType {
	switch s {
	case "EDGE":
		return CellEdge
	case "LABEL":
		return CellLabel
	case "SHAPE":
		return CellShape
	default:
		return 0
	}
}

func (v CellType) String() string {
	switch v {
	case CellEdge:
		return "EDGE"
	case CellLabel:
		return "LABEL"
	case CellShape:
		return "SHAPE"
	default:
		return "UNKNOWN"
	}
}

func (v CellType) MarshalJSON() ([]byte, error) {
	if v == 0 {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", v)), nil
}

func (v *CellType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 3 {
		return fmt.Errorf("invalid cell type data %s", s)
	}

	mapped := MapCellType(s[1 : len(s)-1])
	if mapped == 0 {
		return fmt.Errorf("invalid cell type data %s", s)
	}

	*v = mapped
	return nil
}

// Direction determines where the flow of a computed layout is heading.
type Direction int

const (
	DirectionBottomTop Direction = iota + 1
	DirectionLeftRight
	DirectionRightLeft
	DirectionTopBottom
)

func MapDirection(s string) Direction {
	switch s {
	case "BT":
		return DirectionBottomTop
	case "LR":
		return DirectionLeftRight
	case "RL":
		return DirectionRightLeft
	case "TB":
		return DirectionTopBottom
	default:
		return 0
	}
}

// IsHorizontal determines if the primary axis of the direction is the x-axis.
func (v Direction) IsHorizontal() bool {
	return v == DirectionLeftRight || v == DirectionRightLeft
}

// IsReversed determines if the flow is heading towards the origin of the primary axis.
func (v Direction) IsReversed() bool {
	return v == DirectionBottomTop || v == DirectionRightLeft
}

func (v Direction) String() string {
	switch v {
	case DirectionBottomTop:
		return "BT"
	case DirectionLeftRight:
		return "LR"
	case DirectionRightLeft:
		return "RL"
	case DirectionTopBottom:
		return "TB"
	default:
		return "UNKNOWN"
	}
}

func (v Direction) MarshalJSON() ([]byte, error) {
	if v == 0 {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", v)), nil
}

func (v *Direction) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 3 {
		return fmt.Errorf("invalid direction data %s", s)
	}

	mapped := MapDirection(s[1 : len(s)-1])
	if mapped == 0 {
		return fmt.Errorf("invalid direction data %s", s)
	}

	*v = mapped
	return nil
}

// LayoutMode determines how the geometry of diagram cells is obtained.
type LayoutMode int

const (
	// LayoutAuto preserves source geometry when the BPMN XML provides a complete diagram interchange, otherwise a layout is computed.
	LayoutAuto LayoutMode = iota + 1
	// LayoutCompute always computes a new layout, regardless of existing source geometry.
	LayoutCompute
	// LayoutPreserve preserves source geometry and falls back to a computed layout when no complete diagram interchange exists.
	LayoutPreserve
)

func MapLayoutMode(s string) LayoutMode {
	switch s {
	case "AUTO":
		return LayoutAuto
	case "COMPUTE":
		return LayoutCompute
	case "PRESERVE":
		return LayoutPreserve
	default:
		return 0
	}
}

func (v LayoutMode) String() string {
	switch v {
	case LayoutAuto:
		return "AUTO"
	case LayoutCompute:
		return "COMPUTE"
	case LayoutPreserve:
		return "PRESERVE"
	default:
		return "UNKNOWN"
	}
}

func (v LayoutMode) MarshalJSON() ([]byte, error) {
	if v == 0 {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", v)), nil
}

func (v *LayoutMode) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 3 {
		return fmt.Errorf("invalid layout mode data %s", s)
	}

	mapped := MapLayoutMode(s[1 : len(s)-1])
	if mapped == 0 {
		return fmt.Errorf("invalid layout mode data %s", s)
	}

	*v = mapped
	return nil
}

// A Cell is one node of an editable diagram, either a shape, an edge or a label that is attached to an edge.
type Cell struct {
	Id            string              `json:"id"`                      // Unique ID, derived from the ID of the underlying BPMN element.
	Type          CellType            `json:"type"`                    // Cell type.
	ParentId      string              `json:"parentId,omitempty"`      // ID of the parent cell, empty for top-level cells.
	Value         string              `json:"value,omitempty"`         // Display value, usually the name of the underlying BPMN element.
	Style         string              `json:"style,omitempty"`         // Style, resolved from a style theme.
	ElementKind   model.ElementKind   `json:"elementKind,omitempty"`   // Kind of the underlying flow node, if any.
	ContainerKind model.ContainerKind `json:"containerKind,omitempty"` // Kind of the underlying container, if any.
	FlowKind      model.FlowKind      `json:"flowKind,omitempty"`      // Kind of the underlying flow, if any.
	Geometry      *model.Geometry     `json:"geometry,omitempty"`      // Absolute geometry of a shape or label cell.
	SourceId      string              `json:"sourceId,omitempty"`      // ID of the source cell, set for edge cells.
	TargetId      string              `json:"targetId,omitempty"`      // ID of the target cell, set for edge cells.
	Points        []model.Point       `json:"points,omitempty"`        // Waypoints of an edge cell.
}

func (v Cell) String() string {
	return fmt.Sprintf("cell %s", v.Id)
}

// A Result is the outcome of a diagram conversion.
type Result struct {
	Name     string                 `json:"name"`               // Diagram name, derived from the BPMN definitions or process.
	Cells    []Cell                 `json:"cells"`              // Cells, ordered parents before children and shapes before edges.
	Warnings []model.Warning        `json:"warnings,omitempty"` // Warnings, collected during parsing, validation, layout and routing.
	Document *model.ProcessDocument `json:"-"`                  // Underlying document.
}

// CellById returns the cell with the given ID or false, if no such cell exists.
func (r *Result) CellById(id string) (Cell, bool) {
	for _, cell := range r.Cells {
		if cell.Id == id {
			return cell, true
		}
	}
	return Cell{}, false
}

// CellsByParent returns all cells that designate the given cell ID as parent, preserving the overall cell order.
func (r *Result) CellsByParent(parentId string) []Cell {
	var cells []Cell
	for _, cell := range r.Cells {
		if cell.ParentId == parentId {
			cells = append(cells, cell)
		}
	}
	return cells
}

// MaxSeverity returns the highest severity among all warnings, or 0 when there is no warning.
func (r *Result) MaxSeverity() model.Severity {
	var maxSeverity model.Severity
	for _, warning := range r.Warnings {
		if warning.Severity > maxSeverity {
			maxSeverity = warning.Severity
		}
	}
	return maxSeverity
}

func (v Result) String() string {
	return fmt.Sprintf("diagram %s", v.Name)
}
