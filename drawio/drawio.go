// Package drawio serializes conversion results into draw.io XML documents.
//
// The produced document can be opened and edited with the draw.io editor or
// embedded via its viewer. Cell ids are taken over from the conversion result,
// so that a diagram cell can be traced back to its BPMN element.
package drawio

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"
	"github.com/gclaussn/go-bpmn-diagram/diagram"
	"github.com/gclaussn/go-bpmn-diagram/model"
	"github.com/google/uuid"
)

type Options struct {
	DiagramId string // Id of the diagram node. If empty, a random UUID is generated.
	Indent    int    // Number of spaces, used to indent the XML document.
}

func NewOptions() Options {
	return Options{Indent: 2}
}

func (o Options) Validate() error {
	if o.Indent < 0 {
		return errors.New("indent must not be negative")
	}
	return nil
}

// Marshal serializes a conversion result as draw.io XML document.
func Marshal(result *diagram.Result, customizers ...func(*Options)) ([]byte, error) {
	doc, err := newDocument(result, customizers)
	if err != nil {
		return nil, err
	}
	return doc.WriteToBytes()
}

// Write serializes a conversion result as draw.io XML document to a writer.
func Write(w io.Writer, result *diagram.Result, customizers ...func(*Options)) error {
	doc, err := newDocument(result, customizers)
	if err != nil {
		return err
	}

	_, err = doc.WriteTo(w)
	return err
}

func newDocument(result *diagram.Result, customizers []func(*Options)) (*etree.Document, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %v", err)
	}
	if result == nil {
		return nil, errors.New("result is nil")
	}

	diagramId := options.DiagramId
	if diagramId == "" {
		diagramId = uuid.NewString()
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	mxfile := doc.CreateElement("mxfile")
	mxfile.CreateAttr("host", "go-bpmn-diagram")
	mxfile.CreateAttr("type", "device")

	diagramNode := mxfile.CreateElement("diagram")
	diagramNode.CreateAttr("id", diagramId)
	diagramNode.CreateAttr("name", result.Name)

	mxGraphModel := diagramNode.CreateElement("mxGraphModel")
	mxGraphModel.CreateAttr("grid", "1")
	mxGraphModel.CreateAttr("gridSize", "10")
	mxGraphModel.CreateAttr("guides", "1")
	mxGraphModel.CreateAttr("tooltips", "1")
	mxGraphModel.CreateAttr("connect", "1")
	mxGraphModel.CreateAttr("arrows", "1")
	mxGraphModel.CreateAttr("fold", "1")
	mxGraphModel.CreateAttr("page", "1")
	mxGraphModel.CreateAttr("pageScale", "1")
	mxGraphModel.CreateAttr("math", "0")
	mxGraphModel.CreateAttr("shadow", "0")

	root := mxGraphModel.CreateElement("root")

	// two reserved cells, the model root and the default layer
	rootCell := root.CreateElement("mxCell")
	rootCell.CreateAttr("id", "0")

	layerCell := root.CreateElement("mxCell")
	layerCell.CreateAttr("id", "1")
	layerCell.CreateAttr("parent", "0")

	// absolute geometry per shape, needed to convert children to parent-relative coordinates
	absolute := make(map[string]*model.Geometry, len(result.Cells))
	for i := range result.Cells {
		cell := &result.Cells[i]
		if cell.Type == diagram.CellShape && cell.Geometry != nil {
			absolute[cell.Id] = cell.Geometry
		}
	}

	for i := range result.Cells {
		cell := &result.Cells[i]

		mxCell := root.CreateElement("mxCell")
		mxCell.CreateAttr("id", cell.Id)
		if cell.Value != "" {
			mxCell.CreateAttr("value", cell.Value)
		}
		mxCell.CreateAttr("style", cell.Style)

		switch cell.Type {
		case diagram.CellShape:
			parentId := cell.ParentId
			if parentId == "" {
				parentId = "1"
			}

			mxCell.CreateAttr("vertex", "1")
			mxCell.CreateAttr("parent", parentId)

			if cell.Geometry == nil {
				return nil, fmt.Errorf("shape cell %s has no geometry", cell.Id)
			}

			g := *cell.Geometry
			if parent, ok := absolute[cell.ParentId]; ok {
				g.X -= parent.X
				g.Y -= parent.Y
			}

			mxGeometry := mxCell.CreateElement("mxGeometry")
			mxGeometry.CreateAttr("x", formatCoord(g.X))
			mxGeometry.CreateAttr("y", formatCoord(g.Y))
			mxGeometry.CreateAttr("width", formatCoord(g.Width))
			mxGeometry.CreateAttr("height", formatCoord(g.Height))
			mxGeometry.CreateAttr("as", "geometry")
		case diagram.CellEdge:
			parentId := cell.ParentId
			if parentId == "" {
				parentId = "1"
			}

			mxCell.CreateAttr("edge", "1")
			mxCell.CreateAttr("parent", parentId)
			mxCell.CreateAttr("source", cell.SourceId)
			mxCell.CreateAttr("target", cell.TargetId)

			mxGeometry := mxCell.CreateElement("mxGeometry")
			mxGeometry.CreateAttr("relative", "1")
			mxGeometry.CreateAttr("as", "geometry")

			// intermediate waypoints only, the endpoints follow from source and target
			if len(cell.Points) > 2 {
				var origin model.Point
				if parent, ok := absolute[cell.ParentId]; ok {
					origin = model.Point{X: parent.X, Y: parent.Y}
				}

				array := mxGeometry.CreateElement("Array")
				array.CreateAttr("as", "points")

				for _, point := range cell.Points[1 : len(cell.Points)-1] {
					mxPoint := array.CreateElement("mxPoint")
					mxPoint.CreateAttr("x", formatCoord(point.X-origin.X))
					mxPoint.CreateAttr("y", formatCoord(point.Y-origin.Y))
				}
			}
		case diagram.CellLabel:
			mxCell.CreateAttr("vertex", "1")
			mxCell.CreateAttr("connectable", "0")
			mxCell.CreateAttr("parent", cell.ParentId)

			// placed relative to the owning edge, at its midpoint
			mxGeometry := mxCell.CreateElement("mxGeometry")
			mxGeometry.CreateAttr("x", "0")
			mxGeometry.CreateAttr("relative", "1")
			mxGeometry.CreateAttr("as", "geometry")

			offset := mxGeometry.CreateElement("mxPoint")
			offset.CreateAttr("as", "offset")
		default:
			return nil, fmt.Errorf("cell %s has an unknown type", cell.Id)
		}
	}

	if options.Indent == 0 {
		doc.Indent(etree.NoIndent)
	} else {
		doc.Indent(options.Indent)
	}

	return doc, nil
}

// formatCoord renders a coordinate without a trailing zero fraction for integral values.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
