package style

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gclaussn/go-bpmn-diagram/model"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// New returns a built-in theme by name.
func New(name string) (Theme, error) {
	switch name {
	case "default":
		return Default(), nil
	case "mono":
		return Mono(), nil
	default:
		return Theme{}, fmt.Errorf("no built-in theme with name %s", name)
	}
}

// Load reads a theme from a TOML file.
// Omitted keys remain at their default theme value.
func Load(fileName string) (Theme, error) {
	theme := Default()
	if _, err := toml.DecodeFile(fileName, &theme); err != nil {
		return Theme{}, fmt.Errorf("failed to decode theme file %s: %v", fileName, err)
	}
	if err := theme.Validate(); err != nil {
		return Theme{}, fmt.Errorf("failed to validate theme file %s: %v", fileName, err)
	}
	return theme, nil
}

// Names returns the names of all built-in themes.
func Names() []string {
	return []string{"default", "mono"}
}

// Default returns the default theme, using the common editor palette.
func Default() Theme {
	return Theme{
		Name:            "default",
		ContainerFill:   "#ffffff",
		ContainerStroke: "#000000",
		EdgeStroke:      "#000000",
		EventFill:       "#d5e8d4",
		EventStroke:     "#82b366",
		FontColor:       "#000000",
		FontFamily:      "Helvetica",
		FontSize:        12,
		GatewayFill:     "#ffe6cc",
		GatewayStroke:   "#d79b00",
		TaskFill:        "#dae8fc",
		TaskStroke:      "#6c8ebf",
		WarnStroke:      "#b85450",
	}
}

// Mono returns a monochrome theme.
// Since the warn stroke is black as well, flagged cells are only recognizable by their dashed outline.
func Mono() Theme {
	return Theme{
		Name:            "mono",
		ContainerFill:   "#ffffff",
		ContainerStroke: "#000000",
		EdgeStroke:      "#000000",
		EventFill:       "#ffffff",
		EventStroke:     "#000000",
		FontColor:       "#000000",
		FontFamily:      "Helvetica",
		FontSize:        12,
		GatewayFill:     "#ffffff",
		GatewayStroke:   "#000000",
		TaskFill:        "#ffffff",
		TaskStroke:      "#000000",
		WarnStroke:      "#000000",
	}
}

// A Theme defines the colors and fonts that a resolver applies to diagram cells.
type Theme struct {
	Name            string `toml:"name"`             // Theme name.
	ContainerFill   string `toml:"container_fill"`   // Fill color of pools, lanes and sub processes.
	ContainerStroke string `toml:"container_stroke"` // Stroke color of pools, lanes and sub processes.
	EdgeStroke      string `toml:"edge_stroke"`      // Stroke color of flow edges.
	EventFill       string `toml:"event_fill"`       // Fill color of events.
	EventStroke     string `toml:"event_stroke"`     // Stroke color of events.
	FontColor       string `toml:"font_color"`       // Font color of all cells.
	FontFamily      string `toml:"font_family"`      // Font family of all cells.
	FontSize        int    `toml:"font_size"`        // Font size of all cells.
	GatewayFill     string `toml:"gateway_fill"`     // Fill color of gateways.
	GatewayStroke   string `toml:"gateway_stroke"`   // Stroke color of gateways.
	TaskFill        string `toml:"task_fill"`        // Fill color of tasks and activities.
	TaskStroke      string `toml:"task_stroke"`      // Stroke color of tasks and activities.
	WarnStroke      string `toml:"warn_stroke"`      // Stroke color of cells that caused a warning.
}

func (t Theme) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("theme name must not be empty or blank")
	}
	if strings.TrimSpace(t.FontFamily) == "" {
		return errors.New("font family must not be empty or blank")
	}
	if t.FontSize < 8 || t.FontSize > 72 {
		return errors.New("font size must be between 8 and 72")
	}

	colors := []struct {
		name  string
		value string
	}{
		{"container_fill", t.ContainerFill},
		{"container_stroke", t.ContainerStroke},
		{"edge_stroke", t.EdgeStroke},
		{"event_fill", t.EventFill},
		{"event_stroke", t.EventStroke},
		{"font_color", t.FontColor},
		{"gateway_fill", t.GatewayFill},
		{"gateway_stroke", t.GatewayStroke},
		{"task_fill", t.TaskFill},
		{"task_stroke", t.TaskStroke},
		{"warn_stroke", t.WarnStroke},
	}

	for _, color := range colors {
		if !hexColorPattern.MatchString(color.value) {
			return fmt.Errorf("%s must be a hex color like #6c8ebf, but is %q", color.name, color.value)
		}
	}

	return nil
}

func (t Theme) String() string {
	return fmt.Sprintf("theme %s", t.Name)
}

// A Resolver maps BPMN kinds to concrete cell styles.
type Resolver interface {
	// ContainerStyle returns the style of a pool, lane or sub process shape.
	// horizontal determines if the label band is placed at the left side or at the top.
	ContainerStyle(kind model.ContainerKind, horizontal bool) string

	// EdgeStyle returns the style of a flow edge.
	EdgeStyle(kind model.FlowKind) string

	// LabelStyle returns the style of a label that is attached to an edge.
	LabelStyle() string

	// ShapeStyle returns the style of a flow node shape.
	ShapeStyle(kind model.ElementKind) string

	// WarnStyle decorates a style to make a cell that caused a warning recognizable.
	WarnStyle(style string) string
}

// NewResolver creates a resolver that applies the given theme.
func NewResolver(theme Theme) Resolver {
	return resolver{theme}
}

type resolver struct {
	theme Theme
}

func (r resolver) ContainerStyle(kind model.ContainerKind, horizontal bool) string {
	var sb strings.Builder

	switch kind {
	case model.ContainerSubProcess:
		sb.WriteString("rounded=1;whiteSpace=wrap;html=1;verticalAlign=top;container=1;collapsible=0;")
	default:
		// swimlane with horizontal=0 rotates the label into a band at the left side
		if horizontal {
			sb.WriteString("swimlane;html=1;horizontal=0;startSize=30;")
		} else {
			sb.WriteString("swimlane;html=1;horizontal=1;startSize=30;")
		}
		if kind == model.ContainerLane {
			sb.WriteString("swimlaneLine=0;")
		}
	}

	sb.WriteString(fmt.Sprintf("fillColor=%s;strokeColor=%s;", r.theme.ContainerFill, r.theme.ContainerStroke))
	r.writeFont(&sb)
	return sb.String()
}

func (r resolver) EdgeStyle(kind model.FlowKind) string {
	var sb strings.Builder
	sb.WriteString("edgeStyle=orthogonalEdgeStyle;rounded=0;orthogonalLoop=1;jettySize=auto;html=1;")

	switch kind {
	case model.FlowAssociation:
		sb.WriteString("dashed=1;endArrow=none;")
	case model.FlowConditional:
		sb.WriteString("startArrow=diamondThin;startFill=0;endArrow=block;endFill=1;")
	case model.FlowDefault:
		sb.WriteString("startArrow=dash;startFill=0;endArrow=block;endFill=1;")
	case model.FlowMessage:
		sb.WriteString("dashed=1;startArrow=oval;startFill=0;endArrow=block;endFill=0;")
	default:
		sb.WriteString("endArrow=block;endFill=1;")
	}

	sb.WriteString(fmt.Sprintf("strokeColor=%s;", r.theme.EdgeStroke))
	r.writeFont(&sb)
	return sb.String()
}

func (r resolver) LabelStyle() string {
	var sb strings.Builder
	sb.WriteString("text;html=1;align=center;verticalAlign=middle;whiteSpace=wrap;rounded=0;fillColor=none;strokeColor=none;")
	r.writeFont(&sb)
	return sb.String()
}

func (r resolver) ShapeStyle(kind model.ElementKind) string {
	var sb strings.Builder

	switch {
	case kind.IsTask():
		sb.WriteString("rounded=1;whiteSpace=wrap;html=1;")
		if kind == model.ElementCallActivity {
			sb.WriteString("strokeWidth=2;")
		}
		sb.WriteString(fmt.Sprintf("fillColor=%s;strokeColor=%s;", r.theme.TaskFill, r.theme.TaskStroke))
	case kind.IsGateway():
		sb.WriteString("rhombus;whiteSpace=wrap;html=1;")
		sb.WriteString(fmt.Sprintf("fillColor=%s;strokeColor=%s;", r.theme.GatewayFill, r.theme.GatewayStroke))
	case kind.IsEvent():
		sb.WriteString("ellipse;whiteSpace=wrap;html=1;aspect=fixed;")
		if kind.IsEndEvent() {
			sb.WriteString("strokeWidth=3;")
		} else if !kind.IsStartEvent() {
			// intermediate and boundary events carry a double outline in BPMN, approximated by a thicker stroke
			sb.WriteString("strokeWidth=2;")
		}
		sb.WriteString(fmt.Sprintf("fillColor=%s;strokeColor=%s;", r.theme.EventFill, r.theme.EventStroke))
	case kind == model.ElementTextAnnotation:
		sb.WriteString("shape=partialRectangle;whiteSpace=wrap;html=1;right=0;align=left;spacingLeft=4;fillColor=none;")
		sb.WriteString(fmt.Sprintf("strokeColor=%s;", r.theme.EdgeStroke))
	default:
		sb.WriteString("whiteSpace=wrap;html=1;dashed=1;")
		sb.WriteString(fmt.Sprintf("fillColor=%s;strokeColor=%s;", r.theme.TaskFill, r.theme.TaskStroke))
	}

	r.writeFont(&sb)
	return sb.String()
}

func (r resolver) WarnStyle(style string) string {
	// a later strokeColor takes precedence over an earlier one
	return style + fmt.Sprintf("strokeColor=%s;dashed=1;", r.theme.WarnStroke)
}

func (r resolver) writeFont(sb *strings.Builder) {
	sb.WriteString(fmt.Sprintf("fontFamily=%s;fontSize=%d;fontColor=%s;", r.theme.FontFamily, r.theme.FontSize, r.theme.FontColor))
}
