package cli

import (
	"fmt"

	"github.com/gclaussn/go-bpmn-diagram/diagram"
)

// directionValue is a custom flag value for a layout direction.
type directionValue diagram.Direction

func (v *directionValue) Set(s string) error {
	direction := diagram.MapDirection(s)
	if direction == 0 {
		return fmt.Errorf("invalid direction %s", s)
	}

	*v = directionValue(direction)
	return nil
}

func (v directionValue) String() string {
	return diagram.Direction(v).String()
}

func (v directionValue) Type() string {
	return "direction"
}

// layoutModeValue is a custom flag value for a layout mode.
type layoutModeValue diagram.LayoutMode

func (v *layoutModeValue) Set(s string) error {
	mode := diagram.MapLayoutMode(s)
	if mode == 0 {
		return fmt.Errorf("invalid layout mode %s", s)
	}

	*v = layoutModeValue(mode)
	return nil
}

func (v layoutModeValue) String() string {
	return diagram.LayoutMode(v).String()
}

func (v layoutModeValue) Type() string {
	return "layoutMode"
}
