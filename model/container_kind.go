package model

import "fmt"

// ContainerKind describes the different container kinds an element can be owned by.
type ContainerKind int

const (
	ContainerLane ContainerKind = iota + 1
	ContainerPool
	ContainerSubProcess
)

func MapContainerKind(s string) ContainerKind {
	switch s {
	case "LANE":
		return ContainerLane
	case "POOL":
		return ContainerPool
	case "SUB_PROCESS":
		return ContainerSubProcess
	default:
		return 0
	}
}

func (v ContainerKind) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ContainerKind) String() string {
	switch v {
	case ContainerLane:
		return "LANE"
	case ContainerPool:
		return "POOL"
	case ContainerSubProcess:
		return "SUB_PROCESS"
	default:
		return ""
	}
}

func (v *ContainerKind) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapContainerKind(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid container kind data %s", s)
	}
	return nil
}
