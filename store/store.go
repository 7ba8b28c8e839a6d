// Package store provides persistence for converted diagrams.
//
// Two implementations exist: store/mem, keeping diagrams in memory, and
// store/pg, using a PostgreSQL database.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no diagram with the requested id exists.
var ErrNotFound = errors.New("diagram not found")

// A Store persists converted diagrams.
type Store interface {
	// CreateDiagram inserts a new diagram and returns it with id and creation time set.
	CreateDiagram(ctx context.Context, cmd CreateDiagramCmd) (Diagram, error)

	// GetDiagram returns the diagram with the given id, or ErrNotFound.
	GetDiagram(ctx context.Context, id string) (Diagram, error)

	// ListDiagrams returns diagrams that match the criteria, newest first.
	// The source and output XML of the returned diagrams is omitted.
	ListDiagrams(ctx context.Context, criteria DiagramCriteria) ([]Diagram, error)

	// DeleteDiagram removes the diagram with the given id, or returns ErrNotFound.
	DeleteDiagram(ctx context.Context, id string) error

	// Shutdown releases all resources.
	Shutdown()
}

type CreateDiagramCmd struct {
	Name         string // Diagram name.
	SourceXml    string // BPMN XML, the diagram was converted from.
	OutputXml    string // Resulting draw.io XML document.
	WarningCount int    // Number of warnings, recorded during the conversion.
}

func (cmd CreateDiagramCmd) Validate() error {
	if strings.TrimSpace(cmd.Name) == "" {
		return errors.New("name must not be empty or blank")
	}
	if cmd.OutputXml == "" {
		return errors.New("output XML must not be empty")
	}
	if cmd.WarningCount < 0 {
		return errors.New("warning count must not be negative")
	}
	return nil
}

type Diagram struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	SourceXml    string    `json:"sourceXml,omitempty"`
	OutputXml    string    `json:"outputXml,omitempty"`
	WarningCount int       `json:"warningCount"`
}

func (d Diagram) String() string {
	return fmt.Sprintf("diagram %s", d.Id)
}

// DiagramCriteria restricts the diagrams returned by a listing.
type DiagramCriteria struct {
	Name   string // Filters diagrams that contain the value in their name, ignoring case.
	Limit  int    // Maximum number of diagrams to return. If not positive, a store specific default applies.
	Offset int    // Number of diagrams to skip.
}
