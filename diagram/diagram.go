package diagram

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gclaussn/go-bpmn-diagram/model"
	"github.com/gclaussn/go-bpmn-diagram/style"
)

// Convert reads BPMN XML and converts it into an editable diagram.
//
// The conversion parses and validates the BPMN XML, lays out pools, lanes and flow nodes,
// routes the flows between them and generates one cell per visible entity.
// Problems that do not prevent a conversion are collected as warnings - see [Result].
func Convert(bpmnXmlReader io.Reader, customizers ...func(*Options)) (*Result, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, Error{
			Type:   ErrorValidation,
			Title:  "failed to validate options",
			Detail: err.Error(),
		}
	}

	doc, warnings, err := model.New(bpmnXmlReader)
	if err != nil {
		return nil, Error{
			Type:   ErrorMalformedSource,
			Title:  "failed to parse BPMN XML",
			Detail: err.Error(),
		}
	}

	logger := options.Logger
	logger.Debug(
		"parsed BPMN document",
		"id", doc.Id,
		"elements", len(doc.ElementIds),
		"flows", len(doc.FlowIds),
		"containers", len(doc.ContainerIds),
		"geometry", doc.HasGeometry,
	)

	warnings = append(warnings, validateDocument(doc)...)

	mode := options.Mode
	if mode == LayoutAuto {
		if doc.HasGeometry {
			mode = LayoutPreserve
		} else {
			mode = LayoutCompute
		}
	} else if mode == LayoutPreserve && !doc.HasGeometry {
		warnings = append(warnings, model.Warning{
			Type:     model.WarningLayoutDegraded,
			Severity: model.SeverityInfo,
			Message:  "source provides no complete diagram interchange, so a layout is computed",
		})
		mode = LayoutCompute
	}

	if mode == LayoutPreserve {
		preserveLayout(doc)
		logger.Debug("preserved source layout", "pools", len(doc.Pools))
	} else {
		warnings = append(warnings, computeLayout(doc, options)...)
		logger.Debug("computed layout", "direction", options.Direction, "pools", len(doc.Pools))
	}

	warnings = append(warnings, routeFlows(doc, mode == LayoutPreserve)...)

	result := Result{
		Name:     doc.Name,
		Cells:    generateCells(doc, options, warnings),
		Warnings: warnings,
		Document: doc,
	}

	logger.Info("converted BPMN document", "name", result.Name, "cells", len(result.Cells), "warnings", len(result.Warnings))
	return &result, nil
}

// Validate parses and validates BPMN XML without converting it, returning all collected warnings.
func Validate(bpmnXmlReader io.Reader) ([]model.Warning, error) {
	doc, warnings, err := model.New(bpmnXmlReader)
	if err != nil {
		return nil, Error{
			Type:   ErrorMalformedSource,
			Title:  "failed to parse BPMN XML",
			Detail: err.Error(),
		}
	}

	return append(warnings, validateDocument(doc)...), nil
}

// Options are configuration options, used when converting BPMN XML into a diagram.
type Options struct {
	Direction     Direction      // Direction of a computed layout.
	Logger        *log.Logger    // Logger used during the conversion.
	Mode          LayoutMode     // Determines how cell geometry is obtained.
	Parallel      bool           // Enables concurrent layout of containers at the same nesting depth.
	StyleResolver style.Resolver // Resolves cell styles.
}

// NewOptions returns options with defaults, applied when a customizer leaves them unset.
func NewOptions() Options {
	return Options{
		Direction:     DirectionLeftRight,
		Logger:        log.NewWithOptions(io.Discard, log.Options{}),
		Mode:          LayoutAuto,
		StyleResolver: style.NewResolver(style.Default()),
	}
}

func (o Options) Validate() error {
	if o.Direction < DirectionBottomTop || o.Direction > DirectionTopBottom {
		return errors.New("direction must be one of BT, LR, RL or TB")
	}
	if o.Logger == nil {
		return errors.New("logger must not be nil")
	}
	if o.Mode < LayoutAuto || o.Mode > LayoutPreserve {
		return errors.New("layout mode must be one of AUTO, COMPUTE or PRESERVE")
	}
	if o.StyleResolver == nil {
		return errors.New("style resolver must not be nil")
	}

	return nil
}

type Error struct {
	Type   ErrorType
	Title  string
	Detail string
	Causes []ErrorCause
}

func (e Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s: %s", e.Type, e.Title, e.Detail))

	for _, cause := range e.Causes {
		sb.WriteRune('\n')
		sb.WriteString(cause.String())
	}

	return sb.String()
}

type ErrorType int

const (
	ErrorBug ErrorType = iota + 1
	ErrorMalformedSource
	ErrorValidation
)

func MapErrorType(s string) ErrorType {
	switch s {
	case "BUG":
		return ErrorBug
	case "MALFORMED_SOURCE":
		return ErrorMalformedSource
	case "VALIDATION":
		return ErrorValidation
	default:
		return 0
	}
}

func (v ErrorType) String() string {
	switch v {
	case ErrorBug:
		return "BUG"
	case ErrorMalformedSource:
		return "MALFORMED_SOURCE"
	case ErrorValidation:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}

// A cause of a malformed source or validation [Error] like an unresolvable sequence flow.
type ErrorCause struct {
	Pointer string // A pointer, locating the invalid BPMN element or sequence flow.
	Type    string // Type indicator.
	Detail  string // Human-readable, detailed information about the cause.
}

func (e ErrorCause) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Pointer, e.Detail)
}
