package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gclaussn/go-bpmn-diagram/diagram"
	"github.com/gclaussn/go-bpmn-diagram/store"
	"github.com/gclaussn/go-bpmn-diagram/style"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0] // e.g. `json:"direction,omitempty"` -> direction
	})

	validate.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		return diagram.MapDirection(v) != 0
	})
	validate.RegisterValidation("layout_mode", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		return diagram.MapLayoutMode(v) != 0
	})
	validate.RegisterValidation("theme", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if v == "" {
			return true
		}
		_, err := style.New(v)
		return err == nil
	})

	return validate
}

// ConvertDiagramCmd is the JSON request body of a diagram conversion.
type ConvertDiagramCmd struct {
	BpmnXml   string `json:"bpmnXml" validate:"required"`              // BPMN XML to convert.
	Direction string `json:"direction,omitempty" validate:"direction"` // Direction of a computed layout: BT, LR, RL or TB.
	Mode      string `json:"mode,omitempty" validate:"layout_mode"`    // Layout mode: AUTO, COMPUTE or PRESERVE.
	Theme     string `json:"theme,omitempty" validate:"theme"`         // Name of a built-in style theme.
}

// CreateDiagramCmd is the JSON request body, used to convert BPMN XML and store the resulting diagram.
type CreateDiagramCmd struct {
	Name      string `json:"name,omitempty" validate:"max=120"`        // Diagram name - when empty, the name is derived from the BPMN XML.
	BpmnXml   string `json:"bpmnXml" validate:"required"`              // BPMN XML to convert.
	Direction string `json:"direction,omitempty" validate:"direction"` // Direction of a computed layout: BT, LR, RL or TB.
	Mode      string `json:"mode,omitempty" validate:"layout_mode"`    // Layout mode: AUTO, COMPUTE or PRESERVE.
	Theme     string `json:"theme,omitempty" validate:"theme"`         // Name of a built-in style theme.
}

// ValidateDiagramCmd is the JSON request body of a BPMN XML validation.
type ValidateDiagramCmd struct {
	BpmnXml string `json:"bpmnXml" validate:"required"` // BPMN XML to validate.
}

// decodeConvertDiagramCmd decodes the request body into cmd.
// A request body of media type text/xml or application/xml is taken as BPMN XML directly,
// while conversion options are taken from query parameters.
func decodeConvertDiagramCmd(w http.ResponseWriter, r *http.Request, cmd *ConvertDiagramCmd) error {
	if !isXmlMediaType(r) {
		return decodeJSONRequestBody(w, r, cmd)
	}

	bpmnXml, err := readXmlRequestBody(w, r)
	if err != nil {
		return err
	}

	query := r.URL.Query()

	cmd.BpmnXml = bpmnXml
	cmd.Direction = query.Get(QueryDirection)
	cmd.Mode = query.Get(QueryMode)
	cmd.Theme = query.Get(QueryTheme)

	return validateConversionQuery(cmd.Direction, cmd.Mode, cmd.Theme)
}

// decodeCreateDiagramCmd decodes the request body into cmd, analogous to decodeConvertDiagramCmd.
// For an XML request body, the diagram name is taken from the name query parameter.
func decodeCreateDiagramCmd(w http.ResponseWriter, r *http.Request, cmd *CreateDiagramCmd) error {
	if !isXmlMediaType(r) {
		return decodeJSONRequestBody(w, r, cmd)
	}

	bpmnXml, err := readXmlRequestBody(w, r)
	if err != nil {
		return err
	}

	query := r.URL.Query()

	cmd.Name = query.Get(QueryName)
	cmd.BpmnXml = bpmnXml
	cmd.Direction = query.Get(QueryDirection)
	cmd.Mode = query.Get(QueryMode)
	cmd.Theme = query.Get(QueryTheme)

	return validateConversionQuery(cmd.Direction, cmd.Mode, cmd.Theme)
}

func decodeValidateDiagramCmd(w http.ResponseWriter, r *http.Request, cmd *ValidateDiagramCmd) error {
	if !isXmlMediaType(r) {
		return decodeJSONRequestBody(w, r, cmd)
	}

	bpmnXml, err := readXmlRequestBody(w, r)
	if err != nil {
		return err
	}

	cmd.BpmnXml = bpmnXml
	return nil
}

// decodeJSONRequestBody decodes the request body using v and validates it.
// Media type, request body or validation related errors are returned as a Problem.
//
// inspired by https://www.alexedwards.net/blog/how-to-properly-parse-a-json-request-body
func decodeJSONRequestBody(w http.ResponseWriter, r *http.Request, v any) error {
	if contentType := r.Header.Get(HeaderContentType); contentType != "" {
		mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if mediaType != ContentTypeJson {
			return Problem{
				Status: http.StatusUnsupportedMediaType,
				Type:   ProblemTypeHttpMediaType,
				Title:  "unsupported media type",
				Detail: fmt.Sprintf("media type %s is not supported", mediaType),
			}
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576) // 1mb = 1024 * 1024

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&v); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError

		problem := Problem{
			Status: http.StatusBadRequest,
			Type:   ProblemTypeHttpRequestBody,
			Title:  "invalid request body",
		}

		switch {
		case errors.As(err, &syntaxError):
			problem.Detail = fmt.Sprintf("malformed JSON at position %d", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			problem.Detail = "unexpected end of JSON"
		case errors.As(err, &unmarshalTypeError):
			problem.Detail = fmt.Sprintf("JSON field %s has an invalid value at position %d", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			problem.Detail = fmt.Sprintf("unknown JSON field %s", fieldName)
		case errors.Is(err, io.EOF):
			problem.Detail = "request body is empty"
		case err.Error() == "http: request body too large":
			problem.Detail = "request body size must not exceed 1MB"
		default:
			problem.Detail = fmt.Sprintf("failed to unmarshal JSON: %v", err)
		}

		return problem
	}

	if err := validate.Struct(v); err != nil {
		errors := make([]Error, 0)
		for _, fieldError := range err.(validator.ValidationErrors) {
			var (
				pointerBuilder strings.Builder
				next           rune
			)
			for _, r := range fieldError.Namespace() {
				if pointerBuilder.Len() == 0 {
					// skip until first dot
					if r == '.' {
						pointerBuilder.WriteString("#/")
					}
					continue
				}

				switch r {
				case '.':
					if next != '/' {
						next = '/'
					} else {
						next = '.'
					}
				case '[':
					next = '/'
				case ']':
					continue
				default:
					next = r
				}

				pointerBuilder.WriteRune(next)
			}

			var (
				detail string
				value  string
			)
			switch fieldError.Tag() {
			case "gte":
				detail = fmt.Sprintf("must be greater than or equal to %s", fieldError.Param())
				value = fmt.Sprintf("%d", fieldError.Value())
			case "lte":
				detail = fmt.Sprintf("must be less than or equal to %s", fieldError.Param())
				value = fmt.Sprintf("%d", fieldError.Value())
			case "max":
				detail = fmt.Sprintf("exceeds a maximum of %s", fieldError.Param())
				value = fmt.Sprintf("%v", fieldError.Value())
			case "required":
				detail = "is required"
			case "unique":
				detail = "must be unique"
				value = fmt.Sprintf("%v", fieldError.Value())
			// custom validation
			case "direction":
				detail = "must be one of BT, LR, RL or TB"
				value = fmt.Sprintf("%s", fieldError.Value())
			case "layout_mode":
				detail = "must be one of AUTO, COMPUTE or PRESERVE"
				value = fmt.Sprintf("%s", fieldError.Value())
			case "theme":
				detail = fmt.Sprintf("must be one of %s", strings.Join(style.Names(), ", "))
				value = fmt.Sprintf("%s", fieldError.Value())
			default:
				detail = "unknown error"
				value = fmt.Sprintf("%v", fieldError.Value())
			}

			errors = append(errors, Error{
				Pointer: pointerBuilder.String(),
				Type:    fieldError.Tag(),
				Detail:  detail,
				Value:   value,
			})
		}

		return Problem{
			Status: http.StatusBadRequest,
			Type:   ProblemTypeValidation,
			Title:  "invalid request body",
			Detail: "failed to validate request body",
			Errors: errors,
		}
	}

	return nil
}

func isXmlMediaType(r *http.Request) bool {
	contentType := r.Header.Get(HeaderContentType)
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	return mediaType == ContentTypeXml || mediaType == ContentTypeApplicationXml
}

func parseDiagramCriteria(r *http.Request) (store.DiagramCriteria, error) {
	var (
		err error

		limit  int64
		offset int64
	)

	query := r.URL.Query()

	if limitValues, ok := query[QueryLimit]; ok {
		limit, err = strconv.ParseInt(limitValues[0], 10, 32)
		if err != nil {
			return store.DiagramCriteria{}, Problem{
				Status: http.StatusBadRequest,
				Type:   ProblemTypeHttpRequestUri,
				Title:  "invalid query parameter " + QueryLimit,
				Detail: "failed to parse value " + limitValues[0],
			}
		}
		if limit < 0 {
			return store.DiagramCriteria{}, Problem{
				Status: http.StatusBadRequest,
				Type:   ProblemTypeValidation,
				Title:  "invalid query parameter " + QueryLimit,
				Detail: fmt.Sprintf("%s %d must be greater than or equal to 0", QueryLimit, limit),
			}
		}
	}

	if offsetValues, ok := query[QueryOffset]; ok {
		offset, err = strconv.ParseInt(offsetValues[0], 10, 32)
		if err != nil {
			return store.DiagramCriteria{}, Problem{
				Status: http.StatusBadRequest,
				Type:   ProblemTypeHttpRequestUri,
				Title:  "invalid query parameter " + QueryOffset,
				Detail: "failed to parse value " + offsetValues[0],
			}
		}
		if offset < 0 {
			return store.DiagramCriteria{}, Problem{
				Status: http.StatusBadRequest,
				Type:   ProblemTypeValidation,
				Title:  "invalid query parameter " + QueryOffset,
				Detail: fmt.Sprintf("%s %d must be greater than or equal to 0", QueryOffset, offset),
			}
		}
	}

	return store.DiagramCriteria{
		Name:   query.Get(QueryName),
		Limit:  int(limit),
		Offset: int(offset),
	}, nil
}

func parseId(r *http.Request) (string, error) {
	idValue := r.PathValue("id")
	if _, err := uuid.Parse(idValue); err != nil {
		return "", Problem{
			Status: http.StatusBadRequest,
			Type:   ProblemTypeHttpRequestUri,
			Title:  "invalid path parameter id",
			Detail: fmt.Sprintf("failed to parse value '%s'", idValue),
		}
	}
	return idValue, nil
}

// readXmlRequestBody reads the request body as is, applying the same size limit as decodeJSONRequestBody.
func readXmlRequestBody(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576) // 1mb = 1024 * 1024

	b, err := io.ReadAll(r.Body)
	if err != nil {
		problem := Problem{
			Status: http.StatusBadRequest,
			Type:   ProblemTypeHttpRequestBody,
			Title:  "invalid request body",
		}

		if err.Error() == "http: request body too large" {
			problem.Detail = "request body size must not exceed 1MB"
		} else {
			problem.Detail = fmt.Sprintf("failed to read request body: %v", err)
		}

		return "", problem
	}
	if len(b) == 0 {
		return "", Problem{
			Status: http.StatusBadRequest,
			Type:   ProblemTypeHttpRequestBody,
			Title:  "invalid request body",
			Detail: "request body is empty",
		}
	}

	return string(b), nil
}

// validateConversionQuery validates conversion options that accompany an XML request body.
func validateConversionQuery(direction string, mode string, theme string) error {
	if direction != "" && diagram.MapDirection(direction) == 0 {
		return Problem{
			Status: http.StatusBadRequest,
			Type:   ProblemTypeValidation,
			Title:  "invalid query parameter " + QueryDirection,
			Detail: fmt.Sprintf("%s %s must be one of BT, LR, RL or TB", QueryDirection, direction),
		}
	}
	if mode != "" && diagram.MapLayoutMode(mode) == 0 {
		return Problem{
			Status: http.StatusBadRequest,
			Type:   ProblemTypeValidation,
			Title:  "invalid query parameter " + QueryMode,
			Detail: fmt.Sprintf("%s %s must be one of AUTO, COMPUTE or PRESERVE", QueryMode, mode),
		}
	}
	if theme != "" {
		if _, err := style.New(theme); err != nil {
			return Problem{
				Status: http.StatusBadRequest,
				Type:   ProblemTypeValidation,
				Title:  "invalid query parameter " + QueryTheme,
				Detail: fmt.Sprintf("%s %s must be one of %s", QueryTheme, theme, strings.Join(style.Names(), ", ")),
			}
		}
	}

	return nil
}
