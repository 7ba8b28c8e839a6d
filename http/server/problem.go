package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gclaussn/go-bpmn-diagram/diagram"
	"github.com/gclaussn/go-bpmn-diagram/store"
)

// ProblemType determines if a problem is HTTP, conversion or store related.
type ProblemType int

const (
	ProblemTypeHttpMediaType ProblemType = iota + 1
	ProblemTypeHttpRequestBody
	ProblemTypeHttpRequestUri
	ProblemTypeValidation

	// conversion and store related types
	ProblemTypeMalformedSource
	ProblemTypeNotFound
)

func MapProblemType(s string) ProblemType {
	switch s {
	case "HTTP_MEDIA_TYPE":
		return ProblemTypeHttpMediaType
	case "HTTP_REQUEST_BODY":
		return ProblemTypeHttpRequestBody
	case "HTTP_REQUEST_URI":
		return ProblemTypeHttpRequestUri
	case "VALIDATION":
		return ProblemTypeValidation
	case "MALFORMED_SOURCE":
		return ProblemTypeMalformedSource
	case "NOT_FOUND":
		return ProblemTypeNotFound
	default:
		return 0
	}
}

func (v ProblemType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", v.String())), nil
}

func (v ProblemType) String() string {
	switch v {
	case ProblemTypeHttpMediaType:
		return "HTTP_MEDIA_TYPE"
	case ProblemTypeHttpRequestBody:
		return "HTTP_REQUEST_BODY"
	case ProblemTypeHttpRequestUri:
		return "HTTP_REQUEST_URI"
	case ProblemTypeValidation:
		return "VALIDATION"
	case ProblemTypeMalformedSource:
		return "MALFORMED_SOURCE"
	case ProblemTypeNotFound:
		return "NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

func (v *ProblemType) UnmarshalJSON(data []byte) error {
	s := string(data)
	*v = MapProblemType(s[1 : len(s)-1])
	return nil
}

// Error represents a validation error, pointing on a JSON property or BPMN element.
type Error struct {
	Pointer string `json:"pointer"`
	Type    string `json:"type"`
	Detail  string `json:"detail"`
	Value   string `json:"value,omitempty"`
}

func (v Error) String() string {
	return fmt.Sprintf("%s: %s", v.Pointer, v.Detail)
}

// Common format for HTTP 4xx error responses, based on https://datatracker.ietf.org/doc/html/rfc9457.
type Problem struct {
	Status int         `json:"status"` // HTTP status code.
	Type   ProblemType `json:"type"`   // Problem type.
	Title  string      `json:"title"`  // Human-readable problem summary.
	Detail string      `json:"detail"` // Human-readable, detailed information about the problem.

	Errors []Error `json:"errors,omitempty"` // Validation errors.
}

func (v Problem) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("HTTP %d: %s: %s: %s", v.Status, v.Type, v.Title, v.Detail))

	for i := 0; i < len(v.Errors); i++ {
		sb.WriteRune('\n')
		sb.WriteString(v.Errors[i].String())
	}

	return sb.String()
}

func encodeJSONProblemResponseBody(w http.ResponseWriter, r *http.Request, err error) {
	problem, ok := err.(Problem)
	if !ok {
		var conversionErr diagram.Error

		switch {
		case errors.As(err, &conversionErr) && conversionErr.Type != 0:
			var (
				status      int
				problemType ProblemType
			)

			switch conversionErr.Type {
			case diagram.ErrorMalformedSource:
				status = http.StatusUnprocessableEntity
				problemType = ProblemTypeMalformedSource
			case diagram.ErrorValidation:
				status = http.StatusBadRequest
				problemType = ProblemTypeValidation
			default:
				status = http.StatusInternalServerError
			}

			causes := make([]Error, len(conversionErr.Causes))
			for i, cause := range conversionErr.Causes {
				causes[i] = Error{
					Pointer: cause.Pointer,
					Type:    cause.Type,
					Detail:  cause.Detail,
				}
			}

			problem = Problem{
				Status: status,
				Type:   problemType,
				Title:  conversionErr.Title,
				Detail: conversionErr.Detail,
				Errors: causes,
			}
		case errors.Is(err, store.ErrNotFound):
			problem = Problem{
				Status: http.StatusNotFound,
				Type:   ProblemTypeNotFound,
				Title:  "diagram not found",
				Detail: err.Error(),
			}
		default:
			log.Errorf("%s %s: unexpected error occurred: %v", r.Method, r.RequestURI, err)

			problem = Problem{
				Status: http.StatusInternalServerError,
				Title:  "unexpected error occurred",
				Detail: "see server logs",
			}
		}
	}

	w.Header().Set(HeaderContentType, ContentTypeProblemJson)
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		log.Errorf("%s %s: failed to create JSON problem response body: %v", r.Method, r.RequestURI, err)
		http.Error(w, "unexpected error occurred - see server logs", http.StatusInternalServerError)
	}
}
