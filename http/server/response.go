package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gclaussn/go-bpmn-diagram/diagram"
	"github.com/gclaussn/go-bpmn-diagram/drawio"
	"github.com/gclaussn/go-bpmn-diagram/model"
	"github.com/gclaussn/go-bpmn-diagram/store"
)

// Response of a diagram conversion.
type ConvertDiagramRes struct {
	Name         string          `json:"name"`         // Diagram name, derived from the BPMN definitions or process.
	CellCount    int             `json:"cellCount"`    // Number of cells.
	WarningCount int             `json:"warningCount"` // Number of warnings.
	Cells        []diagram.Cell  `json:"cells"`        // Cells, ordered parents before children and shapes before edges.
	Warnings     []model.Warning `json:"warnings"`     // Warnings, collected during the conversion.
}

// Response of a diagram query.
type DiagramRes struct {
	Count   int             `json:"count"`   // Number of results.
	Results []store.Diagram `json:"results"` // Query results.
}

// Response of a BPMN XML validation.
type ValidateDiagramRes struct {
	Count    int             `json:"count"`    // Number of warnings.
	Warnings []model.Warning `json:"warnings"` // Warnings, collected during parsing and validation.
}

// acceptsXml determines if the client requests the drawio XML itself instead of its JSON representation.
func acceptsXml(r *http.Request) bool {
	for _, acceptValue := range r.Header.Values(HeaderAccept) {
		for _, part := range strings.Split(acceptValue, ",") {
			mediaType := strings.TrimSpace(strings.Split(part, ";")[0])
			if mediaType == ContentTypeXml || mediaType == ContentTypeApplicationXml {
				return true
			}
		}
	}
	return false
}

func encodeJSONResponseBody(w http.ResponseWriter, r *http.Request, v any, statusCode int) {
	w.Header().Set(HeaderContentType, ContentTypeJson)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("%s %s: failed to create JSON response body: %v", r.Method, r.RequestURI, err)
		http.Error(w, "unexpected error occurred - see logs", http.StatusInternalServerError)
	}
}

func encodeXmlResponseBody(w http.ResponseWriter, r *http.Request, result *diagram.Result) {
	w.Header().Set(HeaderContentType, ContentTypeXml)

	if err := drawio.Write(w, result); err != nil {
		log.Errorf("%s %s: failed to create drawio XML response body: %v", r.Method, r.RequestURI, err)
		http.Error(w, "unexpected error occurred - see logs", http.StatusInternalServerError)
	}
}
