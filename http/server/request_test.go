package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeJSONRequestBody(t *testing.T) {
	assert := assert.New(t)

	validJson := `
	{
		"vdirection": "LR",
		"vgte": 1,
		"vlayoutMode": "AUTO",
		"vlte": 100,
		"vmax": [1, 2, 3],
		"vrequired": "a string",
		"vtheme": "mono",
		"vunique": [1, 2, 3]
	}
	`

	invalidJson := `
	{
		"vdirection": "XX",
		"vgte": 0,
		"vlayoutMode": "X",
		"vlte": 101,
		"vmax": [1, 2, 3, 4],
		"vrequired": "",
		"vtheme": "unknown",
		"vunique": [1, 1, 2, 2, 3]
	}
	`

	body := DecodeTest{}

	t.Run("unsupported media type", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(validJson))
		r.Header.Add(HeaderContentType, "text/plain")

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, ProblemTypeHttpMediaType, http.StatusUnsupportedMediaType)
		assert.Contains(err.Error(), "text/plain")
	})

	t.Run("request body is empty", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(""))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, ProblemTypeHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "request body is empty")
	})

	t.Run("request body too large", func(t *testing.T) {
		var jsonBuilder strings.Builder
		jsonBuilder.WriteString(`{"vstring":"`)
		jsonBuilder.WriteString(strings.Repeat("x", 1024*1014*2))
		jsonBuilder.WriteString(`"}`)

		b := []byte(jsonBuilder.String())

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", bytes.NewReader(b))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, ProblemTypeHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "1MB")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader("{_}"))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, ProblemTypeHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "at position 2")
	})

	t.Run("unexpected end of JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader("{"))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, ProblemTypeHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "unexpected end of JSON")
	})

	t.Run("invalid JSON field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"vrequired":1}`))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, ProblemTypeHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "JSON field vrequired has an invalid value at position 14")
	})

	t.Run("unknown JSON field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"vunknown":-1}`))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, ProblemTypeHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), `unknown JSON field "vunknown"`)
	})

	t.Run("valid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(validJson))

		err := decodeJSONRequestBody(w, r, &body)
		assert.Nil(err)

		assert.Equal("LR", body.VDirection)
		assert.Equal(1, body.VGte)
		assert.Equal("AUTO", body.VLayoutMode)
		assert.Equal(100, body.VLte)
		assert.Equal("a string", body.VRequired)
		assert.Equal("mono", body.VTheme)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(invalidJson))

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, ProblemTypeValidation, http.StatusBadRequest)

		problem := err.(Problem)
		assert.Len(problem.Errors, 8)

		findError := func(pointer string) Error {
			for i := 0; i < len(problem.Errors); i++ {
				if problem.Errors[i].Pointer == pointer {
					return problem.Errors[i]
				}
			}
			t.Fatalf("failed to find error for pointer %s", pointer)
			return Error{}
		}

		var e Error

		e = findError("#/vdirection")
		assert.Equal("direction", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Equal("XX", e.Value)

		e = findError("#/vgte")
		assert.Equal("gte", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Equal("0", e.Value)

		e = findError("#/vlayoutMode")
		assert.Equal("layout_mode", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Equal("X", e.Value)

		e = findError("#/vlte")
		assert.Equal("lte", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Equal("101", e.Value)

		e = findError("#/vmax")
		assert.Equal("max", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Equal("[1 2 3 4]", e.Value)

		e = findError("#/vrequired")
		assert.Equal("required", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Empty(e.Value)

		e = findError("#/vtheme")
		assert.Equal("theme", e.Type)
		assert.Contains(e.Detail, "mono")
		assert.Equal("unknown", e.Value)

		e = findError("#/vunique")
		assert.Equal("unique", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Equal("[1 1 2 2 3]", e.Value)
	})
}

func TestDecodeConvertDiagramCmd(t *testing.T) {
	assert := assert.New(t)

	t.Run("xml body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/?direction=TB&mode=COMPUTE&theme=mono", strings.NewReader("<definitions/>"))
		r.Header.Set(HeaderContentType, ContentTypeXml)

		var cmd ConvertDiagramCmd
		err := decodeConvertDiagramCmd(w, r, &cmd)
		assert.Nilf(err, "expected no error")

		assert.Equal("<definitions/>", cmd.BpmnXml)
		assert.Equal("TB", cmd.Direction)
		assert.Equal("COMPUTE", cmd.Mode)
		assert.Equal("mono", cmd.Theme)
	})

	t.Run("xml body is empty", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(""))
		r.Header.Set(HeaderContentType, ContentTypeApplicationXml)

		var cmd ConvertDiagramCmd
		err := decodeConvertDiagramCmd(w, r, &cmd)
		assertProblem(t, err, ProblemTypeHttpRequestBody, http.StatusBadRequest)
	})

	t.Run("invalid direction query parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/?direction=X", strings.NewReader("<definitions/>"))
		r.Header.Set(HeaderContentType, ContentTypeXml)

		var cmd ConvertDiagramCmd
		err := decodeConvertDiagramCmd(w, r, &cmd)
		assertProblem(t, err, ProblemTypeValidation, http.StatusBadRequest)
	})

	t.Run("invalid theme query parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/?theme=unknown", strings.NewReader("<definitions/>"))
		r.Header.Set(HeaderContentType, ContentTypeXml)

		var cmd ConvertDiagramCmd
		err := decodeConvertDiagramCmd(w, r, &cmd)
		assertProblem(t, err, ProblemTypeValidation, http.StatusBadRequest)
	})

	t.Run("json body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"bpmnXml":"<definitions/>","direction":"LR"}`))

		var cmd ConvertDiagramCmd
		err := decodeConvertDiagramCmd(w, r, &cmd)
		assert.Nilf(err, "expected no error")

		assert.Equal("<definitions/>", cmd.BpmnXml)
		assert.Equal("LR", cmd.Direction)
	})
}

func TestParseId(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest("", "/", nil)
		r.SetPathValue("id", "0e3bcdb1-6b55-4a01-a79e-e5e30d4b1a3d")

		id, err := parseId(r)
		assert.Equal("0e3bcdb1-6b55-4a01-a79e-e5e30d4b1a3d", id)
		assert.Nilf(err, "expected no error")
	})

	t.Run("failed to parse value", func(t *testing.T) {
		r := httptest.NewRequest("", "/", nil)
		r.SetPathValue("id", "x")

		_, err := parseId(r)
		assert.NotNilf(err, "expected error")
	})
}

func TestParseDiagramCriteria(t *testing.T) {
	assert := assert.New(t)

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest("", "/?limit=50&offset=100&name=order", nil)

		criteria, err := parseDiagramCriteria(r)
		assert.Equal("order", criteria.Name)
		assert.Equal(50, criteria.Limit)
		assert.Equal(100, criteria.Offset)
		assert.Nilf(err, "expected no error")
	})

	t.Run("limit", func(t *testing.T) {
		t.Run("failed to parse value", func(t *testing.T) {
			r := httptest.NewRequest("", "/?limit=x", nil)

			_, err := parseDiagramCriteria(r)
			assert.NotNilf(err, "expected error")
		})

		t.Run("must be greater than or equal to 0", func(t *testing.T) {
			r := httptest.NewRequest("", "/?limit=-1", nil)

			_, err := parseDiagramCriteria(r)
			assert.NotNilf(err, "expected error")
		})
	})

	t.Run("offset", func(t *testing.T) {
		t.Run("failed to parse value", func(t *testing.T) {
			r := httptest.NewRequest("", "/?offset=x", nil)

			_, err := parseDiagramCriteria(r)
			assert.NotNilf(err, "expected error")
		})

		t.Run("must be greater than or equal to 0", func(t *testing.T) {
			r := httptest.NewRequest("", "/?offset=-1", nil)

			_, err := parseDiagramCriteria(r)
			assert.NotNilf(err, "expected error")
		})
	})
}

func assertProblem(t *testing.T, err error, expectedType ProblemType, expectedStatus int) {
	if err == nil {
		t.Fatal("error is nil")
	}

	problem, ok := err.(Problem)
	if !ok {
		t.Fatalf("error is not of type Problem: %v", err)
	}

	assert := assert.New(t)
	assert.Equal(expectedType, problem.Type)
	assert.Equal(expectedStatus, problem.Status)
	assert.NotEmpty(problem.Title)
	assert.NotEmpty(problem.Detail)
}

type DecodeTest struct {
	VDirection  string `json:"vdirection" validate:"direction"`
	VGte        int    `json:"vgte" validate:"gte=1"`
	VLayoutMode string `json:"vlayoutMode" validate:"layout_mode"`
	VLte        int    `json:"vlte" validate:"lte=100"`
	VMax        []int  `json:"vmax" validate:"max=3"`
	VRequired   string `json:"vrequired" validate:"required"`
	VTheme      string `json:"vtheme" validate:"theme"`
	VUnique     []int  `json:"vunique" validate:"unique"`
}
