package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gclaussn/go-bpmn-diagram/store"
	"github.com/gclaussn/go-bpmn-diagram/store/mem"
)

func mustCreateServer(t *testing.T) *httptest.Server {
	memStore, err := mem.New()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	server, err := New(memStore, func(o *Options) {
		o.BasicAuthUsername = "test"
		o.BasicAuthPassword = "test"
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	httpServer := httptest.NewServer(server.httpServer.Handler)
	t.Cleanup(httpServer.Close)
	return httpServer
}

func mustCreateDiagram(t *testing.T, httpServer *httptest.Server, name string, bpmnXml string) store.Diagram {
	reqBody, err := json.Marshal(CreateDiagramCmd{Name: name, BpmnXml: bpmnXml})
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	res := mustSendRequest(t, httpServer, http.MethodPost, PathDiagrams, nil, string(reqBody))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("failed to create diagram %s: HTTP %d", name, res.StatusCode)
	}

	var created store.Diagram
	mustDecodeResponseBody(t, res, &created)
	return created
}

func mustDecodeResponseBody(t *testing.T, res *http.Response, v any) {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func mustReadBpmnFile(t *testing.T, fileName string) string {
	bpmnXml, err := os.ReadFile("../../test/bpmn/" + fileName)
	if err != nil {
		t.Fatalf("failed to read BPMN XML file: %v", err)
	}
	return string(bpmnXml)
}

func mustSendRequest(t *testing.T, httpServer *httptest.Server, method string, path string, header map[string]string, body string) *http.Response {
	r, err := http.NewRequest(method, httpServer.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	r.SetBasicAuth("test", "test")
	for name, value := range header {
		r.Header.Set(name, value)
	}

	res, err := httpServer.Client().Do(r)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}

	t.Cleanup(func() {
		res.Body.Close()
	})
	return res
}
