package model

import (
	"os"
	"testing"
)

func mustParse(t *testing.T, fileName string) (*ProcessDocument, []Warning) {
	fileName = "../test/bpmn/" + fileName

	bpmnFile, err := os.Open(fileName)
	if err != nil {
		t.Fatalf("failed to open BPMN file %s: %v", fileName, err)
	}

	defer bpmnFile.Close()

	doc, warnings, err := New(bpmnFile)
	if err != nil {
		t.Fatalf("failed to parse BPMN XML: %v", err)
	}

	return doc, warnings
}
