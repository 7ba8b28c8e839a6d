package drawio

import (
	"os"
	"testing"

	"github.com/beevik/etree"
	"github.com/gclaussn/go-bpmn-diagram/diagram"
)

func mustConvert(t *testing.T, fileName string, customizers ...func(*diagram.Options)) *diagram.Result {
	fileName = "../test/bpmn/" + fileName

	bpmnFile, err := os.Open(fileName)
	if err != nil {
		t.Fatalf("failed to open BPMN file %s: %v", fileName, err)
	}

	defer bpmnFile.Close()

	result, err := diagram.Convert(bpmnFile, customizers...)
	if err != nil {
		t.Fatalf("failed to convert BPMN XML: %v", err)
	}

	return result
}

func mustMarshal(t *testing.T, result *diagram.Result, customizers ...func(*Options)) *etree.Document {
	b, err := Marshal(result, customizers...)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		t.Fatalf("failed to read XML document: %v", err)
	}

	return doc
}

func mustFindCell(t *testing.T, doc *etree.Document, id string) *etree.Element {
	root := doc.FindElement("/mxfile/diagram/mxGraphModel/root")
	if root == nil {
		t.Fatal("root element not found")
	}

	for _, mxCell := range root.SelectElements("mxCell") {
		if mxCell.SelectAttrValue("id", "") == id {
			return mxCell
		}
	}

	t.Fatalf("cell %s not found", id)
	return nil
}
