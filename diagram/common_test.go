package diagram

import (
	"os"
	"testing"

	"github.com/gclaussn/go-bpmn-diagram/model"
)

func mustConvert(t *testing.T, fileName string, customizers ...func(*Options)) *Result {
	fileName = "../test/bpmn/" + fileName

	bpmnFile, err := os.Open(fileName)
	if err != nil {
		t.Fatalf("failed to open BPMN file %s: %v", fileName, err)
	}

	defer bpmnFile.Close()

	result, err := Convert(bpmnFile, customizers...)
	if err != nil {
		t.Fatalf("failed to convert BPMN XML: %v", err)
	}

	return result
}

func mustValidate(t *testing.T, fileName string) []model.Warning {
	fileName = "../test/bpmn/" + fileName

	bpmnFile, err := os.Open(fileName)
	if err != nil {
		t.Fatalf("failed to open BPMN file %s: %v", fileName, err)
	}

	defer bpmnFile.Close()

	warnings, err := Validate(bpmnFile)
	if err != nil {
		t.Fatalf("failed to validate BPMN XML: %v", err)
	}

	return warnings
}

func warningsOfType(warnings []model.Warning, warningType model.WarningType) []model.Warning {
	var filtered []model.Warning
	for _, warning := range warnings {
		if warning.Type == warningType {
			filtered = append(filtered, warning)
		}
	}
	return filtered
}
