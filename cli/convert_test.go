package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvert(t *testing.T) {
	assert := assert.New(t)

	t.Run("write output file", func(t *testing.T) {
		outputFileName := filepath.Join(t.TempDir(), "simple.drawio")

		mustExecute(t, []string{"convert", "-f", "../test/bpmn/simple.bpmn", "-o", outputFileName})

		b, err := os.ReadFile(outputFileName)
		if err != nil {
			t.Fatalf("failed to read output file: %v", err)
		}

		assert.Contains(string(b), "<mxfile")
		assert.Contains(string(b), `id="_pool_simpleTest"`)
	})

	t.Run("print to stdout", func(t *testing.T) {
		stdout := mustExecute(t, []string{"convert", "-f", "../test/bpmn/simple.bpmn"})
		assert.Contains(stdout, "<mxfile")
	})

	t.Run("print warnings", func(t *testing.T) {
		outputFileName := filepath.Join(t.TempDir(), "orphan.drawio")

		code, _, stderr := executeCli([]string{"convert", "-f", "../test/bpmn/orphan.bpmn", "-o", outputFileName})
		assert.Equal(0, code, "warnings must not fail a conversion")

		assert.Contains(stderr, "ORPHAN_ELEMENT")
		assert.Contains(stderr, "orphanTask")
	})

	t.Run("with conversion options", func(t *testing.T) {
		outputFileName := filepath.Join(t.TempDir(), "simple.drawio")

		mustExecute(t, []string{
			"convert",
			"-f", "../test/bpmn/simple.bpmn",
			"-o", outputFileName,
			"--direction", "TB",
			"--mode", "COMPUTE",
			"--theme", "mono",
		})

		b, err := os.ReadFile(outputFileName)
		if err != nil {
			t.Fatalf("failed to read output file: %v", err)
		}

		assert.Contains(string(b), "<mxfile")
	})

	t.Run("with theme file", func(t *testing.T) {
		themeFileName := filepath.Join(t.TempDir(), "custom.toml")

		theme := "name = \"custom\"\ntask_fill = \"#ff0000\"\n"
		if err := os.WriteFile(themeFileName, []byte(theme), 0600); err != nil {
			t.Fatalf("failed to write theme file: %v", err)
		}

		stdout := mustExecute(t, []string{"convert", "-f", "../test/bpmn/simple.bpmn", "--theme-file", themeFileName})
		assert.Contains(stdout, "fillColor=#ff0000")
	})

	t.Run("env lookup", func(t *testing.T) {
		t.Setenv(envPrefix+"THEME", "unknown-theme")

		code, _, stderr := executeCli([]string{"convert", "-f", "../test/bpmn/simple.bpmn"})
		assert.Equal(1, code)

		assert.Contains(stderr, "no built-in theme with name unknown-theme")
	})

	t.Run("returns 1 when BPMN file not exists", func(t *testing.T) {
		code, _, stderr := executeCli([]string{"convert", "-f", "../test/bpmn/not-existing.bpmn"})
		assert.Equal(1, code)

		assert.Contains(stderr, "failed to open BPMN file")
	})

	t.Run("returns 1 when BPMN file is malformed", func(t *testing.T) {
		bpmnFileName := filepath.Join(t.TempDir(), "malformed.bpmn")
		if err := os.WriteFile(bpmnFileName, []byte("#"), 0600); err != nil {
			t.Fatalf("failed to write BPMN file: %v", err)
		}

		code, _, stderr := executeCli([]string{"convert", "-f", bpmnFileName})
		assert.Equal(1, code)

		assert.Contains(stderr, "failed to parse BPMN XML")
	})
}
