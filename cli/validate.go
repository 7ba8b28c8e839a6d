package cli

import (
	"fmt"
	"os"

	"github.com/gclaussn/go-bpmn-diagram/diagram"
	"github.com/gclaussn/go-bpmn-diagram/model"
	"github.com/spf13/cobra"
)

func newValidateCmd(cli *Cli) *cobra.Command {
	var bpmnFileName string

	c := cobra.Command{
		Use:   "validate",
		Short: "Validate a BPMN file",
		Long:  "Validate a BPMN file - exits with code 2 when the maximum warning severity is WARNING and 3 when it is ERROR",
		RunE: func(c *cobra.Command, _ []string) error {
			bpmnFile, err := os.Open(bpmnFileName)
			if err != nil {
				return fmt.Errorf("failed to open BPMN file %s: %v", bpmnFileName, err)
			}

			defer bpmnFile.Close()

			warnings, err := diagram.Validate(bpmnFile)
			if err != nil {
				return err
			}

			if len(warnings) == 0 {
				return nil
			}

			c.Print(formatWarnings(warnings))

			maxSeverity := model.SeverityInfo
			for _, warning := range warnings {
				if warning.Severity > maxSeverity {
					maxSeverity = warning.Severity
				}
			}

			switch maxSeverity {
			case model.SeverityWarning:
				cli.exitCode = 2
			case model.SeverityError:
				cli.exitCode = 3
			}

			return nil
		},
	}

	c.Flags().StringVarP(&bpmnFileName, "bpmn-file", "f", "", "Path to a BPMN XML file")

	c.MarkFlagRequired("bpmn-file")

	c.MarkFlagFilename("bpmn-file", ".bpmn", ".bpmn20.xml", ".xml")

	return &c
}
