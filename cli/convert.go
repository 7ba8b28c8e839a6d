package cli

import (
	"fmt"
	"os"

	"github.com/gclaussn/go-bpmn-diagram/diagram"
	"github.com/gclaussn/go-bpmn-diagram/drawio"
	"github.com/gclaussn/go-bpmn-diagram/style"
	"github.com/spf13/cobra"
)

func newConvertCmd(cli *Cli) *cobra.Command {
	var (
		bpmnFileName   string
		outputFileName string
		themeName      string
		themeFileName  string

		directionV directionValue
		modeV      layoutModeValue
	)

	c := cobra.Command{
		Use:   "convert",
		Short: "Convert a BPMN file into an editable diagram",
		RunE: func(c *cobra.Command, _ []string) error {
			theme, err := resolveTheme(themeName, themeFileName)
			if err != nil {
				return err
			}

			bpmnFile, err := os.Open(bpmnFileName)
			if err != nil {
				return fmt.Errorf("failed to open BPMN file %s: %v", bpmnFileName, err)
			}

			defer bpmnFile.Close()

			result, err := diagram.Convert(bpmnFile, func(o *diagram.Options) {
				o.Logger = cli.logger()
				o.StyleResolver = style.NewResolver(theme)

				if direction := diagram.Direction(directionV); direction != 0 {
					o.Direction = direction
				}
				if mode := diagram.LayoutMode(modeV); mode != 0 {
					o.Mode = mode
				}
			})
			if err != nil {
				return err
			}

			if len(result.Warnings) != 0 {
				c.PrintErr(formatWarnings(result.Warnings))
			}

			if outputFileName == "" {
				drawioXml, err := drawio.Marshal(result)
				if err != nil {
					return err
				}

				c.Print(string(drawioXml))
				return nil
			}

			outputFile, err := os.Create(outputFileName)
			if err != nil {
				return fmt.Errorf("failed to create output file %s: %v", outputFileName, err)
			}

			defer outputFile.Close()

			return drawio.Write(outputFile, result)
		},
	}

	c.Flags().StringVarP(&bpmnFileName, "bpmn-file", "f", "", "Path to a BPMN XML file")
	c.Flags().Var(&directionV, "direction", "Direction of a computed layout: BT, LR, RL or TB")
	c.Flags().Var(&modeV, "mode", "Layout mode: AUTO, COMPUTE or PRESERVE")
	c.Flags().StringVarP(&outputFileName, "output-file", "o", "", "Path to the draw.io output file - printed to stdout when empty")
	c.Flags().StringVar(&themeName, "theme", "", "Name of a built-in style theme: default or mono")
	c.Flags().StringVar(&themeFileName, "theme-file", "", "Path to a TOML style theme file")

	c.MarkFlagRequired("bpmn-file")

	c.MarkFlagFilename("bpmn-file", ".bpmn", ".bpmn20.xml", ".xml")
	c.MarkFlagFilename("theme-file", ".toml")

	c.MarkFlagsMutuallyExclusive("theme", "theme-file")

	c.Flags().SetAnnotation("direction", envLookupAllowed, nil)
	c.Flags().SetAnnotation("mode", envLookupAllowed, nil)
	c.Flags().SetAnnotation("theme", envLookupAllowed, nil)

	return &c
}

func resolveTheme(themeName string, themeFileName string) (style.Theme, error) {
	if themeFileName != "" {
		return style.Load(themeFileName)
	}
	if themeName != "" {
		return style.New(themeName)
	}
	return style.Default(), nil
}
