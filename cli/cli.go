package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	envLookupAllowed = "envLookupAllowed" // flag level annotation that allows an environment variable lookup
	envPrefix        = "GO_BPMN_DIAGRAM_"
	program          = "go-bpmn-diagram"
)

func New(version string) *Cli {
	cli := Cli{version: version}

	cli.rootCmd = newRootCmd(&cli)

	return &cli
}

type Cli struct {
	version string

	rootCmd *cobra.Command

	debugEnabled bool
	exitCode     int
}

func (c *Cli) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		return 1
	}
	return c.exitCode
}

func (c *Cli) help(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

func (c *Cli) logger() *log.Logger {
	level := log.WarnLevel
	if c.debugEnabled {
		level = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{Level: level})
}

func newRootCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   program,
		Short: "Convert BPMN XML into editable draw.io diagrams",
		PersistentPreRun: func(c *cobra.Command, _ []string) {
			c.SilenceUsage = true

			c.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					return
				}
				if _, ok := f.Annotations[envLookupAllowed]; !ok {
					return
				}

				// e.g. theme -> GO_BPMN_DIAGRAM_THEME
				key := envPrefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")

				if value, ok := os.LookupEnv(key); ok {
					f.Value.Set(value)
				}
			})
		},
		RunE: cli.help,
	}

	c.PersistentFlags().BoolVar(&cli.debugEnabled, "debug", false, "Log details of the conversion")

	c.PersistentFlags().SetAnnotation("debug", envLookupAllowed, nil)

	c.AddCommand(newConvertCmd(cli))
	c.AddCommand(newValidateCmd(cli))
	c.AddCommand(newVersionCmd(cli))

	return &c
}

func newVersionCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(c *cobra.Command, _ []string) {
			c.Println(cli.version)
		},
	}

	return &c
}
