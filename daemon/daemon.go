package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	charmlog "github.com/charmbracelet/log"
	"github.com/gclaussn/go-bpmn-diagram/http/server"
	"github.com/gclaussn/go-bpmn-diagram/store"
	"github.com/gclaussn/go-bpmn-diagram/store/mem"
	"github.com/gclaussn/go-bpmn-diagram/store/pg"
)

const (
	envPrefix = "GO_BPMN_DIAGRAM_"

	optHttpBasicAuthPassword = "HTTP_BASIC_AUTH_PASSWORD"
	optHttpBasicAuthUsername = "HTTP_BASIC_AUTH_USERNAME"
	optHttpBindAddress       = "HTTP_BIND_ADDRESS"
	optHttpReadTimeout       = "HTTP_READ_TIMEOUT"
	optHttpWriteTimeout      = "HTTP_WRITE_TIMEOUT"

	optLogFormat = "LOG_FORMAT"
	optLogLevel  = "LOG_LEVEL"

	optPgDatabaseUrl = "PG_DATABASE_URL"
	optStore         = "STORE"

	logFormatJson   = "json"
	logFormatLogfmt = "logfmt"
	logFormatText   = "text"

	storeTypeMem = "mem"
	storeTypePg  = "pg"
)

var (
	version = "unknown-version"
)

func newConf() *conf {
	envVars := envVars{}
	for _, value := range os.Environ() {
		envVars.Set(value)
	}

	serverOptions := server.NewOptions()

	conf := conf{envFile: envFile{envVars}}

	conf.addOption(optHttpBasicAuthPassword, "password for basic authentication", "")
	conf.addOption(optHttpBasicAuthUsername, "username for basic authentication", "")
	conf.addOption(optHttpBindAddress, "bind address of the HTTP server", serverOptions.BindAddress)
	conf.addOption(optHttpReadTimeout, "maximum duration for reading an HTTP request", serverOptions.ReadTimeout.String())
	conf.addOption(optHttpWriteTimeout, "maximum duration for writing an HTTP response", serverOptions.WriteTimeout.String())
	conf.addOption(optLogFormat, "log format: text, json or logfmt", logFormatText)
	conf.addOption(optLogLevel, "log level: debug, info, warn, error or fatal", "info")
	conf.addOption(optPgDatabaseUrl, "format: postgres://<username>:<password>@<host>:<port>/<database>?search_path=<schema>", "")
	conf.addOption(optStore, "diagram store to use: mem or pg", storeTypeMem)

	return &conf
}

func listConf(conf *conf) int {
	log.SetFlags(0)
	for _, opt := range conf.opts {
		log.Printf("%s=%s", opt.key, opt.value())
	}

	return 0
}

func listConfErrors(errs []error) int {
	if len(errs) == 0 {
		return 0
	}

	log.SetFlags(0)
	for _, err := range errs {
		log.Print(err)
	}

	return 1
}

func listConfOpts(conf *conf) int {
	maxKeyLength := 0
	for _, opt := range conf.opts {
		if len(opt.key) > maxKeyLength {
			maxKeyLength = len(opt.key)
		}
	}

	var sb strings.Builder
	for _, opt := range conf.opts {
		sb.WriteString(opt.key)
		sb.WriteString(strings.Repeat(" ", maxKeyLength-len(opt.key)))
		sb.WriteString("   ")
		sb.WriteString(opt.description)

		if opt.defaultValue != "" {
			sb.WriteString(fmt.Sprintf(" - default: %s", opt.defaultValue))
		}

		sb.WriteRune('\n')
	}

	log.SetFlags(0)
	log.Print(sb.String())

	return 0
}

func newLogger(w io.Writer, config Config) *charmlog.Logger {
	level, _ := charmlog.ParseLevel(config.LogLevel)

	formatter := charmlog.TextFormatter
	switch config.LogFormat {
	case logFormatJson:
		formatter = charmlog.JSONFormatter
	case logFormatLogfmt:
		formatter = charmlog.LogfmtFormatter
	}

	return charmlog.NewWithOptions(w, charmlog.Options{
		Formatter:       formatter,
		Level:           level,
		ReportTimestamp: true,
	})
}

func newStore(config Config) (store.Store, error) {
	if config.Store == storeTypePg {
		return pg.New(config.PgDatabaseUrl)
	} else {
		return mem.New()
	}
}

func showVersion() int {
	log.Println(version)
	return 0
}

// Config defines the configuration of a daemon, read from prefixed environment variables.
type Config struct {
	HttpBasicAuthPassword string        `env:"HTTP_BASIC_AUTH_PASSWORD"`
	HttpBasicAuthUsername string        `env:"HTTP_BASIC_AUTH_USERNAME"`
	HttpBindAddress       string        `env:"HTTP_BIND_ADDRESS"`
	HttpReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT"`
	HttpWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT"`
	LogFormat             string        `env:"LOG_FORMAT" envDefault:"text"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`
	PgDatabaseUrl         string        `env:"PG_DATABASE_URL"`
	Store                 string        `env:"STORE" envDefault:"mem"`
}

// serverOptions creates server options, using default values for options that are not configured.
func (c Config) serverOptions() server.Options {
	options := server.NewOptions()
	options.BasicAuthPassword = c.HttpBasicAuthPassword
	options.BasicAuthUsername = c.HttpBasicAuthUsername

	if c.HttpBindAddress != "" {
		options.BindAddress = c.HttpBindAddress
	}
	if c.HttpReadTimeout > 0 {
		options.ReadTimeout = c.HttpReadTimeout
	}
	if c.HttpWriteTimeout > 0 {
		options.WriteTimeout = c.HttpWriteTimeout
	}

	return options
}

func (c Config) validate() []error {
	var errs []error

	if (c.HttpBasicAuthUsername == "") != (c.HttpBasicAuthPassword == "") {
		errs = append(errs, fmt.Errorf(
			"%s and %s must be provided together",
			envPrefix+optHttpBasicAuthUsername,
			envPrefix+optHttpBasicAuthPassword,
		))
	}

	switch c.LogFormat {
	case logFormatJson, logFormatLogfmt, logFormatText:
	default:
		errs = append(errs, fmt.Errorf("%s=%s: must be one of text, json or logfmt", envPrefix+optLogFormat, c.LogFormat))
	}

	if _, err := charmlog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s=%s: must be one of debug, info, warn, error or fatal", envPrefix+optLogLevel, c.LogLevel))
	}

	switch c.Store {
	case storeTypeMem:
	case storeTypePg:
		if c.PgDatabaseUrl == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s is %s", envPrefix+optPgDatabaseUrl, envPrefix+optStore, storeTypePg))
		}
	default:
		errs = append(errs, fmt.Errorf("%s=%s: must be one of mem or pg", envPrefix+optStore, c.Store))
	}

	return errs
}

type conf struct {
	envFile envFile
	opts    []confOpt
}

func (c *conf) addOption(key string, description string, defaultValue string) {
	c.opts = append(c.opts, confOpt{
		envVars:      c.envFile.envVars,
		key:          envPrefix + key,
		description:  description,
		defaultValue: defaultValue,
	})
}

func (c *conf) parse() (Config, []error) {
	var config Config

	err := env.ParseWithOptions(&config, env.Options{
		Environment: c.envFile.envVars,
		Prefix:      envPrefix,
	})
	if err != nil {
		var aggregateError env.AggregateError
		if errors.As(err, &aggregateError) {
			return config, aggregateError.Errors
		} else {
			return config, []error{err}
		}
	}

	return config, config.validate()
}

type confOpt struct {
	envVars envVars

	key          string
	description  string
	defaultValue string
}

func (o confOpt) value() string {
	value := o.envVars[o.key]
	if value != "" {
		return value
	} else {
		return o.defaultValue
	}
}

type envVars map[string]string

func (v envVars) Set(value string) error {
	s := strings.SplitN(value, "=", 2)
	if len(s) != 2 {
		return fmt.Errorf("required format %s", v)
	}
	v[s[0]] = s[1]
	return nil
}

func (v envVars) String() string {
	return "<key>=<value>"
}

type envFile struct {
	envVars envVars
}

func (v envFile) Set(value string) error {
	file, err := os.Open(value)
	if err != nil {
		return err
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)

	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Text()
		if err := v.envVars.Set(line); err != nil {
			return fmt.Errorf("wrong format in line %d: required format %s", i, v.envVars)
		}
	}

	return nil
}

func (v envFile) String() string {
	return "<file>"
}
