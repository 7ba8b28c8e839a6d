package daemon

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/gclaussn/go-bpmn-diagram/http/server"
)

func Run(args []string) int {
	conf := newConf()

	flags := flag.NewFlagSet("go-bpmn-diagramd", flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	flags.Var(&conf.envFile.envVars, "env", "set environment variables")
	flags.Var(&conf.envFile, "env-file", "read in a file of environment variables")

	var doListConfOpts bool
	flags.BoolVar(&doListConfOpts, "list-conf-opts", false, "list configuration options")
	var doListConf bool
	flags.BoolVar(&doListConf, "list-conf", false, "list configuration")
	var doVersion bool
	flags.BoolVar(&doVersion, "version", false, "show version")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		} else {
			return 1
		}
	}

	if doListConfOpts {
		return listConfOpts(conf)
	}
	if doListConf {
		return listConf(conf)
	}
	if doVersion {
		return showVersion()
	}

	config, errs := conf.parse()
	if code := listConfErrors(errs); code != 0 {
		return code
	}

	charmlog.SetDefault(newLogger(os.Stderr, config))

	diagramStore, err := newStore(config)
	if err != nil {
		log.Printf("failed to create %s store: %v", config.Store, err)
		return 1
	}

	s, err := server.New(diagramStore, func(o *server.Options) {
		*o = config.serverOptions()
	})
	if err != nil {
		diagramStore.Shutdown()
		log.Printf("failed to create HTTP server: %v", err)
		return 1
	}

	s.ListenAndServe()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	s.Shutdown()
	log.Println("server shut down")

	return 0
}
