package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sre-norns/envprobe/pkg/envdetect"
	"github.com/sre-norns/envprobe/pkg/grace"
	"github.com/sre-norns/envprobe/pkg/orglookup"
)

type commandContext struct {
	Probe *orglookup.Config

	RulesFile       string
	OutputFormatter formatter
	Logger          log.Logger
	Context         context.Context
}

type outputFormat string

func (f outputFormat) AfterApply(cfg *commandContext) (err error) {
	cfg.OutputFormatter, err = getFormatter(f)
	return err
}

// loadClassifier builds a classifier from the rules file and probe flags
func (cfg *commandContext) loadClassifier(options ...envdetect.Option) (*envdetect.Classifier, error) {
	rules, err := envdetect.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	return envdetect.New(rules, append([]envdetect.Option{envdetect.WithLogger(cfg.Logger)}, options...)...)
}

func (cfg *commandContext) newProber(options ...orglookup.ProberOption) *orglookup.Prober {
	return orglookup.NewProber(*cfg.Probe, append([]orglookup.ProberOption{orglookup.WithLogger(cfg.Logger)}, options...)...)
}

func (cfg *commandContext) newMetrics() (*prometheus.Registry, *envdetect.Metrics, error) {
	registry := prometheus.NewRegistry()
	metrics, err := envdetect.NewMetrics(registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return registry, metrics, nil
}

var appCli struct {
	Probe orglookup.Config `embed:"" prefix:"probe."`

	Rules    string       `help:"Rules manifest file. Built-in rules are used if not set" type:"existingfile" env:"ENVPROBE_RULES"`
	Format   outputFormat `enum:"yaml,yml,json,table" help:"Data output format" default:"yml" short:"o"`
	LogLevel string       `enum:"debug,info,warn,error" help:"Minimal level of log messages" default:"info"`

	Classify ClassifyCmd `cmd:"" help:"Classify deployment environment of URL(s)"`
	Rule     RulesCmd    `cmd:"" name:"rules" help:"Show effective classification rules"`
	Run      RunCmd      `cmd:"" help:"Classify a list of targets and check expectations"`
}

func main() {
	mainContext := grace.SetupSignalHandler()
	cfg := &commandContext{
		Context:         mainContext,
		OutputFormatter: yamlFormatter,
		Probe:           &appCli.Probe,
	}
	appCtx := kong.Parse(&appCli,
		kong.Name("envctl"),
		kong.Description("Deployment environment classification tool"),
		kong.Bind(cfg),
	)

	cfg.RulesFile = appCli.Rules
	cfg.Logger = grace.NewLogger(os.Stderr, appCli.LogLevel)
	appCtx.FatalIfErrorf(appCtx.Run(cfg))
}
