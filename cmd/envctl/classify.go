package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-kit/log/level"
	"github.com/google/martian/har"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sre-norns/envprobe/pkg/client"
	"github.com/sre-norns/envprobe/pkg/envdetect"
	"github.com/sre-norns/envprobe/pkg/httpapi"
	"github.com/sre-norns/envprobe/pkg/orglookup"
)

type ClassifyCmd struct {
	client.ApiClientConfig `embed:""`

	URLs        []string      `arg:"" name:"url" help:"URL(s) to classify"`
	ContentFile string        `help:"Page content to scan for organization IDs, '-' reads STDIN" name:"content-file" short:"c"`
	SaveHAR     string        `help:"Save HAR recording of probe requests to the file" name:"save-har" type:"path"`
	MetricsFile string        `help:"Write classification metrics to the file in text exposition format, '.zst' files are compressed" name:"metrics-file" type:"path"`
	Timeout     time.Duration `help:"Timeout of the whole command" default:"1m"`
}

type classifications []httpapi.ClassifyResponse

func (c classifications) header() table.Row {
	return table.Row{"URL", "Environment", "Confidence", "Method", "Source"}
}

func (c classifications) rows() []table.Row {
	rows := make([]table.Row, 0, len(c))
	for _, r := range c {
		rows = append(rows, table.Row{r.URL, r.Environment, r.Confidence, r.Method, r.Source})
	}
	return rows
}

func readContentFile(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}

	var content []byte
	var err error
	if filename == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(filename)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content file %q: %w", filename, err)
	}

	return string(content), nil
}

func (c *ClassifyCmd) Run(cfg *commandContext) error {
	content, err := readContentFile(c.ContentFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cfg.Context, c.Timeout)
	defer cancel()

	var results classifications
	if c.ApiServerAddress != "" {
		if c.SaveHAR != "" || c.MetricsFile != "" {
			return fmt.Errorf("--save-har and --metrics-file are not supported with --server")
		}
		results, err = c.classifyRemote(ctx, content)
	} else {
		results, err = c.classifyLocal(ctx, cfg, content)
	}
	if err != nil {
		return err
	}

	return cfg.OutputFormatter(results)
}

func (c *ClassifyCmd) classifyRemote(ctx context.Context, content string) (classifications, error) {
	apiClient, err := c.NewClient()
	if err != nil {
		return nil, err
	}

	results := make(classifications, 0, len(c.URLs))
	for _, u := range c.URLs {
		result, err := apiClient.Classify(ctx, u, content)
		if err != nil {
			return results, fmt.Errorf("failed to classify %q: %w", u, err)
		}
		results = append(results, httpapi.ClassifyResponse{URL: u, Result: result})
	}

	return results, nil
}

func (c *ClassifyCmd) classifyLocal(ctx context.Context, cfg *commandContext, content string) (classifications, error) {
	options := []envdetect.Option{}

	var recorder *har.Logger
	if !cfg.Probe.Disabled {
		var proberOptions []orglookup.ProberOption
		if c.SaveHAR != "" {
			recorder = orglookup.NewRecorder()
			proberOptions = append(proberOptions, orglookup.WithRecorder(recorder))
		}
		options = append(options, envdetect.WithLookup(cfg.newProber(proberOptions...)))
	}

	registry, metrics, err := cfg.newMetrics()
	if err != nil {
		return nil, err
	}
	options = append(options, envdetect.WithMetrics(metrics))

	classifier, err := cfg.loadClassifier(options...)
	if err != nil {
		return nil, err
	}

	results := make(classifications, 0, len(c.URLs))
	for _, u := range c.URLs {
		results = append(results, httpapi.ClassifyResponse{
			URL:    u,
			Result: classifier.Classify(ctx, u, content),
		})
	}

	if recorder != nil {
		data, err := orglookup.ExportHAR(recorder)
		if err != nil {
			return results, err
		}
		if err := os.WriteFile(c.SaveHAR, data, 0644); err != nil {
			return results, fmt.Errorf("failed to write HAR file: %w", err)
		}
		level.Debug(cfg.Logger).Log("msg", "HAR recording saved", "file", c.SaveHAR)
	}

	if c.MetricsFile != "" {
		if err := writeMetricsFile(c.MetricsFile, registry); err != nil {
			return results, err
		}
	}

	return results, nil
}
