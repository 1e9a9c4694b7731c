package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sre-norns/envprobe/pkg/batch"
	"github.com/sre-norns/envprobe/pkg/client"
	"github.com/sre-norns/envprobe/pkg/envdetect"
)

type RunCmd struct {
	client.ApiClientConfig `embed:""`

	File     string        `name:"file" help:"Target list: a TargetList manifest or a plain list of URLs, '-' reads STDIN" short:"f" required:""`
	KeepLogs bool          `help:"Include per-target diagnostic logs in the report"`
	Timeout  time.Duration `help:"Timeout of the whole run" default:"10m"`
}

type report batch.Report

func (r report) header() table.Row {
	return table.Row{"Target", "Environment", "Method", "Expected", "Passed"}
}

func (r report) rows() []table.Row {
	rows := make([]table.Row, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		expected := ""
		if o.Target.Expect != nil {
			expected = fmt.Sprintf("%s %s", o.Target.Expect.Environment, o.Target.Expect.Method)
		}

		passed := fmt.Sprint(o.Passed)
		if o.Error != "" {
			passed = o.Error
		}

		rows = append(rows, table.Row{o.Target.DisplayName(), o.Result.Environment, o.Result.Method, expected, passed})
	}
	return rows
}

func (c *RunCmd) Run(cfg *commandContext) error {
	targets, err := batch.LoadTargets(c.File)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cfg.Context, c.Timeout)
	defer cancel()

	var result batch.Report
	if c.ApiServerAddress != "" {
		apiClient, err := c.NewClient()
		if err != nil {
			return err
		}
		if result, err = apiClient.Batch(ctx, targets); err != nil {
			return err
		}
	} else {
		result, err = c.runLocal(ctx, cfg, targets)
		if err != nil {
			return err
		}
	}

	if err := cfg.OutputFormatter(report(result)); err != nil {
		return err
	}

	if result.Status != batch.StatusSuccess {
		return fmt.Errorf("run %s: %d of %d target(s) did not pass", result.Status, result.Failed, len(result.Outcomes))
	}

	return nil
}

func (c *RunCmd) runLocal(ctx context.Context, cfg *commandContext, targets batch.TargetList) (batch.Report, error) {
	var options []envdetect.Option
	if !cfg.Probe.Disabled {
		options = append(options, envdetect.WithLookup(cfg.newProber()))
	}

	classifier, err := cfg.loadClassifier(options...)
	if err != nil {
		return batch.Report{}, err
	}

	return batch.Run(ctx, func(logger log.Logger) batch.Classifier {
		return classifier.WithLogger(logger)
	}, targets, batch.RunOptions{
		KeepLogs: c.KeepLogs,
		Logger:   cfg.Logger,
	}), nil
}
