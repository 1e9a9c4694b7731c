// Package batch runs classification over lists of target URLs and checks expectations.
package batch

import (
	"context"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/sre-norns/envprobe/pkg/envdetect"
)

// Status of a batch run
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusError   Status = "errored"
)

// Classifier is the part of envdetect.Classifier a batch needs
type Classifier interface {
	Classify(ctx context.Context, targetURL string, content string) envdetect.Result
}

type Outcome struct {
	Target Target           `json:"target" yaml:"target" xml:"target"`
	Result envdetect.Result `json:"result" yaml:"result" xml:"result"`
	Passed bool             `json:"passed" yaml:"passed" xml:"passed"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty" xml:"error,omitempty"`

	// Log is the diagnostic transcript of the classification, only kept when requested
	Log string `json:"log,omitempty" yaml:"log,omitempty" xml:"log,omitempty"`
}

type Report struct {
	Status   Status    `json:"status" yaml:"status" xml:"status"`
	Passed   int       `json:"passed" yaml:"passed" xml:"passed"`
	Failed   int       `json:"failed" yaml:"failed" xml:"failed"`
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes" xml:"outcomes"`
}

type RunOptions struct {
	// KeepLogs attaches the diagnostic transcript to every outcome
	KeepLogs bool
	Logger   log.Logger
}

// ClassifierFactory builds a classifier logging to the given logger
type ClassifierFactory func(logger log.Logger) Classifier

// Run classifies every target in order. Unreadable content files fail the target and
// mark the report as errored; remaining targets are still classified.
func Run(ctx context.Context, newClassifier ClassifierFactory, targets TargetList, options RunOptions) Report {
	logger := options.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	report := Report{
		Status:   StatusSuccess,
		Outcomes: make([]Outcome, 0, len(targets.Targets)),
	}

	for i, target := range targets.Targets {
		level.Info(logger).Log("msg", fmt.Sprintf("target %d/%d", i+1, len(targets.Targets)), "name", target.DisplayName())

		outcome := Outcome{Target: target}

		content, err := targets.content(target)
		if err != nil {
			level.Error(logger).Log("msg", "failed to read target content", "name", target.DisplayName(), "err", err)
			outcome.Error = err.Error()
			report.Status = StatusError
			report.Failed++
			report.Outcomes = append(report.Outcomes, outcome)
			continue
		}

		runLog := NewRunLog(logger)
		outcome.Result = newClassifier(runLog).Classify(ctx, target.URL, content)
		outcome.Passed = target.Expect.Met(outcome.Result)
		if options.KeepLogs {
			outcome.Log = runLog.String()
		}

		if outcome.Passed {
			report.Passed++
		} else {
			report.Failed++
			if report.Status == StatusSuccess {
				report.Status = StatusFailed
			}
			level.Warn(logger).Log("msg", "expectation not met", "name", target.DisplayName(), "environment", outcome.Result.Environment, "method", outcome.Result.Method)
		}

		report.Outcomes = append(report.Outcomes, outcome)
	}

	return report
}

func (l TargetList) content(t Target) (string, error) {
	if t.ContentFile == "" {
		return t.Content, nil
	}

	data, err := os.ReadFile(l.resolve(t.ContentFile))
	if err != nil {
		return "", err
	}

	return t.Content + string(data), nil
}
