package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sre-norns/envprobe/pkg/envdetect"
	"github.com/sre-norns/envprobe/pkg/kinds"
)

type RulesCmd struct {
	Lint   bool   `help:"Report rule findings instead of the rules"`
	Strict bool   `help:"With --lint, fail if there are any findings"`
	Name   string `help:"Name of the produced manifest" default:"effective"`
}

type findings []string

func (f findings) header() table.Row {
	return table.Row{"#", "Finding"}
}

func (f findings) rows() []table.Row {
	rows := make([]table.Row, 0, len(f))
	for i, finding := range f {
		rows = append(rows, table.Row{i + 1, finding})
	}
	return rows
}

// rulesView keeps manifest serialization and adds a table rendering
type rulesView struct {
	kinds.Manifest
}

func (v rulesView) header() table.Row {
	return table.Row{"Order", "Method", "Match", "Environment"}
}

func (v rulesView) rows() []table.Row {
	rules, ok := v.Spec.(*envdetect.Rules)
	if !ok {
		return nil
	}

	var rows []table.Row
	order := 0
	next := func(method envdetect.Method, match string, env envdetect.Environment) {
		order++
		rows = append(rows, table.Row{order, method, match, env})
	}

	for _, id := range rules.OrganizationIDs() {
		next(envdetect.MethodOrgID, id, rules.Organizations[id])
	}
	for _, h := range rules.Hostnames {
		next(envdetect.MethodHostname, h.Fragment, h.Environment)
	}
	for _, c := range rules.Categories {
		for _, p := range c.Patterns {
			next(envdetect.MethodURLPattern, p, c.Environment)
		}
	}

	return rows
}

func (c *RulesCmd) Run(cfg *commandContext) error {
	rules, err := envdetect.LoadRules(cfg.RulesFile)
	if err != nil {
		return err
	}

	if !c.Lint {
		return cfg.OutputFormatter(rulesView{rules.ToManifest(c.Name)})
	}

	warnings := findings(rules.Warnings())
	if err := cfg.OutputFormatter(warnings); err != nil {
		return err
	}

	if c.Strict && len(warnings) > 0 {
		return fmt.Errorf("rules lint: %d finding(s)", len(warnings))
	}

	return nil
}
