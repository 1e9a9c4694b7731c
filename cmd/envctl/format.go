package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

type formatter func(any) error

// tabular values have a table rendering
type tabular interface {
	header() table.Row
	rows() []table.Row
}

func yamlFormatter(resource any) error {
	return writeYaml(os.Stdout, resource)
}

func jsonFormatter(resource any) error {
	return writeJson(os.Stdout, resource)
}

func tableFormatter(resource any) error {
	return writeTable(os.Stdout, resource)
}

func writeYaml(w io.Writer, resource any) error {
	data, err := yaml.Marshal(resource)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

func writeJson(w io.Writer, resource any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "\t")

	return encoder.Encode(resource)
}

// writeTable renders tabular values, anything else falls back to YAML
func writeTable(w io.Writer, resource any) error {
	data, ok := resource.(tabular)
	if !ok {
		return writeYaml(w, resource)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(data.header())
	t.AppendRows(data.rows())
	t.Render()

	return nil
}

func getFormatter(formatName outputFormat) (formatter, error) {
	switch formatName {
	case "yaml", "yml":
		return yamlFormatter, nil
	case "json":
		return jsonFormatter, nil
	case "table":
		return tableFormatter, nil
	}

	return nil, fmt.Errorf("unexpected output format %q", formatName)
}
