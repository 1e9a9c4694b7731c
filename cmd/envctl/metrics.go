package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sre-norns/envprobe/pkg/envdetect"
)

func writeMetricsFile(filename string, gatherer prometheus.Gatherer) error {
	opts := envdetect.ExportOptions{}
	if filepath.Ext(filename) == ".zst" {
		opts.Compression = envdetect.Zstd
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer file.Close()

	if _, err := envdetect.WriteMetrics(file, gatherer, opts); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

	return file.Close()
}
