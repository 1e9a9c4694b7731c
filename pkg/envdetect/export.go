package envdetect

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type Compression string

const (
	Identity Compression = "identity"
	Zstd     Compression = "zstd"
)

type ExportOptions struct {
	EnableOpenMetrics bool
	Compression       Compression
}

func compressingWriter(w io.Writer, compression Compression) (io.Writer, func() error, error) {
	switch compression {
	case "", Identity:
		return w, func() error { return nil }, nil
	case Zstd:
		z, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, nil, err
		}

		return z, z.Close, nil
	}

	return nil, nil, fmt.Errorf("content compression format not recognized: %s. Valid formats are: %s", compression, []Compression{Identity, Zstd})
}

// WriteMetrics encodes all metrics gathered by the registry in the text exposition format
func WriteMetrics(w io.Writer, gatherer prometheus.Gatherer, opts ExportOptions) (expfmt.Format, error) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	if opts.EnableOpenMetrics {
		format = expfmt.NewFormat(expfmt.TypeOpenMetrics)
	}

	mfs, err := gatherer.Gather()
	if err != nil {
		return format, err
	}

	out, closeWriter, err := compressingWriter(w, opts.Compression)
	if err != nil {
		return format, err
	}

	enc := expfmt.NewEncoder(out, format)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			_ = closeWriter()
			return format, fmt.Errorf("failed to encode metrics family %q: %w", mf.GetName(), err)
		}
	}

	if closer, ok := enc.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			_ = closeWriter()
			return format, err
		}
	}

	return format, closeWriter()
}
