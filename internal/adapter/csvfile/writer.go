package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/jszwec/csvutil"
)

// Writer produces the intermediate climate CSV and the final feature CSV.
// Each output is the original columns followed by the derived ones.
type Writer struct {
	climatePath string
	outputPath  string
	logger      *slog.Logger
}

// NewWriter creates a Writer. An empty climatePath skips the intermediate file.
func NewWriter(climatePath, outputPath string, logger *slog.Logger) *Writer {
	return &Writer{climatePath: climatePath, outputPath: outputPath, logger: logger}
}

// WriteClimate writes the fires with their climate columns.
func (w *Writer) WriteClimate(ctx context.Context, header []string, fires []domain.EnrichedFire) error {
	if w.climatePath == "" {
		return nil
	}
	return w.writeFile(ctx, w.climatePath, func(out io.Writer) error {
		return EncodeClimate(out, header, fires)
	}, len(fires))
}

// WriteFeatures writes the fires with every derived column.
func (w *Writer) WriteFeatures(ctx context.Context, header []string, fires []domain.EnrichedFire) error {
	return w.writeFile(ctx, w.outputPath, func(out io.Writer) error {
		return EncodeFeatures(out, header, fires)
	}, len(fires))
}

// writeFile encodes into a temp file next to path and renames it into place,
// so a failed run never leaves a truncated output.
func (w *Writer) writeFile(ctx context.Context, path string, encode func(io.Writer) error, rows int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	if err := encode(bw); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}

	w.logger.Info("output written", "path", path, "rows", rows)
	return nil
}

// EncodeClimate writes header+climate columns and one row per fire.
func EncodeClimate(out io.Writer, header []string, fires []domain.EnrichedFire) error {
	return encodeRows(out, header, fires, func(f domain.EnrichedFire) any {
		return f.Features.ClimateFeatures
	}, domain.ClimateFeatures{})
}

// EncodeFeatures writes header+all derived columns and one row per fire.
func EncodeFeatures(out io.Writer, header []string, fires []domain.EnrichedFire) error {
	return encodeRows(out, header, fires, func(f domain.EnrichedFire) any {
		return f.Features
	}, domain.Features{})
}

func encodeRows(out io.Writer, header []string, fires []domain.EnrichedFire, derived func(domain.EnrichedFire) any, headerValue any) error {
	cw := csv.NewWriter(out)
	pw := &prefixWriter{w: cw, prefix: header}

	enc := csvutil.NewEncoder(pw)
	enc.AutoHeader = false
	if err := enc.EncodeHeader(headerValue); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range fires {
		pw.prefix = fires[i].Fire.Raw
		if err := enc.Encode(derived(fires[i])); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// prefixWriter prepends the original columns to every record csvutil emits.
type prefixWriter struct {
	w      *csv.Writer
	prefix []string
}

func (p *prefixWriter) Write(record []string) error {
	row := make([]string, 0, len(p.prefix)+len(record))
	row = append(row, p.prefix...)
	row = append(row, record...)
	return p.w.Write(row)
}
