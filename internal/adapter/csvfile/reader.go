package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/jszwec/csvutil"
)

// Reader loads the fire table from a CSV file.
// It implements pipeline.FireSource.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader creates a Reader for the CSV at path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logger}
}

// ReadFires decodes every row of the fire CSV.
func (r *Reader) ReadFires(ctx context.Context) (domain.FireTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.FireTable{}, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		return domain.FireTable{}, fmt.Errorf("open fire table: %w", err)
	}
	defer f.Close()

	table, err := DecodeFires(f)
	if err != nil {
		return domain.FireTable{}, fmt.Errorf("%s: %w", r.path, err)
	}
	r.logger.Info("fire table loaded", "path", r.path, "rows", len(table.Fires), "columns", len(table.Header))
	return table, nil
}

// DecodeFires decodes a fire CSV. The header must contain every column
// FireRecord maps; other columns are carried through in FireRecord.Raw.
func DecodeFires(r io.Reader) (domain.FireTable, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return domain.FireTable{}, fmt.Errorf("read fire header: %w", err)
	}
	dec.DisallowMissingColumns = true

	table := domain.FireTable{Header: append([]string(nil), dec.Header()...)}
	for {
		var fire domain.FireRecord
		if err := dec.Decode(&fire); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return domain.FireTable{}, fmt.Errorf("decode fire row %d: %w", len(table.Fires)+1, err)
		}
		fire.Raw = append([]string(nil), dec.Record()...)
		table.Fires = append(table.Fires, fire)
	}
	return table, nil
}
