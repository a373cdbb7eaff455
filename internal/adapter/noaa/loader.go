package noaa

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
)

// Loader reads climdiv state files into climate tables.
type Loader struct {
	years  domain.YearRange
	logger *slog.Logger
}

// NewLoader creates a Loader that keeps rows whose year falls inside years.
func NewLoader(years domain.YearRange, logger *slog.Logger) *Loader {
	return &Loader{years: years, logger: logger}
}

// LoadFile opens path and parses it as the climdiv file for v.
func (l *Loader) LoadFile(path string, v domain.Variable) (*domain.ClimateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s climate file: %w", v, err)
	}
	defer f.Close()

	table, err := l.Read(f, v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.logger.Info("climate file loaded", "variable", string(v), "path", path, "rows", table.Len())
	return table, nil
}

// Read parses climdiv lines from r. Blank lines are skipped; any other line
// that fails to parse aborts the read.
func (l *Loader) Read(r io.Reader, v domain.Variable) (*domain.ClimateTable, error) {
	table := domain.NewClimateTable(v)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := domain.ParseClimateLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !l.years.Contains(rec.Year) {
			continue
		}
		table.Add(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s climate data: %w", v, err)
	}
	return table, nil
}
