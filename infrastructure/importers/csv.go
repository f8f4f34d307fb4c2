package importers

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.Importer = (*CsvImporter)(nil)

// CsvImporter reads comma-separated numeric files with one or two
// columns. A non-numeric first row is treated as a header naming the
// axis quantities.
type CsvImporter struct {
	source     string
	parameters map[string]any
}

// NewCsvImporter creates an importer for the given source path.
func NewCsvImporter(source string) *CsvImporter {
	return &CsvImporter{source: source}
}

// SetParameters passes importer parameters from the dataset
// declaration. The csv importer honors "separator".
func (c *CsvImporter) SetParameters(params map[string]any) { c.parameters = params }

// ImportInto reads the source and populates data, axes, and metadata.
func (c *CsvImporter) ImportInto(ctx context.Context, ds *domain.Dataset) error {
	file, err := os.Open(c.source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	if sep, ok := c.parameters["separator"].(string); ok && len(sep) == 1 {
		reader.Comma = rune(sep[0])
	}
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse source: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("source %q contains no data", c.source)
	}

	axis := domain.Axis{}
	intensity := domain.Axis{}
	start := 0
	if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
		// Header row names the quantities.
		if len(records[0]) >= 2 {
			axis.Quantity = records[0][0]
			intensity.Quantity = records[0][1]
		} else {
			intensity.Quantity = records[0][0]
		}
		start = 1
	}

	var x, y []float64
	for i, record := range records[start:] {
		switch len(record) {
		case 1:
			v, err := strconv.ParseFloat(record[0], 64)
			if err != nil {
				return fmt.Errorf("row %d: %w", start+i+1, err)
			}
			y = append(y, v)
		case 2:
			xv, err := strconv.ParseFloat(record[0], 64)
			if err != nil {
				return fmt.Errorf("row %d: %w", start+i+1, err)
			}
			yv, err := strconv.ParseFloat(record[1], 64)
			if err != nil {
				return fmt.Errorf("row %d: %w", start+i+1, err)
			}
			x = append(x, xv)
			y = append(y, yv)
		default:
			return fmt.Errorf("row %d: expected 1 or 2 columns, got %d", start+i+1, len(record))
		}
	}
	if len(y) == 0 {
		return fmt.Errorf("source %q contains no data", c.source)
	}

	axis.Values = x
	ds.Data = domain.Data{
		Values: y,
		Shape:  []int{len(y)},
		Axes:   []domain.Axis{axis, intensity},
	}
	return nil
}
