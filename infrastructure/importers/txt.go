package importers

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

var _ ports.Importer = (*TxtImporter)(nil)

// TxtImporter reads whitespace-separated numeric text files: one or
// two columns, where a single column becomes data over an index axis
// and two columns become axis values plus data.
//
// Leading comment lines of the form `# key: value` are collected into
// the dataset metadata; the keys axis_quantity, axis_unit,
// data_quantity, and data_unit additionally label the axes.
type TxtImporter struct {
	source     string
	parameters map[string]any
}

// NewTxtImporter creates an importer for the given source path.
func NewTxtImporter(source string) *TxtImporter {
	return &TxtImporter{source: source}
}

// SetParameters passes importer parameters from the dataset
// declaration. The txt importer honors "skip_lines".
func (t *TxtImporter) SetParameters(params map[string]any) { t.parameters = params }

// ImportInto reads the source and populates data, axes, and metadata.
func (t *TxtImporter) ImportInto(ctx context.Context, ds *domain.Dataset) error {
	file, err := os.Open(t.source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer file.Close()

	skip := 0
	if v, ok := t.parameters["skip_lines"].(int); ok {
		skip = v
	}

	metadata := domain.Metadata{}
	var x, y []float64
	columns := 0

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		text := strings.TrimSpace(scanner.Text())
		if line <= skip || text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if key, value, found := strings.Cut(strings.TrimSpace(text[1:]), ":"); found {
				metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
			continue
		}
		fields := strings.Fields(text)
		if columns == 0 {
			columns = len(fields)
			if columns > 2 {
				return fmt.Errorf("line %d: expected 1 or 2 columns, got %d", line, columns)
			}
		}
		if len(fields) != columns {
			return fmt.Errorf("line %d: expected %d columns, got %d", line, columns, len(fields))
		}
		values := make([]float64, len(fields))
		for i, field := range fields {
			if values[i], err = strconv.ParseFloat(field, 64); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
		}
		if columns == 2 {
			x = append(x, values[0])
			y = append(y, values[1])
		} else {
			y = append(y, values[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	if len(y) == 0 {
		return fmt.Errorf("source %q contains no data", t.source)
	}

	axis := domain.Axis{Values: x}
	if q, ok := metadata["axis_quantity"].(string); ok {
		axis.Quantity = q
	}
	if u, ok := metadata["axis_unit"].(string); ok {
		axis.Unit = u
	}
	intensity := domain.Axis{}
	if q, ok := metadata["data_quantity"].(string); ok {
		intensity.Quantity = q
	}
	if u, ok := metadata["data_unit"].(string); ok {
		intensity.Unit = u
	}

	ds.Data = domain.Data{
		Values: y,
		Shape:  []int{len(y)},
		Axes:   []domain.Axis{axis, intensity},
	}
	if len(metadata) > 0 {
		ds.Metadata = metadata
	}
	return nil
}
