// Package data reads and writes observation datasets and generates
// synthetic ones.
//
// A dataset is two numeric rows of equal length: volumes first, then the
// matching observation times. Rows containing an empty field are skipped.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

// Load reads a dataset from a .csv/.txt or .xlsx file.
func Load(path string) (dynamo.Observations, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err := readXLSX(path)
		if err != nil {
			return nil, err
		}
		return parseRows(rows)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()
		return LoadCSV(f)
	}
}

// LoadCSV reads a comma-separated dataset.
func LoadCSV(r io.Reader) (dynamo.Observations, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows)
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", dynamo.ErrDataShape)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func parseRows(rows [][]string) (dynamo.Observations, error) {
	var numeric [][]float64
	for i, row := range rows {
		if len(row) == 0 || hasEmptyField(row) {
			continue
		}
		values := make([]float64, len(row))
		for j, field := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", i+1, j+1, err)
			}
			values[j] = v
		}
		numeric = append(numeric, values)
	}

	if len(numeric) != 2 {
		return nil, fmt.Errorf("%w: want 2 complete rows (volumes, times), got %d", dynamo.ErrDataShape, len(numeric))
	}
	obs, err := dynamo.NewObservations(numeric[0], numeric[1])
	if err != nil {
		return nil, err
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	return obs, nil
}

func hasEmptyField(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}
