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

// Save writes obs in the two-row dataset format. The extension selects
// between CSV and a single-sheet workbook.
func Save(path string, obs dynamo.Observations) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return saveXLSX(path, obs)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := WriteCSV(f, obs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteCSV(w io.Writer, obs dynamo.Observations) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(formatRow(obs.Volumes())); err != nil {
		return err
	}
	if err := cw.Write(formatRow(obs.Times())); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func formatRow(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

func saveXLSX(path string, obs dynamo.Observations) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter("Sheet1")
	if err != nil {
		return err
	}
	for i, row := range [][]float64{obs.Volumes(), obs.Times()} {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}
