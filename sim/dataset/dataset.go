// Package dataset exports the per-tick snapshot series of a run as a
// spreadsheet (.xlsx) or a flat .csv file, one row per tick.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ed-sim/ed-sim/sim"
)

// RunInfo describes the run that produced a dataset.
type RunInfo struct {
	RunID          string
	Seed           int64
	Horizon        int64
	MinutesPerTick int
	StartTime      time.Time
}

const (
	snapshotSheet = "snapshots"
	runSheet      = "run"
	timeLayout    = time.RFC3339
)

// Write exports snaps to path, choosing the format by extension.
func Write(path string, snaps []sim.Snapshot, info RunInfo) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return fmt.Errorf("unsupported dataset format %q; valid: .csv, .xlsx", ext)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	if ext == ".csv" {
		return WriteCSV(file, snaps)
	}
	return WriteXLSX(file, snaps, info)
}

// header returns the column names shared by every row. An empty series
// still gets the tick and time columns.
func header(snaps []sim.Snapshot) []string {
	if len(snaps) == 0 {
		return []string{"tick", "time"}
	}
	return snaps[0].Header()
}

// WriteCSV writes the header and one row per snapshot.
func WriteCSV(w io.Writer, snaps []sim.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(snaps)); err != nil {
		return err
	}
	for _, s := range snaps {
		row := make([]string, 0, len(s.Fields)+2)
		row = append(row, strconv.FormatInt(s.Tick, 10), s.Time.Format(timeLayout))
		for _, f := range s.Fields {
			row = append(row, strconv.FormatFloat(f.Value, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a "snapshots" sheet (styled, frozen
// header) and a "run" sheet holding info as key/value rows.
func WriteXLSX(w io.Writer, snaps []sim.Snapshot, info RunInfo) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(snapshotSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	cols := header(snaps)
	if err := writeRow(f, snapshotSheet, 1, toAny(cols)); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(snapshotSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return fmt.Errorf("failed to convert column number: %w", err)
	}
	if err := f.SetColWidth(snapshotSheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(snapshotSheet, "B", "B", 22); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	for i, s := range snaps {
		row := make([]any, 0, len(s.Fields)+2)
		row = append(row, s.Tick, s.Time.Format(timeLayout))
		for _, fld := range s.Fields {
			row = append(row, fld.Value)
		}
		if err := writeRow(f, snapshotSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(snapshotSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	if err := writeRunSheet(f, info, len(snaps)); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRunSheet(f *excelize.File, info RunInfo, rows int) error {
	if _, err := f.NewSheet(runSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	meta := [][]any{
		{"run_id", info.RunID},
		{"seed", info.Seed},
		{"horizon", info.Horizon},
		{"minutes_per_tick", info.MinutesPerTick},
		{"start_time", info.StartTime.Format(timeLayout)},
		{"ticks_recorded", rows},
	}
	for i, kv := range meta {
		if err := writeRow(f, runSheet, i+1, kv); err != nil {
			return err
		}
	}
	return f.SetColWidth(runSheet, "A", "B", 24)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
