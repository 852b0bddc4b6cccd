package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hpungsan/langroutes/internal/config"
	"github.com/hpungsan/langroutes/internal/country"
	"github.com/hpungsan/langroutes/internal/errors"
	"github.com/hpungsan/langroutes/internal/table"
)

// Export formats.
const (
	FormatJSONL = "jsonl"
	FormatXLSX  = "xlsx"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Language string
	Path     string // required; .jsonl or .xlsx, directly in an allowed export directory
	Format   string // optional; must agree with the Path extension
	TopN     *int   // rows on the xlsx ranking sheet (nil means table.DefaultTopN)
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	Language   string `json:"language"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	LangroutesExport bool   `json:"_langroutes_export"`
	SchemaVersion    string `json:"schema_version"`
	Language         string `json:"language"`
	SnapshotID       string `json:"snapshot_id"`
	ExportedAt       int64  `json:"exported_at"`
}

// Export writes a language's table to a JSONL or xlsx file.
// The destination is checked by ValidateExportPath first. The file is
// written to a temp path and renamed into place, so an existing file
// survives a failed export.
func Export(ctx context.Context, src Source, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	if err := ValidateExportPath(input.Path, cfg); err != nil {
		return nil, err
	}
	format, err := exportFormat(input.Format, input.Path)
	if err != nil {
		return nil, err
	}
	_, topN, err := parseTopParams(string(table.FieldPopulation), input.TopN)
	if err != nil {
		return nil, err
	}

	loaded, err := Load(ctx, src, LoadInput{Language: input.Language})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	write := func(w io.Writer) error {
		if format == FormatXLSX {
			return writeXLSX(w, loaded, topN)
		}
		return writeJSONL(w, loaded, now)
	}
	if err := writeFileAtomic(input.Path, write); err != nil {
		return nil, err
	}

	return &ExportOutput{
		Path:       input.Path,
		Format:     format,
		Language:   loaded.Language,
		Count:      loaded.Table.Len(),
		ExportedAt: now.Unix(),
	}, nil
}

// exportFormat returns the format implied by the path extension.
// An explicit format must name the same one.
func exportFormat(format, path string) (string, error) {
	implied := exportExtensions[strings.ToLower(filepath.Ext(path))]
	format = strings.ToLower(strings.TrimSpace(format))
	switch {
	case format == "":
		return implied, nil
	case format != FormatJSONL && format != FormatXLSX:
		return "", errors.NewInvalidRequest("format must be one of: jsonl, xlsx")
	case format != implied:
		return "", errors.NewInvalidRequest(fmt.Sprintf("format %s does not match the path extension", format))
	}
	return format, nil
}

func writeJSONL(w io.Writer, loaded *LoadOutput, now time.Time) error {
	enc := json.NewEncoder(w)
	header := ExportHeader{
		LangroutesExport: true,
		SchemaVersion:    "1.0",
		Language:         loaded.Language,
		SnapshotID:       loaded.Table.ID(),
		ExportedAt:       now.Unix(),
	}
	if err := enc.Encode(header); err != nil {
		return errors.NewInternal(err)
	}
	for _, c := range loaded.Table.All() {
		if err := enc.Encode(c); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// Sheet names used in xlsx exports.
const (
	SheetCountries = "Countries"
	SheetTop       = "Top by population"
)

var countryColumns = []string{
	"Name", "Capital", "Region", "Languages", "Currency", "Start of week",
	"Borders", "Area (km²)", "Population", "Flag", "Map",
}

func countryRow(c country.Country) []any {
	return []any{
		c.Name, c.Capital, c.Region, c.Languages, c.Currency, c.StartOfWeekDisplay(),
		c.BordersDisplay(), c.Area, c.Population, c.FlagURL, c.MapURL,
	}
}

func writeXLSX(w io.Writer, loaded *LoadOutput, topN int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCountries); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := f.NewSheet(SheetTop); err != nil {
		return errors.NewInternal(err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.NewInternal(err)
	}

	rows := make([][]any, 0, loaded.Table.Len())
	for _, c := range loaded.Table.All() {
		rows = append(rows, countryRow(c))
	}
	if err := writeSheet(f, SheetCountries, countryColumns, rows, headerStyle); err != nil {
		return err
	}

	top, err := loaded.Table.Top(table.FieldPopulation, topN)
	if err != nil {
		return err
	}
	rows = rows[:0]
	for i, c := range top {
		rows = append(rows, []any{i + 1, c.Name, c.Population})
	}
	if err := writeSheet(f, SheetTop, []string{"Rank", "Name", "Population"}, rows, headerStyle); err != nil {
		return err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to write excel buffer: %w", err))
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.NewInternal(err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return errors.NewInternal(err)
	}

	for r, row := range rows {
		for i, v := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.NewInternal(err)
			}
		}
	}
	return nil
}

// writeFileAtomic writes through a temp file in the target's directory
// and renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if err := write(file); err != nil {
		return err
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}
	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
