// Package export writes harvested records to csv, xlsx or sqlite files.
package export

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"corde-harvester/lib/concordance"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("corde.lib.export")

var (
	ErrEmptyHarvest  = errors.New("no records were harvested")
	ErrUnknownFormat = errors.New("unknown export format")
)

const (
	FormatCSV    = "csv"
	FormatExcel  = "excel"
	FormatSQLite = "sqlite"
)

// Formats lists the accepted format names.
var Formats = []string{FormatCSV, FormatExcel, FormatSQLite}

const (
	sheetName = "Concordancias"
	tableName = "concordances"
	// name of the row index column in sqlite output, csv and xlsx leave
	// its header cell empty
	indexColumn = "index"
)

// Extension returns the file extension written for a format.
func Extension(format string) (string, error) {
	switch format {
	case FormatCSV:
		return "csv", nil
	case FormatExcel:
		return "xlsx", nil
	case FormatSQLite:
		return "db", nil
	}
	return "", fmt.Errorf(
		"%w %q, expected one of: %s",
		ErrUnknownFormat, format, strings.Join(Formats, ", "),
	)
}

// Path is where Save writes a harvest finished at now:
// <dir>/results/<dd-mm-YYYY>/<YYYY-mm-dd_HH-MM>.<ext>
func Path(dir string, now time.Time, ext string) string {
	return filepath.Join(
		dir, "results",
		now.Format("02-01-2006"),
		now.Format("2006-01-02_15-04")+"."+ext,
	)
}

// rows lays records out under columns, a column missing from a record is
// left empty.
func rows(records []concordance.Record, columns []string) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		values := r.Map()
		row := make([]string, len(columns))
		for j, c := range columns {
			row[j] = values[c]
		}
		out[i] = row
	}
	return out
}

func WriteCSV(w io.Writer, records []concordance.Record) error {
	columns := concordance.Columns(records)
	writer := csv.NewWriter(w)

	err := writer.Write(append([]string{""}, columns...))
	if err != nil {
		return err
	}
	for i, row := range rows(records, columns) {
		err = writer.Write(append([]string{strconv.Itoa(i)}, row...))
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteXLSX(records []concordance.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName("Sheet1", sheetName)
	if err != nil {
		return nil, err
	}

	columns := concordance.Columns(records)
	for i, c := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		err = f.SetCellValue(sheetName, cell, c)
		if err != nil {
			return nil, err
		}
	}
	for i, row := range rows(records, columns) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		err = f.SetCellValue(sheetName, cell, i)
		if err != nil {
			return nil, err
		}
		for j, value := range row {
			if value == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+2, i+2)
			err = f.SetCellValue(sheetName, cell, value)
			if err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// WriteSQLite writes records into a fresh concordances table of the
// database at path, replacing any previous file.
func WriteSQLite(ctx context.Context, path string, records []concordance.Record) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	columns := concordance.Columns(records)
	defs := []string{quoteIdent(indexColumn) + " INTEGER"}
	names := []string{quoteIdent(indexColumn)}
	for _, c := range columns {
		defs = append(defs, quoteIdent(c)+" TEXT")
		names = append(names, quoteIdent(c))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE %s (%s)",
		tableName, strings.Join(defs, ", "),
	))
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(names, ", "), placeholders,
	))
	if err != nil {
		return err
	}
	defer insert.Close()

	for i, row := range rows(records, columns) {
		args := make([]any, 0, len(row)+1)
		args = append(args, i)
		for _, value := range row {
			args = append(args, value)
		}
		_, err = insert.ExecContext(ctx, args...)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Save writes records in format under dir and returns the written path.
func Save(ctx context.Context, records []concordance.Record, format, dir string, now time.Time) (string, error) {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("format", format),
		attribute.Int("records", len(records)),
	)

	ext, err := Extension(format)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", ErrEmptyHarvest
	}

	path := Path(dir, now, ext)
	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatCSV:
		var buf bytes.Buffer
		err = WriteCSV(&buf, records)
		if err == nil {
			err = os.WriteFile(path, buf.Bytes(), 0644)
		}
	case FormatExcel:
		var contents []byte
		contents, err = WriteXLSX(records)
		if err == nil {
			err = os.WriteFile(path, contents, 0644)
		}
	case FormatSQLite:
		err = WriteSQLite(ctx, path, records)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write export")
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	slog.DebugContext(ctx, "saved harvest", "path", path, "records", len(records))
	return path, nil
}
