package export

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"corde-harvester/lib/concordance"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testRecords() []concordance.Record {
	return []concordance.Record{
		concordance.Assemble(
			concordance.Header{"N", "AÑO", "PAÍS"},
			[]string{"1", "1590", "ESPAÑA"},
		),
		concordance.Assemble(
			concordance.Header{"N", "AÑO", "PAÍS", "TEMA"},
			[]string{"2", "1602", "PERÚ", `7.Historia, "primera" parte`},
		),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, testRecords())
	require.NoError(t, err)
	require.Equal(t,
		",N,AÑO,PAÍS,TEMA\n"+
			"0,1,1590,ESPAÑA,\n"+
			`1,2,1602,PERÚ,"7.Historia, ""primera"" parte"`+"\n",
		buf.String(),
	)
}

func TestWriteXLSX(t *testing.T) {
	contents, err := WriteXLSX(testRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(contents))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"", "N", "AÑO", "PAÍS", "TEMA"},
		{"0", "1", "1590", "ESPAÑA"},
		{"1", "2", "1602", "PERÚ", `7.Historia, "primera" parte`},
	}, rows)
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	err := WriteSQLite(context.Background(), path, testRecords())
	require.NoError(t, err)
	// a second write replaces the table
	err = WriteSQLite(context.Background(), path, testRecords())
	require.NoError(t, err)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRow(`SELECT count(*) FROM concordances`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	var index int
	var country, topic string
	err = db.QueryRow(`SELECT "index", "PAÍS", "TEMA" FROM concordances WHERE "N" = '2'`).
		Scan(&index, &country, &topic)
	require.NoError(t, err)
	require.Equal(t, 1, index)
	require.Equal(t, "PERÚ", country)
	require.Equal(t, `7.Historia, "primera" parte`, topic)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 7, 9, 5, 0, 0, time.UTC)

	for format, ext := range map[string]string{
		FormatCSV:    "csv",
		FormatExcel:  "xlsx",
		FormatSQLite: "db",
	} {
		path, err := Save(context.Background(), testRecords(), format, dir, now)
		require.NoError(t, err, format)
		require.Equal(t, filepath.Join(dir, "results", "07-03-2024", "2024-03-07_09-05."+ext), path)
		_, err = os.Stat(path)
		require.NoError(t, err)
	}
}

func TestSaveErrors(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	_, err := Save(context.Background(), nil, FormatCSV, dir, now)
	require.ErrorIs(t, err, ErrEmptyHarvest)

	_, err = Save(context.Background(), testRecords(), "parquet", dir, now)
	require.ErrorIs(t, err, ErrUnknownFormat)
	require.ErrorContains(t, err, "csv, excel, sqlite")

	_, err = os.Stat(filepath.Join(dir, "results"))
	require.True(t, os.IsNotExist(err))
}
