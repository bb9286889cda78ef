package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"jobwatch-engine/internal/domain"
)

// utf8BOM lets spreadsheet apps detect the encoding of the CSV export.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes recs with a header row, prefixed by a UTF-8 byte order mark.
// Like WriteWorkbook it leaves an existing file alone when recs is empty.
func WriteCSV(path string, recs []domain.JobRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, r.Row())
	}
	return WriteTable(path, domain.Columns, rows)
}

// WriteTable writes a BOM-prefixed CSV file through a temp file and rename.
func WriteTable(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.csv")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	bw := bufio.NewWriter(tmp)
	if _, err := bw.Write(utf8BOM); err != nil {
		_ = tmp.Close()
		return err
	}
	w := csv.NewWriter(bw)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ReadCSV loads records from a CSV written by WriteCSV. A missing file is an empty set.
func ReadCSV(path string) ([]domain.JobRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return recordsFromRows(rows), nil
}

// CSV is a merge baseline backed by the previous csv export.
type CSV struct {
	Path string
}

func (c CSV) Load(context.Context) ([]domain.JobRecord, error) {
	return ReadCSV(c.Path)
}
