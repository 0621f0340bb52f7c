package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrEmpty     = errors.New("file is empty")
	ErrNoRows    = errors.New("file has a header but no rows")
	ErrBadHeader = errors.New("header has an empty or duplicate column")
	ErrCharset   = errors.New("unsupported charset")
)

// ReadCSV parses a comma separated file with a header row. charset names the source
// encoding ("" or "utf-8" for UTF-8); the input is converted to UTF-8 and a leading
// byte order mark is dropped.
func ReadCSV(r io.Reader, charset string) (*Table, error) {
	dec, err := decoderFor(charset)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv.ErrFieldCount is reported here for ragged rows
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	return &Table{Columns: header, Rows: rows}, nil
}

// WriteCSV writes the header and rows with "\n" line endings. Output depends only on the
// table contents.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Bytes renders the table as CSV.
func Bytes(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decoderFor(charset string) (transform.Transformer, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	if name == "" || name == "utf-8" || name == "utf8" {
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrCharset, charset, err)
	}
	return unicode.BOMOverride(enc.NewDecoder()), nil
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, column := range header {
		name := strings.TrimSpace(column)
		if name == "" || seen[name] {
			return fmt.Errorf("%w: %q", ErrBadHeader, column)
		}
		seen[name] = true
	}
	return nil
}
