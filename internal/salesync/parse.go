package salesync

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one raw export row: a string-keyed mapping with unknown columns.
type Row map[string]string

// ErrHTMLResponse marks a body that is an HTML page rather than data. That
// is how an expired or gated export URL manifests, so it must surface as a
// download failure, never as an empty dataset.
var ErrHTMLResponse = errors.New("export url returned an html page instead of data")

// IsHTML reports whether the response is an HTML error page masquerading as
// a successful download.
func IsHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := strings.ToLower(string(bytes.TrimSpace(body)))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

// ParsePayload turns a raw export body into an ordered list of row
// mappings, accepting JSON, XLSX or header-driven CSV.
func ParsePayload(body []byte, contentType string) ([]Row, error) {
	if IsHTML(contentType, body) {
		return nil, ErrHTMLResponse
	}

	trimmed := bytes.TrimSpace(body)
	ct := strings.ToLower(contentType)

	if strings.Contains(ct, "json") || bytes.HasPrefix(trimmed, []byte("[")) || bytes.HasPrefix(trimmed, []byte("{")) {
		return parseJSON(trimmed)
	}
	if strings.Contains(ct, "spreadsheetml") || strings.Contains(ct, "ms-excel") || bytes.HasPrefix(trimmed, []byte("PK\x03\x04")) {
		return parseXLSX(body)
	}
	return parseCSV(body)
}

func parseJSON(body []byte) ([]Row, error) {
	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		return jsonRows(raw), nil
	}

	var wrapped struct {
		Rows []map[string]any `json:"rows"`
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("parse json payload: %w", err)
	}
	if wrapped.Rows != nil {
		return jsonRows(wrapped.Rows), nil
	}
	return jsonRows(wrapped.Data), nil
}

func jsonRows(raw []map[string]any) []Row {
	rows := make([]Row, 0, len(raw))
	for _, m := range raw {
		row := make(Row, len(m))
		for k, v := range m {
			switch val := v.(type) {
			case nil:
				row[k] = ""
			case string:
				row[k] = val
			case float64:
				row[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				row[k] = fmt.Sprintf("%t", val)
			default:
				row[k] = fmt.Sprintf("%v", val)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func parseCSV(body []byte) ([]Row, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1 // ragged rows happen in grouped exports

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv payload: %w", err)
	}
	return recordsToRows(records), nil
}

// parseXLSX reads the first sheet of an XLSX export, treating the first row
// as the header exactly like the CSV path.
func parseXLSX(body []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("open xlsx payload: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx payload has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return recordsToRows(records), nil
}

func recordsToRows(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = strings.TrimSpace(col)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}
		row := make(Row, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// Headers returns the distinct column names across the first row, used for
// schema-drift diagnostics in the sync summary.
func Headers(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	headers := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers
}
