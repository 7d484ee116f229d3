package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/crediview/crediview/internal/titles"
)

// XLSXColumns maps spreadsheet headers to title fields. Headers are
// matched case-insensitively after trimming. Amount and counterparty
// columns are required; the rest are absent-tolerant.
type XLSXColumns struct {
	Counterparty   string
	Branch         string
	Category       string
	DocumentType   string
	IssueDate      string
	DueDate        string
	PaymentDate    string
	OriginalAmount string
	Outstanding    string
}

// DefaultXLSXColumns matches the headers of the group's standard export.
func DefaultXLSXColumns() XLSXColumns {
	return XLSXColumns{
		Counterparty:   "cliente",
		Branch:         "filial",
		Category:       "categoria",
		DocumentType:   "tipo_documento",
		IssueDate:      "emissao",
		DueDate:        "vencimento",
		PaymentDate:    "pagamento",
		OriginalAmount: "valor_original",
		Outstanding:    "saldo",
	}
}

// dateLayouts tried in order when parsing spreadsheet dates.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006-01-02 15:04:05"}

// XLSXLoader reads titles from the first sheet of a spreadsheet file.
type XLSXLoader struct {
	path    string
	columns XLSXColumns
}

// NewXLSXLoader builds a loader for the given file using the standard
// column mapping.
func NewXLSXLoader(path string) *XLSXLoader {
	return &XLSXLoader{path: path, columns: DefaultXLSXColumns()}
}

// NewXLSXLoaderWithColumns builds a loader with a custom column mapping.
func NewXLSXLoaderWithColumns(path string, columns XLSXColumns) *XLSXLoader {
	return &XLSXLoader{path: path, columns: columns}
}

// Load reads the whole sheet. Row 1 must carry headers. Blank rows are
// skipped; unparseable dates become absent dates (the classifier routes
// those to its Unclassified bucket); malformed amounts abort the load with
// a row-numbered error so a bad export never half-replaces the dataset.
func (l *XLSXLoader) Load(ctx context.Context) ([]titles.Title, error) {
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", l.path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", l.path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("spreadsheet %s: sheet %q is empty", l.path, sheet)
	}

	index := headerIndex(rows[0])
	required := []string{l.columns.Counterparty, l.columns.OriginalAmount, l.columns.Outstanding}
	for _, header := range required {
		if _, ok := index[normalizeHeader(header)]; !ok {
			return nil, fmt.Errorf("spreadsheet %s: required column %q missing", l.path, header)
		}
	}

	set := make([]titles.Title, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}
		title, err := l.parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("spreadsheet %s row %d: %w", l.path, i+1, err)
		}
		set = append(set, title)
	}
	return set, nil
}

func (l *XLSXLoader) parseRow(row []string, index map[string]int) (titles.Title, error) {
	cell := func(header string) string {
		pos, ok := index[normalizeHeader(header)]
		if !ok || pos >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[pos])
	}

	original, err := parseAmount(cell(l.columns.OriginalAmount))
	if err != nil {
		return titles.Title{}, fmt.Errorf("column %q: %w", l.columns.OriginalAmount, err)
	}
	outstanding, err := parseAmount(cell(l.columns.Outstanding))
	if err != nil {
		return titles.Title{}, fmt.Errorf("column %q: %w", l.columns.Outstanding, err)
	}
	if original < 0 || outstanding < 0 {
		return titles.Title{}, fmt.Errorf("negative amount")
	}
	if outstanding > original {
		return titles.Title{}, fmt.Errorf("outstanding %.2f exceeds original %.2f", outstanding, original)
	}

	issue, _ := parseDate(cell(l.columns.IssueDate))
	title := titles.Title{
		Counterparty:       cell(l.columns.Counterparty),
		Branch:             cell(l.columns.Branch),
		Category:           cell(l.columns.Category),
		DocumentType:       cell(l.columns.DocumentType),
		OriginalAmount:     original,
		OutstandingBalance: outstanding,
	}
	if issue != nil {
		title.IssueDate = *issue
	}
	title.DueDate, _ = parseDate(cell(l.columns.DueDate))
	title.PaymentDate, _ = parseDate(cell(l.columns.PaymentDate))
	return title, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return index
}

func normalizeHeader(h string) string {
	return titles.NormalizeSearchTerm(strings.TrimSpace(h))
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	cleaned := strings.ReplaceAll(raw, " ", "")
	// Brazilian exports use comma decimals and dot thousand separators.
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, err)
	}
	return value, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable date %q", raw)
}
