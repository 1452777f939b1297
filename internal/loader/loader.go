// Package loader ingests financial statement CSV files into snapshots.
// It detects column roles (account code, account name, period values) from
// headers and content, cleans rows, and degrades gracefully: a malformed
// row is skipped, never fatal for the rest of the file.
package loader

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/pkg/models"
)

// Loader reads statement files and assembles snapshots.
type Loader struct {
	mapper *account.Mapper
	log    *slog.Logger
}

// NewLoader creates a loader using the account mapping for category and
// statement-side resolution.
func NewLoader(mapper *account.Mapper, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{mapper: mapper, log: log}
}

// Load reads a snapshot from path. A directory is expected to contain a
// balance sheet file and an income statement file (detected by filename);
// a single file may either carry a statement_type column or rely on the
// account mapping to split rows between statements.
func (l *Loader) Load(path string) (*models.Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input not found: %w", err)
	}
	if info.IsDir() {
		return l.loadDir(path)
	}
	return l.loadFile(path)
}

func (l *Loader) loadDir(dir string) (*models.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	var bsPath, isPath string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		name := strings.ToLower(e.Name())
		switch {
		case strings.Contains(name, "balance") || strings.HasPrefix(name, "bs"):
			bsPath = filepath.Join(dir, e.Name())
		case strings.Contains(name, "income") || strings.HasPrefix(name, "is") || strings.Contains(name, "pl"):
			isPath = filepath.Join(dir, e.Name())
		}
	}
	if bsPath == "" && isPath == "" {
		return nil, fmt.Errorf("no statement files found in %s", dir)
	}

	snap := &models.Snapshot{
		Metadata: map[string]any{"input_path": dir, "loaded_at": time.Now().UTC().Format(time.RFC3339)},
	}
	if bsPath != "" {
		items, periods, err := l.parseStatement(bsPath, models.BalanceSheet)
		if err != nil {
			return nil, err
		}
		snap.BalanceSheet = items
		snap.Periods = periods
	}
	if isPath != "" {
		items, periods, err := l.parseStatement(isPath, models.IncomeStatement)
		if err != nil {
			return nil, err
		}
		snap.IncomeStatement = items
		if len(periods) > len(snap.Periods) {
			snap.Periods = periods
		}
	}
	return snap, nil
}

func (l *Loader) loadFile(path string) (*models.Snapshot, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	layout, ok := detectLayout(rows)
	if !ok {
		return nil, fmt.Errorf("no account code column found in %s", path)
	}

	snap := &models.Snapshot{
		Periods:  layout.periods,
		Metadata: map[string]any{"input_path": path, "loaded_at": time.Now().UTC().Format(time.RFC3339)},
	}

	for _, row := range rows[1:] {
		item, ok := l.parseRow(row, layout)
		if !ok {
			continue
		}
		st := l.statementFor(row, layout, item.AccountCode)
		item.StatementType = st
		if st == models.IncomeStatement {
			snap.IncomeStatement = append(snap.IncomeStatement, item)
		} else {
			snap.BalanceSheet = append(snap.BalanceSheet, item)
		}
	}
	return snap, nil
}

func (l *Loader) parseStatement(path string, st models.StatementType) ([]models.LineItem, []string, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	layout, ok := detectLayout(rows)
	if !ok {
		return nil, nil, fmt.Errorf("no account code column found in %s", path)
	}

	items := make([]models.LineItem, 0, len(rows)-1)
	for _, row := range rows[1:] {
		item, ok := l.parseRow(row, layout)
		if !ok {
			continue
		}
		item.StatementType = st
		items = append(items, item)
	}
	l.log.Debug("parsed statement", "path", path, "statement", string(st), "items", len(items), "periods", len(layout.periods))
	return items, layout.periods, nil
}

func (l *Loader) parseRow(row []string, lay layout) (models.LineItem, bool) {
	if lay.accountCol >= len(row) {
		return models.LineItem{}, false
	}
	code := strings.TrimSpace(row[lay.accountCol])
	if code == "" || strings.EqualFold(code, "nan") {
		return models.LineItem{}, false
	}

	name := code
	if lay.nameCol >= 0 && lay.nameCol < len(row) && strings.TrimSpace(row[lay.nameCol]) != "" {
		name = strings.TrimSpace(row[lay.nameCol])
	}
	if info, ok := l.mapper.Lookup(code); ok && name == code {
		name = info.Name
	}

	values := make(map[string]float64, len(lay.periodCols))
	for i, col := range lay.periodCols {
		if col >= len(row) {
			continue
		}
		v, err := parseNumber(row[col])
		if err != nil {
			// Non-numeric cell: treated as missing, not an error.
			continue
		}
		values[lay.periods[i]] = v
	}

	return models.LineItem{
		AccountCode: code,
		AccountName: name,
		Category:    l.mapper.Category(code),
		Values:      values,
	}, true
}

func (l *Loader) statementFor(row []string, lay layout, code string) models.StatementType {
	if lay.statementCol >= 0 && lay.statementCol < len(row) {
		v := strings.ToLower(strings.TrimSpace(row[lay.statementCol]))
		switch {
		case strings.Contains(v, "income") || v == "is" || strings.Contains(v, "p&l"):
			return models.IncomeStatement
		case strings.Contains(v, "balance") || v == "bs":
			return models.BalanceSheet
		}
	}
	if info, ok := l.mapper.Lookup(code); ok {
		return info.StatementType
	}
	return models.BalanceSheet
}

// layout describes the detected column roles of a statement table.
type layout struct {
	accountCol   int
	nameCol      int // -1 when absent
	statementCol int // -1 when absent
	periodCols   []int
	periods      []string
}

// detectLayout resolves column roles from the header row and a content
// sample: keyword match first, then numeric-prefix sniffing for the
// account column, and trailing numeric columns as chronological periods.
func detectLayout(rows [][]string) (layout, bool) {
	if len(rows) < 2 {
		return layout{}, false
	}
	header := rows[0]

	lay := layout{accountCol: -1, nameCol: -1, statementCol: -1}
	for i, h := range header {
		col := strings.ToLower(strings.TrimSpace(h))
		switch {
		case lay.accountCol < 0 && (strings.Contains(col, "account_code") || strings.Contains(col, "code") || col == "account"):
			lay.accountCol = i
		case lay.nameCol < 0 && (strings.Contains(col, "name") || strings.Contains(col, "description")):
			lay.nameCol = i
		case lay.statementCol < 0 && strings.Contains(col, "statement"):
			lay.statementCol = i
		}
	}

	// Fall back to the first column if most of its values look like codes.
	if lay.accountCol < 0 && looksLikeCodes(rows, 0) {
		lay.accountCol = 0
	}
	if lay.accountCol < 0 {
		return layout{}, false
	}

	// Remaining columns whose values parse as numbers are period columns,
	// kept in natural order (chronological by contract).
	for i, h := range header {
		if i == lay.accountCol || i == lay.nameCol || i == lay.statementCol {
			continue
		}
		if columnIsNumeric(rows, i) {
			lay.periodCols = append(lay.periodCols, i)
			lay.periods = append(lay.periods, strings.TrimSpace(h))
		}
	}
	return lay, true
}

func looksLikeCodes(rows [][]string, col int) bool {
	matches, total := 0, 0
	for _, row := range rows[1:] {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		total++
		v := strings.TrimSpace(row[col])
		if v[0] >= '0' && v[0] <= '9' {
			matches++
		}
	}
	return total > 0 && matches*2 > total
}

func columnIsNumeric(rows [][]string, col int) bool {
	numeric, total := 0, 0
	for _, row := range rows[1:] {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		total++
		if _, err := parseNumber(row[col]); err == nil {
			numeric++
		}
	}
	return total > 0 && numeric*2 > total
}

func parseNumber(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	cleaned = strings.TrimPrefix(cleaned, "(")
	negative := false
	if strings.HasSuffix(cleaned, ")") {
		cleaned = strings.TrimSuffix(cleaned, ")")
		negative = true
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file: %s", path)
	}
	return rows, nil
}
