package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/model"
)

var zipMagic = []byte("PK\x03\x04")

// XLSX reads employees from the first sheet of a workbook, one row per
// employee in the same column order as CSV. Row numbers in errors are the
// sheet's own 1-based row numbers.
type XLSX struct {
	log *zap.Logger
}

// NewXLSX returns an XLSX parser. A nil logger discards output.
func NewXLSX(logger *zap.Logger) *XLSX {
	return &XLSX{log: orNop(logger)}
}

func (p *XLSX) Name() string { return "xlsx" }

// MatchesHint claims spreadsheet content types unless the filename names a
// text format: clients commonly label .csv files application/vnd.ms-excel.
func (p *XLSX) MatchesHint(contentType, filename string) bool {
	if hasSuffixFold(filename, ".xlsx") {
		return true
	}
	if hasSuffixFold(filename, ".csv") || hasSuffixFold(filename, ".json") {
		return false
	}
	return containsFold(contentType, "spreadsheetml") ||
		containsFold(contentType, "ms-excel")
}

func (p *XLSX) MatchesContent(content []byte) bool {
	return bytes.HasPrefix(content, zipMagic)
}

func (p *XLSX) Parse(in Input) ([]model.Record, error) {
	p.log.Debug("parsing xlsx content", zap.Int("bytes", len(in.Content)))

	if len(bytes.TrimSpace(in.Content)) == 0 {
		return nil, model.InvalidXLSX("Empty content")
	}

	f, err := xlsx.OpenBinary(in.Content)
	if err != nil {
		return nil, &model.FormatError{Kind: model.FormatXLSX, Reason: "Unreadable workbook: " + err.Error(), Err: err}
	}
	if len(f.Sheets) == 0 {
		return nil, model.InvalidXLSX("Workbook has no sheets")
	}

	var records []model.Record
	for i, row := range f.Sheets[0].Rows {
		if row == nil {
			continue
		}
		cells := rowValues(row, f.Date1904)
		if blankRow(cells) {
			continue
		}

		r, err := parseXLSXRow(cells)
		if err != nil {
			p.log.Warn("xlsx row rejected", zap.Int("row", i+1), zap.Error(err))
			return nil, model.WrapEntry(model.FormatXLSX, fmt.Sprintf("row %d", i+1), err)
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return nil, model.InvalidXLSX("Empty content")
	}

	p.log.Info("parsed xlsx records", zap.Int("count", len(records)))
	return records, nil
}

func parseXLSXRow(cells []string) (model.Record, error) {
	if len(cells) < csvFields {
		return model.Record{}, model.InvalidXLSX(
			fmt.Sprintf("Expected 4 fields (name, email, tel, joined), got %d", len(cells)))
	}
	return model.ParseRecord(cells[0], cells[1], cells[2], cells[3])
}

// rowValues renders each cell as text. Date-formatted cells come back as
// yyyy-MM-dd so they pass the date parser regardless of the sheet's format.
func rowValues(row *xlsx.Row, date1904 bool) []string {
	values := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		if cell.IsTime() {
			if t, err := cell.GetTime(date1904); err == nil {
				values[j] = model.DateOf(t).String()
				continue
			}
		}
		values[j] = strings.TrimSpace(cell.String())
	}
	return values
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
