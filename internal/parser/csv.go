package parser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/model"
)

// csvFields is the fixed column order: name, email, tel, joined.
const csvFields = 4

// CSV parses headerless comma separated lines of name, email, tel, joined.
// Fields are not quoted; extra fields beyond the fourth are ignored.
type CSV struct {
	log *zap.Logger
}

// NewCSV returns a CSV parser. A nil logger discards output.
func NewCSV(logger *zap.Logger) *CSV {
	return &CSV{log: orNop(logger)}
}

func (p *CSV) Name() string { return "csv" }

func (p *CSV) MatchesHint(contentType, filename string) bool {
	return containsFold(contentType, "csv") ||
		containsFold(contentType, "text/plain") ||
		hasSuffixFold(filename, ".csv")
}

// MatchesContent accepts anything that is not obviously JSON.
func (p *CSV) MatchesContent(content []byte) bool {
	return !looksLikeJSON(content)
}

func (p *CSV) Parse(in Input) ([]model.Record, error) {
	text, err := DecodeText(in.Content, in.ContentType)
	if err != nil {
		return nil, err
	}
	return p.ParseText(text)
}

// ParseText parses already decoded CSV text. Blank lines are skipped and
// line numbers in errors count only the non-blank lines.
func (p *CSV) ParseText(text string) ([]model.Record, error) {
	p.log.Debug("parsing csv content", zap.Int("bytes", len(text)))

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, model.InvalidCSV("Empty content")
	}

	records := make([]model.Record, 0, len(lines))
	for i, line := range lines {
		r, err := parseCSVLine(line)
		if err != nil {
			p.log.Warn("csv line rejected", zap.Int("line", i+1), zap.Error(err))
			return nil, model.WrapEntry(model.FormatCSV, fmt.Sprintf("line %d", i+1), err)
		}
		records = append(records, r)
	}

	p.log.Info("parsed csv records", zap.Int("count", len(records)))
	return records, nil
}

func parseCSVLine(line string) (model.Record, error) {
	parts := strings.Split(line, ",")
	if len(parts) < csvFields {
		return model.Record{}, model.InvalidCSV(
			fmt.Sprintf("Expected 4 fields (name, email, tel, joined), got %d", len(parts)))
	}
	for i := range parts[:csvFields] {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return model.ParseRecord(parts[0], parts[1], parts[2], parts[3])
}
