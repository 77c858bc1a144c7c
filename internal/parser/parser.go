// Package parser turns raw employee uploads (CSV, JSON, XLSX) into validated
// records and picks the right format for a request.
package parser

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/model"
)

// Input is one raw upload plus the caller's declared hints.
type Input struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Parser converts one input format into validated records.
type Parser interface {
	// Name identifies the format, e.g. "csv".
	Name() string
	// MatchesHint selects the parser from the declared content type or filename.
	MatchesHint(contentType, filename string) bool
	// MatchesContent selects the parser by sniffing the raw content.
	MatchesContent(content []byte) bool
	// Parse returns one record per input entry or fails on the first bad entry.
	Parse(in Input) ([]model.Record, error)
}

// Default returns the standard parser set in dispatch order.
func Default(logger *zap.Logger) []Parser {
	return []Parser{
		NewXLSX(logger),
		NewCSV(logger),
		NewJSON(logger),
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), suffix)
}

// looksLikeJSON reports whether the decoded, trimmed content opens a JSON
// array or object.
func looksLikeJSON(content []byte) bool {
	text, err := DecodeText(content, "")
	if err != nil {
		return false
	}
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{")
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
