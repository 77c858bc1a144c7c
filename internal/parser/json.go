package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/model"
)

// employeeJSON is the wire shape of one employee. encoding/json matches
// keys case-insensitively, so "Name" and "NAME" decode too.
type employeeJSON struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Tel    string `json:"tel"`
	Joined string `json:"joined"`
}

// JSON parses either an array of employee objects or a single object.
type JSON struct {
	log *zap.Logger
}

// NewJSON returns a JSON parser. A nil logger discards output.
func NewJSON(logger *zap.Logger) *JSON {
	return &JSON{log: orNop(logger)}
}

func (p *JSON) Name() string { return "json" }

func (p *JSON) MatchesHint(contentType, filename string) bool {
	return containsFold(contentType, "json") || hasSuffixFold(filename, ".json")
}

func (p *JSON) MatchesContent(content []byte) bool {
	return looksLikeJSON(content)
}

func (p *JSON) Parse(in Input) ([]model.Record, error) {
	text, err := DecodeText(in.Content, in.ContentType)
	if err != nil {
		return nil, err
	}
	return p.ParseText(text)
}

// ParseText parses already decoded JSON text.
func (p *JSON) ParseText(text string) ([]model.Record, error) {
	p.log.Debug("parsing json content", zap.Int("bytes", len(text)))

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, model.InvalidJSON("Empty content")
	}

	var items []*employeeJSON
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			p.log.Warn("json array rejected", zap.Error(err))
			return nil, &model.FormatError{Kind: model.FormatJSON, Reason: err.Error(), Err: err}
		}
	} else {
		var single *employeeJSON
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			p.log.Warn("json object rejected", zap.Error(err))
			return nil, &model.FormatError{Kind: model.FormatJSON, Reason: err.Error(), Err: err}
		}
		if single != nil {
			items = append(items, single)
		}
	}

	records := make([]model.Record, 0, len(items))
	for i, item := range items {
		locator := fmt.Sprintf("element %d", i+1)
		if item == nil {
			return nil, model.InvalidJSON(fmt.Sprintf("Error at %s: null employee", locator))
		}
		r, err := model.ParseRecord(item.Name, item.Email, item.Tel, item.Joined)
		if err != nil {
			p.log.Warn("json element rejected", zap.Int("element", i+1), zap.Error(err))
			return nil, model.WrapEntry(model.FormatJSON, locator, err)
		}
		records = append(records, r)
	}

	p.log.Info("parsed json records", zap.Int("count", len(records)))
	return records, nil
}
