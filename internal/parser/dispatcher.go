package parser

import (
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/model"
)

// Dispatcher picks a parser for an upload: declared hints first, then
// content sniffing, in registration order.
type Dispatcher struct {
	parsers []Parser
	log     *zap.Logger
}

// NewDispatcher returns a Dispatcher over parsers. With no parsers it uses
// Default.
func NewDispatcher(logger *zap.Logger, parsers ...Parser) *Dispatcher {
	logger = orNop(logger)
	if len(parsers) == 0 {
		parsers = Default(logger)
	}
	return &Dispatcher{parsers: parsers, log: logger}
}

// Select returns the parser for in without parsing it.
func (d *Dispatcher) Select(in Input) (Parser, error) {
	for _, p := range d.parsers {
		if p.MatchesHint(in.ContentType, in.Filename) {
			d.log.Debug("parser selected by hint",
				zap.String("parser", p.Name()),
				zap.String("content_type", in.ContentType),
				zap.String("filename", in.Filename),
			)
			return p, nil
		}
	}

	for _, p := range d.parsers {
		if p.MatchesContent(in.Content) {
			d.log.Debug("parser selected by content", zap.String("parser", p.Name()))
			return p, nil
		}
	}

	return nil, &model.UnsupportedFormatError{ContentType: in.ContentType, Filename: in.Filename}
}

// Parse selects a parser for in and runs it. It returns the records and the
// name of the parser used.
func (d *Dispatcher) Parse(in Input) ([]model.Record, string, error) {
	p, err := d.Select(in)
	if err != nil {
		return nil, "", err
	}
	records, err := p.Parse(in)
	if err != nil {
		return nil, p.Name(), err
	}
	return records, p.Name(), nil
}
