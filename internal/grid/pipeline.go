package grid

import (
	"strings"

	"github.com/cybernet-io/leadgrid/internal/db"
)

// Pipeline applies an ordered sequence of filter descriptors to a query by
// sequential AND-narrowing. The first failing descriptor aborts the whole
// sequence; the caller never observes a partially-filtered query.
type Pipeline struct {
	dispatcher *Dispatcher
}

// NewPipeline creates a pipeline over the given schema and custom-field
// table.
func NewPipeline(schema Schema, custom CustomFields) *Pipeline {
	return &Pipeline{dispatcher: NewDispatcher(schema, custom)}
}

// Apply runs every descriptor against q in order and returns the narrowed
// query. String values are trimmed of surrounding whitespace before casting.
func (p *Pipeline) Apply(q *db.Query, descriptors []Descriptor) (*db.Query, error) {
	for _, dsc := range descriptors {
		if s, ok := dsc.Value.(string); ok {
			dsc.Value = strings.TrimSpace(s)
		}
		var err error
		q, err = p.dispatcher.Apply(q, dsc)
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}
