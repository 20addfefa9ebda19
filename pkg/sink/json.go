package sink

import (
	"encoding/json"

	"github.com/matzehuels/gridroute/pkg/buildinfo"
	"github.com/matzehuels/gridroute/pkg/router"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	runID   string
	costMap bool
	compact bool
}

// WithJSONRunID records the id of the run that produced the result.
func WithJSONRunID(id string) JSONOption { return func(r *jsonRenderer) { r.runID = id } }

// WithJSONCostMap keeps the per-cell cost map. It is dropped by default
// because it dwarfs the rest of the document.
func WithJSONCostMap() JSONOption { return func(r *jsonRenderer) { r.costMap = true } }

// WithJSONCompact disables indentation.
func WithJSONCompact() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

type jsonOutput struct {
	RunID     string `json:"run_id,omitempty"`
	Generator string `json:"generator"`
	*router.Result
}

// RenderJSON encodes res. The document round-trips through [ReadJSON].
func RenderJSON(res *router.Result, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := *res
	if !r.costMap {
		out.CostMap = nil
	}
	doc := jsonOutput{RunID: r.runID, Generator: buildinfo.Host(), Result: &out}
	if r.compact {
		return json.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ReadJSON decodes a document written by [RenderJSON].
func ReadJSON(data []byte) (*router.Result, string, error) {
	var doc jsonOutput
	doc.Result = &router.Result{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", err
	}
	return doc.Result, doc.RunID, nil
}
