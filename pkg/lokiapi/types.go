// Package lokiapi implements the Loki-compatible HTTP surface: it parses
// LogQL, drives it through pkg/chstore, and reshapes the decoded rows into
// the exact JSON envelopes Loki clients expect. Response shapes are
// grounded on original_source/src/logquery/mod.rs's QueryRangeResponse/
// QueryResult/StreamValue/MatrixValue/VectorValue types.
package lokiapi

// ResponseStatus is Loki's top-level "status" field.
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
)

// ResultType tags which of Streams/Matrix/Vector a QueryRangeResponse carries.
type ResultType string

const (
	ResultStreams ResultType = "streams"
	ResultMatrix  ResultType = "matrix"
	ResultVector  ResultType = "vector"
)

// StreamValue is one log stream's label set plus its [timestamp_ns, line] pairs.
type StreamValue struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// MatrixValue is one metric series' label set plus its [timestamp, value] samples.
type MatrixValue struct {
	Metric map[string]string `json:"metric"`
	Values [][2]any          `json:"values"`
}

// VectorValue is one instant-query sample: a label set plus a single
// [timestamp, value] pair.
type VectorValue struct {
	Metric map[string]string `json:"metric"`
	Value  [2]any            `json:"value"`
}

// StreamResult wraps a Streams result, tagged by ResultType for the
// untagged QueryResult union Loki clients expect.
type StreamResult struct {
	ResultType ResultType    `json:"resultType"`
	Result     []StreamValue `json:"result"`
}

// MatrixResult wraps a Matrix result.
type MatrixResult struct {
	ResultType ResultType    `json:"resultType"`
	Result     []MatrixValue `json:"result"`
}

// VectorResult wraps a Vector result.
type VectorResult struct {
	ResultType ResultType    `json:"resultType"`
	Result     []VectorValue `json:"result"`
}

// QueryRangeResponse is the envelope returned by /query_range and /query;
// Data holds one StreamResult, MatrixResult or VectorResult value, whose
// own resultType field tags which of the three it is.
type QueryRangeResponse struct {
	Status ResponseStatus `json:"status"`
	Data   any            `json:"data"`
}

// LabelsResponse serves /labels and /label/{name}/values.
type LabelsResponse struct {
	Status ResponseStatus `json:"status"`
	Data   []string       `json:"data"`
}

// SeriesResponse serves /series.
type SeriesResponse struct {
	Status ResponseStatus         `json:"status"`
	Data   []map[string]string    `json:"data"`
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func emptySeriesIfNil(ss []map[string]string) []map[string]string {
	if ss == nil {
		return []map[string]string{}
	}
	return ss
}
