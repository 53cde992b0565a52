// Package llm defines the model-invocation contract used by every pipeline
// stage. The core never parses free-form model text: each call forces a
// function call against a schema and yields only the structured arguments.
package llm

import (
	"context"
	"encoding/json"
)

// FunctionSchema describes the single function the model must call.
// Parameters is a JSON Schema object, passed through verbatim.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Request is one forced function-calling invocation. FileURI/MIMEType are set
// only for multimodal calls that reference an uploaded video.
type Request struct {
	System      string
	Prompt      string
	FileURI     string
	MIMEType    string
	Function    FunctionSchema
	MaxTokens   int
	Temperature float64
}

// CallRecorder counts model invocations for the metrics endpoint. A nil
// recorder disables counting.
type CallRecorder interface {
	IncModelCalls()
	IncModelFailures()
}

// Client invokes a model and returns the arguments of the forced function
// call. Implementations must treat a response without the expected call as a
// malformed response (apperr.ErrLLMMalformed), and may switch to a fallback
// model only on a detected rate-limit signal.
type Client interface {
	Invoke(ctx context.Context, req Request) (map[string]any, error)
}
