package llm

// GenerateRequest is a single generation request against a model.
// It is also the JSON body posted to the generate endpoint.
type GenerateRequest struct {
	// Model identifies the backend model (e.g. "phi3", "llama3")
	Model string `json:"model"`

	// Prompt is the flattened conversation, see BuildPrompt
	Prompt string `json:"prompt"`

	// Stream asks the backend for incremental output when true
	Stream bool `json:"stream"`
}

// NewGenerateRequest builds the request for a new user message on top of the
// provided history.
func NewGenerateRequest(model, message string, history []Turn, stream bool) GenerateRequest {
	return GenerateRequest{
		Model:  model,
		Prompt: BuildPrompt(history, message),
		Stream: stream,
	}
}
