package codegen

const (
	// ErrorCodeUnsupportedCombination means no generator serves the
	// protocol and framework
	ErrorCodeUnsupportedCombination = "UNSUPPORTED_PROTOCOL_FRAMEWORK_COMBINATION"

	// ErrorCodeTemplateRenderFailure means a generator could not render or
	// check its output
	ErrorCodeTemplateRenderFailure = "TEMPLATE_RENDER_FAILURE"

	// ErrorCodeIOFailure means the output could not be written; everything
	// written by the request has been rolled back
	ErrorCodeIOFailure = "IO_FAILURE"
)

// GenerationError provides structured error information for a failed
// generation
type GenerationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newError(code, message string, err error) *GenerationError {
	return &GenerationError{Code: code, Message: message, Err: err}
}
