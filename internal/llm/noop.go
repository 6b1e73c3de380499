package llm

import "context"

// Noop never reaches a model. Analysis with it always takes the heuristic path.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Name() string { return ProviderNoop }

func (n *Noop) Send(_ context.Context, _ Request) (Response, error) {
	return Response{}, ErrDisabled
}

// Scripted returns canned responses in order, then repeats the last one.
// It is meant for offline runs and tests.
type Scripted struct {
	Responses []Response
	Errors    []error
	Requests  []Request
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) Send(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	i := len(s.Requests)
	s.Requests = append(s.Requests, req)

	if i < len(s.Errors) && s.Errors[i] != nil {
		return Response{}, s.Errors[i]
	}
	if len(s.Responses) == 0 {
		return Response{}, ErrInvalidResponse
	}
	if i >= len(s.Responses) {
		i = len(s.Responses) - 1
	}
	return s.Responses[i], nil
}
