package llm

import (
	"context"
	"sync"
)

// fakeService returns queued results in order and counts calls
type fakeService struct {
	mu      sync.Mutex
	calls   int
	results []fakeResult
	block   chan struct{} // when set, Complete waits on it
	entered chan struct{}
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeService) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	f.mu.Lock()
	f.calls++
	var r fakeResult
	if len(f.results) > 0 {
		r = f.results[0]
		if len(f.results) > 1 {
			f.results = f.results[1:]
		}
	}
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if r.err != nil {
		return nil, r.err
	}
	return &Completion{Text: r.text}, nil
}

func (f *fakeService) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
