package testsupport

import (
	"context"
	"sync"

	"callboard/internal/payload"
	"callboard/internal/provider"
	"callboard/internal/services"
)

// FakeProvider is a scripted provider.API for tests. Responses are fixed up
// front; calls are recorded under a mutex so concurrent pollers can share it.
type FakeProvider struct {
	mu sync.Mutex

	CreateResult provider.CreateTaskResult
	CreateErr    error
	Statuses     map[string]provider.TaskStatus
	StatusErrs   map[string]error

	createCalls []payload.Payload
	statusCalls []string
}

func (f *FakeProvider) CreateTask(ctx context.Context, body payload.Payload) (provider.CreateTaskResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, body)
	if f.CreateErr != nil {
		return provider.CreateTaskResult{}, f.CreateErr
	}
	return f.CreateResult, nil
}

func (f *FakeProvider) TaskStatus(ctx context.Context, taskID string) (provider.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, taskID)
	if err, ok := f.StatusErrs[taskID]; ok {
		return provider.TaskStatus{}, err
	}
	if status, ok := f.Statuses[taskID]; ok {
		return status, nil
	}
	return provider.TaskStatus{}, services.Wrap(services.ErrProviderPoll, "fake_provider", "task_status", "unknown task "+taskID, nil)
}

// CreateCalls returns the submitted payloads in call order.
func (f *FakeProvider) CreateCalls() []payload.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]payload.Payload(nil), f.createCalls...)
}

// StatusCalls returns the polled task ids in call order.
func (f *FakeProvider) StatusCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.statusCalls...)
}
