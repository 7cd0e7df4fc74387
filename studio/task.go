package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/BaSui01/podstudio/types"
)

// TaskName identifies one of the supported tasks on the wire.
type TaskName string

const (
	TaskGenerateImage    TaskName = "generateImage"
	TaskRemoveBackground TaskName = "removeBackground"
	TaskApplyDesign      TaskName = "applyDesign"
	TaskGenerateSEO      TaskName = "generateSeo"
	TaskGenerateAltText  TaskName = "generateAltText"
)

// AllTasks lists every task the dispatcher must serve.
func AllTasks() []TaskName {
	return []TaskName{
		TaskGenerateImage,
		TaskRemoveBackground,
		TaskApplyDesign,
		TaskGenerateSEO,
		TaskGenerateAltText,
	}
}

// Params is implemented by every task input type.
type Params interface {
	Validate() error
}

// Runner is the untyped face of a Task used by the dispatcher.
type Runner interface {
	Name() TaskName
	Run(ctx context.Context, raw json.RawMessage) (any, error)
}

// Task binds a name to a strongly typed handler.
type Task[P Params, R any] struct {
	name TaskName
	fn   func(ctx context.Context, params P) (R, error)
}

// NewTask creates a Task.
func NewTask[P Params, R any](name TaskName, fn func(ctx context.Context, params P) (R, error)) Task[P, R] {
	return Task[P, R]{name: name, fn: fn}
}

func (t Task[P, R]) Name() TaskName { return t.name }

// Run decodes raw into P, validates it and invokes the handler.
func (t Task[P, R]) Run(ctx context.Context, raw json.RawMessage) (any, error) {
	var params P
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &params); err != nil {
			return nil, types.NewError(types.ErrInvalidRequest, "invalid params for task "+string(t.name)).
				WithCause(err).
				WithHTTPStatus(http.StatusBadRequest)
		}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return t.fn(ctx, params)
}

// Registry maps task names to runners.
type Registry struct {
	runners map[TaskName]Runner
}

// NewRegistry registers every task in AllTasks against svc.
func NewRegistry(svc *Service) *Registry {
	return newRegistry(
		NewTask(TaskGenerateImage, svc.GenerateImage),
		NewTask(TaskRemoveBackground, svc.RemoveBackground),
		NewTask(TaskApplyDesign, svc.ApplyDesign),
		NewTask(TaskGenerateSEO, svc.GenerateSEO),
		NewTask(TaskGenerateAltText, svc.GenerateAltText),
	)
}

func newRegistry(runners ...Runner) *Registry {
	r := &Registry{runners: make(map[TaskName]Runner, len(runners))}
	for _, runner := range runners {
		r.runners[runner.Name()] = runner
	}
	return r
}

// Lookup finds the runner for an exact task name.
func (r *Registry) Lookup(name string) (Runner, bool) {
	runner, ok := r.runners[TaskName(name)]
	return runner, ok
}

// Names returns the registered task names in sorted order.
func (r *Registry) Names() []TaskName {
	names := make([]TaskName, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
