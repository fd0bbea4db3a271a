package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/ports"
)

// Runner executes backend operations through a ports.TaskCaller.
//
// Busy is reference counted: it turns on with the first in-flight call and
// off when the last one settles, so one spinner covers any number of
// concurrent calls. Runner does not serialize calls.
type Runner struct {
	caller ports.TaskCaller

	mu            sync.Mutex
	busyHooks     []func(bool)
	inFlight      int
	progressHooks []func(domain.LogRecord)

	notifyMu     sync.Mutex
	lastNotified bool
}

// NewRunner creates a Runner over the given caller
func NewRunner(caller ports.TaskCaller) *Runner {
	return &Runner{caller: caller}
}

// OnBusyChange registers a hook called whenever the busy flag flips
func (r *Runner) OnBusyChange(fn func(busy bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busyHooks = append(r.busyHooks, fn)
}

// OnProgress registers a hook receiving every progress record of every task
func (r *Runner) OnProgress(fn func(record domain.LogRecord)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progressHooks = append(r.progressHooks, fn)
}

// Busy reports whether any call is in flight or a hold is active
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight > 0
}

// Hold marks the runner busy until the returned release func is called.
// Calling release more than once has no further effect.
func (r *Runner) Hold() func() {
	r.mu.Lock()
	r.inFlight++
	r.mu.Unlock()
	r.notifyBusy()
	return r.releaser()
}

// TryHold is Hold guarded by the runner being idle. It returns false without
// holding when something is already in flight.
func (r *Runner) TryHold() (func(), bool) {
	r.mu.Lock()
	if r.inFlight > 0 {
		r.mu.Unlock()
		return nil, false
	}
	r.inFlight++
	r.mu.Unlock()
	r.notifyBusy()
	return r.releaser(), true
}

func (r *Runner) releaser() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.inFlight--
			r.mu.Unlock()
			r.notifyBusy()
		})
	}
}

// notifyBusy reports the current busy state to hooks if it differs from the
// last one reported. Reading the state under notifyMu keeps hooks from
// seeing transitions out of order.
func (r *Runner) notifyBusy() {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	busy := r.inFlight > 0
	hooks := append([]func(bool){}, r.busyHooks...)
	r.mu.Unlock()

	if busy == r.lastNotified {
		return
	}
	r.lastNotified = busy
	for _, fn := range hooks {
		fn(busy)
	}
}

func (r *Runner) emit(record domain.LogRecord) {
	r.mu.Lock()
	hooks := append([]func(domain.LogRecord){}, r.progressHooks...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(record)
	}
}

// Run calls op with args encoded as JSON and returns the raw result.
// Transport faults and in-band failure payloads are both returned as *Error.
func (r *Runner) Run(ctx context.Context, op string, args ...any) (json.RawMessage, error) {
	return r.run(ctx, op, true, args)
}

// RunQuiet is Run without touching the busy flag, for lazy reads that must
// not block the UI or the busy guard
func (r *Runner) RunQuiet(ctx context.Context, op string, args ...any) (json.RawMessage, error) {
	return r.run(ctx, op, false, args)
}

func (r *Runner) run(ctx context.Context, op string, trackBusy bool, args []any) (json.RawMessage, error) {
	taskID := uuid.New().String()

	rawArgs, err := encodeArgs(args)
	if err != nil {
		logging.Logger.Error("Failed to encode task arguments", "op", op, "task_id", taskID, "error", err)
		return nil, &Error{Err: err, Kind: KindOther, Message: fmt.Sprintf("failed to encode arguments: %v", err), Op: op}
	}

	if trackBusy {
		release := r.Hold()
		defer release()
	}

	logging.Logger.Debug("Task started", "op", op, "task_id", taskID, "args", len(rawArgs))
	start := time.Now()

	progress := func(record domain.LogRecord) {
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		if record.Task == "" {
			record.Task = op
		}
		if record.Time.IsZero() {
			record.Time = time.Now()
		}
		r.emit(record)
	}

	result, err := r.caller.Call(ctx, op, progress, rawArgs)
	if err != nil {
		logging.Logger.Error("Task transport failure", "op", op, "task_id", taskID, "error", err)
		return nil, &Error{Err: err, Kind: KindTransport, Message: err.Error(), Op: op}
	}

	if failure, ok := decodeFailure(op, result); ok {
		logging.Logger.Warn("Task failed",
			"op", op,
			"task_id", taskID,
			"kind", failure.Kind,
			"msg", failure.Message)
		return nil, failure
	}

	logging.Logger.Debug("Task finished", "op", op, "task_id", taskID, "duration", time.Since(start))
	return result, nil
}

// Call runs op and decodes its result into T
func Call[T any](ctx context.Context, r *Runner, op string, args ...any) (T, error) {
	raw, err := r.Run(ctx, op, args...)
	return decode[T](op, raw, err)
}

// CallQuiet is Call without touching the busy flag
func CallQuiet[T any](ctx context.Context, r *Runner, op string, args ...any) (T, error) {
	raw, err := r.RunQuiet(ctx, op, args...)
	return decode[T](op, raw, err)
}

func decode[T any](op string, raw json.RawMessage, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, &Error{Err: err, Kind: KindOther, Message: fmt.Sprintf("failed to decode result: %v", err), Op: op}
	}
	return out, nil
}

func encodeArgs(args []any) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		if m, ok := arg.(json.RawMessage); ok {
			raw = append(raw, m)
			continue
		}
		data, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		raw = append(raw, data)
	}
	return raw, nil
}
