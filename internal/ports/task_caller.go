package ports

import (
	"context"
	"encoding/json"

	"github.com/renato0307/modshell/internal/domain"
)

// ProgressFunc receives log records emitted while a task runs
type ProgressFunc func(record domain.LogRecord)

// TaskCaller executes named operations on the mod backend.
//
// A returned error is a transport fault. Operation failures may instead come
// back as a payload shaped {"error": kind, "msg": ..., "backtrace": ...}.
type TaskCaller interface {
	Call(ctx context.Context, op string, progress ProgressFunc, args []json.RawMessage) (json.RawMessage, error)
}

// Backend operations
const (
	OpAddMod         = "add_mod"
	OpApply          = "apply"
	OpConvertMod     = "convert_mod"
	OpCurrentProfile = "current_profile"
	OpMods           = "mods"
	OpParseMod       = "parse_mod"
	OpPreview        = "preview"
	OpProfiles       = "profiles"
)
