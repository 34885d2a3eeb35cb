package dispatch

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/arthur-debert/navtree/types"
)

// Status is the outcome of a command
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorKind classifies a failed command
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindValidation         ErrorKind = "validation"
	KindPermissionDenied   ErrorKind = "permission_denied"
	KindUnsupportedCommand ErrorKind = "unsupported_command"
	KindInternal           ErrorKind = "internal"
)

// Messages shown for errors whose details stay on the server
const (
	MsgPermissionDenied = "You are not allowed to edit this tree"
	MsgInternal         = "An error occurred, please try again later"
	defaultMessage      = "Ok"
)

// Result is what the tree editor receives. It encodes to a flat JSON object:
// status, message, error (on failure) and the command's extra fields.
type Result struct {
	Status  Status
	Message string
	Error   ErrorKind
	Extras  map[string]any
}

// OK reports whether the command succeeded
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extras)+3)
	for k, v := range r.Extras {
		out[k] = v
	}
	out["status"] = r.Status
	out["message"] = r.Message
	if r.Error != "" {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

func success(message string, extras map[string]any) Result {
	return Result{Status: StatusSuccess, Message: message, Extras: extras}
}

func failure(kind ErrorKind, message string) Result {
	return Result{Status: StatusError, Error: kind, Message: message}
}

// Classify maps an error to its kind and the message shown to the editor
func Classify(err error) (ErrorKind, string) {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		return KindValidation, strings.Join(verr.Messages, " - ")
	case errors.Is(err, types.ErrValidation):
		return KindValidation, err.Error()
	case errors.Is(err, types.ErrNotFound):
		return KindNotFound, err.Error()
	case errors.Is(err, types.ErrPermissionDenied):
		return KindPermissionDenied, MsgPermissionDenied
	case errors.Is(err, types.ErrUnsupportedCommand):
		return KindUnsupportedCommand, err.Error()
	default:
		return KindInternal, MsgInternal
	}
}
