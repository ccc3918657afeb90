package dataprovider

import (
	"errors"
	"fmt"

	"github.com/me/pbadmin/pkg/model"
)

// ErrOperationFailed matches every *Error via errors.Is.
var ErrOperationFailed = errors.New("data provider operation failed")

// Operation tags carried by *Error.
const (
	OpGetList          = "fetch list"
	OpGetOne           = "fetch one"
	OpGetMany          = "fetch many"
	OpGetManyReference = "fetch reference"
	OpCreate           = "create"
	OpUpdate           = "update"
	OpUpdateMany       = "update many"
	OpDelete           = "delete"
	OpDeleteMany       = "delete many"
)

// Error is the uniform failure of a data provider operation. The backend
// cause stays reachable through Unwrap.
type Error struct {
	Op       string
	Resource string
	ID       string
	Err      error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s (id %s)", e.Op, e.Resource, e.ID)
	}
	return fmt.Sprintf("%s failed for %s", e.Op, e.Resource)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrOperationFailed) hold.
func (e *Error) Is(target error) bool {
	return target == ErrOperationFailed
}

// StatusCode returns the backend HTTP status of the cause, or 0.
func (e *Error) StatusCode() int {
	return model.StatusCode(e.Err)
}
