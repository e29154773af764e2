package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("checkpoint: object not found")

// Store persists named checkpoint artifacts for one run.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	// List returns every stored name in lexical order.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

var ErrInvalidName = errors.New("checkpoint: invalid object name")

// checkName rejects names that could escape a run directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
