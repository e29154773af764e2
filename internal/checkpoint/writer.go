package checkpoint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/heatmarch/internal/logging"
	"github.com/san-kum/heatmarch/internal/march"
)

var ErrNotSource = errors.New("checkpoint: solution cannot be serialized")

// Source is a solution that knows its own byte layout.
type Source interface {
	WriteLinear(w io.Writer, enc string) error
	WriteSolution(w io.Writer, enc string, compress bool) error
}

// Writer implements march.Checkpointer on top of a Store.
type Writer struct {
	store    Store
	encoding string
	compress bool
	logger   *slog.Logger
}

type WriterOption func(*Writer)

func WithEncoding(enc string) WriterOption {
	return func(w *Writer) { w.encoding = enc }
}

// WithCompression gzips the complete solution file.
func WithCompression(on bool) WriterOption {
	return func(w *Writer) { w.compress = on }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWriter(store Store, opts ...WriterOption) *Writer {
	w := &Writer{
		store:    store,
		encoding: "gob",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) Store() Store { return w.store }

// Checkpoint writes the linear file and then the complete solution of step.
func (w *Writer) Checkpoint(ctx context.Context, step int, t float64, sol march.Solution) (march.Record, error) {
	src, ok := sol.(Source)
	if !ok {
		return march.Record{}, &march.CheckpointWriteError{Step: step, Err: fmt.Errorf("%w: %T", ErrNotSource, sol)}
	}

	lin, dat := LinearName(step), SolutionName(step)

	var buf bytes.Buffer
	if err := src.WriteLinear(&buf, w.encoding); err != nil {
		return march.Record{}, &march.CheckpointWriteError{Step: step, Name: lin, Err: err}
	}
	if err := w.store.Put(ctx, lin, buf.Bytes()); err != nil {
		return march.Record{}, &march.CheckpointWriteError{Step: step, Name: lin, Err: err}
	}
	w.logger.Debug("output written", "file", lin, "bytes", buf.Len())

	buf = bytes.Buffer{}
	if err := src.WriteSolution(&buf, w.encoding, w.compress); err != nil {
		w.discard(ctx, lin)
		return march.Record{}, &march.CheckpointWriteError{Step: step, Name: dat, Err: err}
	}
	if err := w.store.Put(ctx, dat, buf.Bytes()); err != nil {
		w.discard(ctx, lin)
		return march.Record{}, &march.CheckpointWriteError{Step: step, Name: dat, Err: err}
	}
	w.logger.Debug("output written", "file", dat, "bytes", buf.Len(), "compressed", w.compress)

	return march.Record{Step: step, Time: t, Linear: lin, Complete: dat}, nil
}

// discard removes a linear file whose complete solution could not be written.
func (w *Writer) discard(ctx context.Context, name string) {
	if err := w.store.Delete(context.WithoutCancel(ctx), name); err != nil {
		w.logger.Warn("remove orphan output failed", "file", name, "error", err)
	}
}
