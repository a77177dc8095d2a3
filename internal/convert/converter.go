// Package convert binds a compiled encoder tree to the "value in, JSON text
// out" contract used by callers that hold typed values.
//
// A Converter is built once per schema and is safe for concurrent use: every
// call borrows its own json-iterator stream and nothing in the tree is mutated
// after New returns.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/shapejson/internal/encode"
	"github.com/roach88/shapejson/internal/schema"
)

// ErrNotCompiled is matched by every convert error of a Converter whose
// schema failed to compile.
var ErrNotCompiled = errors.New("converter has no compiled encoder")

// DefaultFlushThreshold is the buffered size at which Encode flushes to its sink.
const DefaultFlushThreshold = 32 * 1024

// Converter encodes values of one schema to JSON.
type Converter struct {
	desc    schema.Descriptor
	root    encode.Node
	err     error // schema error; non-nil means degraded
	api     jsoniter.API
	logger  *slog.Logger
	flushAt int
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for schema failures and batch runs.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFlushThreshold sets how many buffered bytes Encode accumulates before
// writing to its sink. Zero buffers a whole value.
func WithFlushThreshold(n int) Option {
	return func(c *Converter) {
		c.flushAt = n
	}
}

// New compiles d and returns a Converter for it.
//
// When d does not compile, New logs the schema error and returns it together
// with a degraded, non-nil Converter. A degraded Converter fails every call
// with an error matching ErrNotCompiled, so callers that keep it anyway get
// a clean failure per value instead of a nil dereference.
func New(d schema.Descriptor, opts ...Option) (*Converter, error) {
	c := &Converter{
		desc:    d,
		api:     jsoniter.ConfigCompatibleWithStandardLibrary,
		logger:  slog.Default(),
		flushAt: DefaultFlushThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}

	root, err := encode.Compile(d)
	if err != nil {
		c.err = err
		c.logger.Error("schema compile failed",
			"schema", describe(d),
			"error", err)
		return c, err
	}
	c.root = root
	return c, nil
}

func describe(d schema.Descriptor) string {
	if d == nil {
		return "<nil>"
	}
	return d.String()
}

// Err returns the schema error of a degraded Converter, or nil.
func (c *Converter) Err() error {
	return c.err
}

// Descriptor returns the schema this Converter was built for.
func (c *Converter) Descriptor() schema.Descriptor {
	return c.desc
}

// Root returns the compiled encoder tree, or nil when degraded.
func (c *Converter) Root() encode.Node {
	return c.root
}

func (c *Converter) check() error {
	if c.root == nil {
		return fmt.Errorf("%w: %w", ErrNotCompiled, c.err)
	}
	return nil
}

// Convert encodes v into a freshly buffered JSON text.
func (c *Converter) Convert(v any) (string, error) {
	b, err := c.AppendJSON(nil, v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AppendJSON appends the JSON encoding of v to dst.
// On error dst is returned unchanged.
func (c *Converter) AppendJSON(dst []byte, v any) ([]byte, error) {
	if err := c.check(); err != nil {
		return dst, err
	}

	stream := c.api.BorrowStream(nil)
	defer c.api.ReturnStream(stream)

	if err := c.root.Encode(encode.NewStreamWriter(stream), v); err != nil {
		return dst, err
	}
	return append(dst, stream.Buffer()...), nil
}

// Encode streams the JSON encoding of v into out. Output is flushed every
// flush-threshold bytes, so a failing value may leave a partial document in
// out. Sink errors are returned as-is.
func (c *Converter) Encode(out io.Writer, v any) error {
	if err := c.check(); err != nil {
		return err
	}

	stream := c.api.BorrowStream(out)
	defer c.api.ReturnStream(stream)

	w := encode.NewStreamWriter(stream)
	w.SetFlushThreshold(c.flushAt)
	if err := c.root.Encode(w, v); err != nil {
		return err
	}
	return w.Flush()
}

// ConvertAll converts values with at most workers concurrent encodes.
// Results are in input order. The first failure cancels the remaining work
// and is returned with the index of the failing value.
func (c *Converter) ConvertAll(ctx context.Context, values []any, workers int) ([]string, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	c.logger.Debug("batch convert starting",
		"values", len(values),
		"workers", workers)

	out := make([]string, len(values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, v := range values {
		if gctx.Err() != nil {
			break
		}
		i, v := i, v
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := c.Convert(v)
			if err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
			out[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The loop may stop early on a cancelled parent without any Go func failing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug("batch convert finished", "values", len(values))
	return out, nil
}
