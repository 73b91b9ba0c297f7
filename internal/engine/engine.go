package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/foliolabs/folio/pkg/artifacts"
	"github.com/foliolabs/folio/pkg/pagerange"
)

// Rasterizer renders PDF pages to image files. pages are 1-based; the
// returned paths are the written image files in page order.
type Rasterizer interface {
	RenderPages(ctx context.Context, pdfPath string, pages []int, dir, format string, dpi int) ([]string, error)
}

// Upload is one received input file, already read off the request.
type Upload struct {
	Filename string
	Data     []byte
}

// Output is one declared result artifact of a pipeline invocation.
type Output struct {
	Key       string `json:"key"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
}

// Outcome reports a completed invocation: a human-readable message, the
// declared outputs, and operation-specific metadata.
type Outcome struct {
	Message string
	Outputs []Output
	Meta    map[string]any
}

// Engine executes transform descriptors against uploaded documents.
// Each Run owns the full temp-file lifecycle: inputs and intermediate
// outputs are registered in a Scope and released on every exit path.
type Engine struct {
	store      artifacts.System
	rasterizer Rasterizer
	logger     *slog.Logger
}

// New creates an Engine over the given artifact store and page rasterizer.
func New(store artifacts.System, rasterizer Rasterizer, logger *slog.Logger) *Engine {
	return &Engine{
		store:      store,
		rasterizer: rasterizer,
		logger:     logger.With("system", "engine"),
	}
}

// Run validates the descriptor, stages the uploads as scoped artifacts,
// dispatches the transform, and promotes declared outputs. On any failure
// every staged artifact is deleted before the error is returned.
func (e *Engine) Run(ctx context.Context, uploads []Upload, desc Descriptor) (*Outcome, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if err := checkInputCount(desc.Op(), len(uploads)); err != nil {
		return nil, err
	}

	scope := NewScope()
	defer scope.ReleaseAll()

	inputs := make([]string, len(uploads))
	for i, up := range uploads {
		path, err := StageInput(ctx, e.store, scope, up)
		if err != nil {
			return nil, err
		}
		inputs[i] = path
	}

	outcome, err := e.execute(ctx, scope, inputs, uploads[0].Filename, desc)
	if err != nil {
		e.logger.Warn("transform failed", "op", desc.Op(), "error", err)
		return nil, err
	}

	e.logger.Info(
		"transform complete",
		"op", desc.Op(),
		"inputs", len(inputs),
		"outputs", len(outcome.Outputs),
	)

	return outcome, nil
}

func (e *Engine) execute(ctx context.Context, scope *Scope, inputs []string, filename string, desc Descriptor) (*Outcome, error) {
	name := baseName(filename)

	switch d := desc.(type) {
	case Merge:
		return e.merge(scope, inputs, name)
	case Split:
		return e.split(scope, inputs[0], name, d)
	case RemovePages:
		return e.removePages(scope, inputs[0], name, d)
	case ExtractPages:
		return e.extractPages(scope, inputs[0], name, d)
	case Rotate:
		return e.rotate(scope, inputs[0], name, d)
	case Watermark:
		return e.watermark(scope, inputs[0], name, d)
	case PageNumbers:
		return e.pageNumbers(scope, inputs[0], name, d)
	case Compress:
		return e.compress(scope, inputs[0], name)
	case Protect:
		return e.protect(scope, inputs[0], name, d)
	case Unlock:
		return e.unlock(scope, inputs[0], name, d)
	case ExtractImages:
		return e.extractImages(scope, inputs[0], name, d)
	case Info:
		return e.info(inputs[0])
	case ToImages:
		return e.toImages(ctx, scope, inputs[0], name, d)
	case FromImages:
		return e.fromImages(scope, inputs, name)
	default:
		return nil, Internal(fmt.Errorf("unknown descriptor %T", desc))
	}
}

func checkInputCount(op Op, n int) error {
	switch op {
	case OpMerge:
		if n < 2 {
			return NewError(CodeInsufficientInputs, "merge requires at least 2 files, got %d", n)
		}
	case OpFromImages:
		if n < 1 {
			return NewError(CodeInsufficientInputs, "at least 1 image required")
		}
	default:
		if n != 1 {
			return Validation("operation %s requires exactly 1 file, got %d", op, n)
		}
	}
	return nil
}

// stagedOutput is an output artifact path reserved within the scope but not
// yet promoted.
type stagedOutput struct {
	key  string
	path string
}

func (e *Engine) stageOutput(scope *Scope, filename string) (*stagedOutput, error) {
	key := e.store.NewKey(filename)
	path, err := e.store.Path(key)
	if err != nil {
		return nil, Internal(fmt.Errorf("stage output %s: %w", filename, err))
	}

	scope.Register(path)
	return &stagedOutput{key: key, path: path}, nil
}

func (e *Engine) stageOutputDir(scope *Scope, name string) (*stagedOutput, error) {
	staged, err := e.stageOutput(scope, name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(staged.path, 0o755); err != nil {
		return nil, Internal(fmt.Errorf("stage output dir %s: %w", name, err))
	}
	return staged, nil
}

func (e *Engine) promote(scope *Scope, staged *stagedOutput, filename string) (Output, error) {
	info, err := os.Stat(staged.path)
	if err != nil {
		return Output{}, Internal(fmt.Errorf("stat output %s: %w", staged.key, err))
	}

	scope.Promote(staged.path)
	return Output{
		Key:       staged.key,
		Filename:  filename,
		SizeBytes: info.Size(),
	}, nil
}

// stageDirEntry registers a file written inside a staged output directory
// and returns it as a staged output keyed under the directory.
func stageDirEntry(scope *Scope, dir *stagedOutput, entry string) *stagedOutput {
	path := filepath.Join(dir.path, entry)
	scope.Register(path)
	return &stagedOutput{key: dir.key + "/" + entry, path: path}
}

// promoteAll promotes a batch of staged outputs together. Nothing is
// promoted until every output stats cleanly, so a multi-output operation
// that fails partway leaves no partial batch behind.
func (e *Engine) promoteAll(scope *Scope, staged []*stagedOutput, filenames []string) ([]Output, error) {
	outputs := make([]Output, len(staged))
	for i, s := range staged {
		info, err := os.Stat(s.path)
		if err != nil {
			return nil, Internal(fmt.Errorf("stat output %s: %w", s.key, err))
		}
		outputs[i] = Output{
			Key:       s.key,
			Filename:  filenames[i],
			SizeBytes: info.Size(),
		}
	}

	for _, s := range staged {
		scope.Promote(s.path)
	}
	return outputs, nil
}

func parseSelection(expr string, totalPages int) (pagerange.Selection, error) {
	sel, err := pagerange.Parse(expr, totalPages)
	if err != nil {
		var parseErr *pagerange.ParseError
		if errors.As(err, &parseErr) {
			return nil, &Error{Code: CodeMalformedRange, Err: err}
		}
		return nil, Internal(err)
	}
	return sel, nil
}

func parseSpans(expr string, totalPages int) ([]pagerange.Span, error) {
	spans, err := pagerange.ParseSpans(expr, totalPages)
	if err != nil {
		var parseErr *pagerange.ParseError
		if errors.As(err, &parseErr) {
			return nil, &Error{Code: CodeMalformedRange, Err: err}
		}
		return nil, Internal(err)
	}
	return spans, nil
}

func baseName(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = "document"
	}
	return base
}
