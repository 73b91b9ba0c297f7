package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"

	"github.com/foliolabs/folio/pkg/artifacts"
	"github.com/foliolabs/folio/pkg/handlers"
)

// Payload renders the outcome as the JSON response body. Output download
// URLs are rooted at downloadBase; download_url points at the first output
// for uniform client handling.
func (o *Outcome) Payload(downloadBase string) map[string]any {
	outputs := make([]map[string]any, len(o.Outputs))
	for i, out := range o.Outputs {
		outputs[i] = map[string]any{
			"key":          out.Key,
			"filename":     out.Filename,
			"size_bytes":   out.SizeBytes,
			"download_url": downloadBase + "/" + out.Key,
		}
	}

	body := map[string]any{
		"success": true,
		"message": o.Message,
		"outputs": outputs,
	}
	if len(o.Outputs) > 0 {
		body["download_url"] = downloadBase + "/" + o.Outputs[0].Key
	}

	maps.Copy(body, o.Meta)
	return body
}

// RespondFailure writes a pipeline error as a JSON failure envelope.
// Internal errors are logged with their cause and surfaced with a generic
// message; everything else carries its own message to the caller.
func RespondFailure(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := MapHTTPStatus(err)
	code := CodeOf(err)

	message := err.Error()
	if code == CodeInternal {
		logger.Error("request failed", "error", err)
		message = "internal error"
	} else {
		logger.Warn("request rejected", "code", code, "error", err)
	}

	handlers.RespondJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    string(code),
	})
}

// SaveOutput writes data to the store as a declared output of the scope:
// the artifact is registered for cleanup, then promoted once fully written.
func SaveOutput(ctx context.Context, store artifacts.System, scope *Scope, filename string, data []byte) (Output, error) {
	key := store.NewKey(filename)
	path, err := store.Path(key)
	if err != nil {
		return Output{}, Internal(fmt.Errorf("stage output %s: %w", filename, err))
	}

	scope.Register(path)
	meta, err := store.Save(ctx, key, bytes.NewReader(data))
	if err != nil {
		return Output{}, Internal(fmt.Errorf("write output %s: %w", filename, err))
	}

	scope.Promote(path)
	return Output{
		Key:       key,
		Filename:  filename,
		SizeBytes: meta.SizeBytes,
	}, nil
}

// SaveOutputs writes a batch of outputs to the store, promoting them only
// after every write has succeeded. A failed write leaves nothing behind.
func SaveOutputs(ctx context.Context, store artifacts.System, scope *Scope, filenames []string, data [][]byte) ([]Output, error) {
	outputs := make([]Output, len(filenames))
	paths := make([]string, len(filenames))

	for i, filename := range filenames {
		key := store.NewKey(filename)
		path, err := store.Path(key)
		if err != nil {
			return nil, Internal(fmt.Errorf("stage output %s: %w", filename, err))
		}

		scope.Register(path)
		paths[i] = path

		meta, err := store.Save(ctx, key, bytes.NewReader(data[i]))
		if err != nil {
			return nil, Internal(fmt.Errorf("write output %s: %w", filename, err))
		}
		outputs[i] = Output{
			Key:       key,
			Filename:  filename,
			SizeBytes: meta.SizeBytes,
		}
	}

	for _, path := range paths {
		scope.Promote(path)
	}
	return outputs, nil
}

// StageDir reserves a scoped scratch directory inside the store, so
// abandoned intermediates stay within reach of the retention sweep. The
// directory never survives the invocation.
func StageDir(store artifacts.System, scope *Scope, name string) (string, error) {
	key := store.NewKey(name)
	path, err := store.Path(key)
	if err != nil {
		return "", Internal(fmt.Errorf("stage dir %s: %w", name, err))
	}

	scope.Register(path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", Internal(fmt.Errorf("stage dir %s: %w", name, err))
	}
	return path, nil
}

// StageInput writes an upload to the store as a scoped input artifact and
// returns its path. Inputs never survive the invocation.
func StageInput(ctx context.Context, store artifacts.System, scope *Scope, up Upload) (string, error) {
	key := store.NewKey(up.Filename)
	path, err := store.Path(key)
	if err != nil {
		return "", Validation("invalid filename %q: %v", up.Filename, err)
	}

	scope.Register(path)
	if _, err := store.Save(ctx, key, bytes.NewReader(up.Data)); err != nil {
		return "", Internal(fmt.Errorf("stage input %s: %w", up.Filename, err))
	}

	return path, nil
}
