package engine

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/foliolabs/folio/pkg/formatting"
)

func (e *Engine) merge(scope *Scope, inputs []string, name string) (*Outcome, error) {
	staged, err := e.stageOutput(scope, name+"-merged.pdf")
	if err != nil {
		return nil, err
	}

	if err := api.MergeCreateFile(inputs, staged.path, false, model.NewDefaultConfiguration()); err != nil {
		return nil, Processing(fmt.Errorf("merge: %w", err))
	}

	total, err := pageCount(staged.path)
	if err != nil {
		return nil, err
	}

	output, err := e.promote(scope, staged, name+"-merged.pdf")
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: fmt.Sprintf("merged %d documents into %d pages", len(inputs), total),
		Outputs: []Output{output},
		Meta:    map[string]any{"page_count": total},
	}, nil
}

func (e *Engine) split(scope *Scope, input, name string, d Split) (*Outcome, error) {
	total, err := pageCount(input)
	if err != nil {
		return nil, err
	}

	if d.Mode == SplitPages {
		staged := make([]*stagedOutput, 0, total)
		filenames := make([]string, 0, total)
		for page := 1; page <= total; page++ {
			filename := fmt.Sprintf("%s-page-%d.pdf", name, page)
			s, err := e.trim(scope, input, filename, []string{strconv.Itoa(page)})
			if err != nil {
				return nil, err
			}
			staged = append(staged, s)
			filenames = append(filenames, filename)
		}

		// promote only once every page document exists
		outputs, err := e.promoteAll(scope, staged, filenames)
		if err != nil {
			return nil, err
		}

		return &Outcome{
			Message: fmt.Sprintf("split %d pages into %d documents", total, len(outputs)),
			Outputs: outputs,
			Meta:    map[string]any{"page_count": total},
		}, nil
	}

	spans, err := parseSpans(d.Ranges, total)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, NewError(CodeEmptySelection, "no pages selected by ranges %q", d.Ranges)
	}

	staged := make([]*stagedOutput, 0, len(spans))
	filenames := make([]string, 0, len(spans))
	ranges := make([]string, 0, len(spans))
	for _, span := range spans {
		filename := fmt.Sprintf("%s-pages-%s.pdf", name, span)
		s, err := e.trim(scope, input, filename, []string{span.String()})
		if err != nil {
			return nil, err
		}
		staged = append(staged, s)
		filenames = append(filenames, filename)
		ranges = append(ranges, span.String())
	}

	outputs, err := e.promoteAll(scope, staged, filenames)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: fmt.Sprintf("split into %d documents by range", len(outputs)),
		Outputs: outputs,
		Meta:    map[string]any{"ranges": ranges},
	}, nil
}

func (e *Engine) removePages(scope *Scope, input, name string, d RemovePages) (*Outcome, error) {
	total, err := pageCount(input)
	if err != nil {
		return nil, err
	}

	selection, err := parseSelection(d.Pages, total)
	if err != nil {
		return nil, err
	}

	kept := selection.Complement(total)
	if len(kept) == 0 {
		return nil, NewError(CodeAllPagesRemoved, "removing pages %s would leave an empty document", selection.Ascending())
	}

	removed := selection.Ascending()
	output, err := e.trimTo(scope, input, name+"-removed.pdf", kept.Strings())
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: fmt.Sprintf("removed %d pages, %d remaining", len(removed), len(kept)),
		Outputs: []Output{output},
		Meta: map[string]any{
			"removed_pages": removed.String(),
			"kept_pages":    kept.String(),
			"page_count":    len(kept),
		},
	}, nil
}

func (e *Engine) extractPages(scope *Scope, input, name string, d ExtractPages) (*Outcome, error) {
	total, err := pageCount(input)
	if err != nil {
		return nil, err
	}

	selection, err := parseSelection(d.Pages, total)
	if err != nil {
		return nil, err
	}
	if len(selection) == 0 {
		return nil, NewError(CodeEmptySelection, "no pages selected by %q", d.Pages)
	}

	// extracted pages keep the document's reading order, not selector order
	extracted := selection.Ascending()
	output, err := e.trimTo(scope, input, name+"-extracted.pdf", extracted.Strings())
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: fmt.Sprintf("extracted %d pages", len(extracted)),
		Outputs: []Output{output},
		Meta: map[string]any{
			"extracted_pages": extracted.String(),
			"page_count":      len(extracted),
		},
	}, nil
}

func (e *Engine) rotate(scope *Scope, input, name string, d Rotate) (*Outcome, error) {
	total, err := pageCount(input)
	if err != nil {
		return nil, err
	}

	var selected []string
	rotated := total
	if d.Pages != "" {
		selection, err := parseSelection(d.Pages, total)
		if err != nil {
			return nil, err
		}
		if len(selection) == 0 {
			return nil, NewError(CodeEmptySelection, "no pages selected by %q", d.Pages)
		}
		selected = selection.Ascending().Strings()
		rotated = len(selection)
	}

	staged, err := e.stageOutput(scope, name+"-rotated.pdf")
	if err != nil {
		return nil, err
	}

	if err := api.RotateFile(input, staged.path, d.Angle, selected, model.NewDefaultConfiguration()); err != nil {
		return nil, Processing(fmt.Errorf("rotate: %w", err))
	}

	output, err := e.promote(scope, staged, name+"-rotated.pdf")
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: fmt.Sprintf("rotated %d pages by %d degrees", rotated, d.Angle),
		Outputs: []Output{output},
		Meta: map[string]any{
			"angle":         d.Angle,
			"rotated_pages": rotated,
		},
	}, nil
}

func (e *Engine) watermark(scope *Scope, input, name string, d Watermark) (*Outcome, error) {
	anchor, _ := d.Position.Anchor()
	r, g, b := ParseHexColor(d.Color)

	desc := fmt.Sprintf(
		"fontname:Helvetica, points:%d, scale:1 abs, pos:%s, rot:0, op:%.2f, fillcolor:%.2f %.2f %.2f",
		d.FontSize, anchor, d.Opacity, r, g, b,
	)

	wm, err := pdfcpu.ParseTextWatermarkDetails(d.Text, desc, true, types.POINTS)
	if err != nil {
		return nil, Processing(fmt.Errorf("watermark details: %w", err))
	}

	staged, err := e.stageOutput(scope, name+"-watermarked.pdf")
	if err != nil {
		return nil, err
	}

	if err := api.AddWatermarksFile(input, staged.path, nil, wm, model.NewDefaultConfiguration()); err != nil {
		return nil, Processing(fmt.Errorf("watermark: %w", err))
	}

	output, err := e.promote(scope, staged, name+"-watermarked.pdf")
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: fmt.Sprintf("watermarked with %q", d.Text),
		Outputs: []Output{output},
		Meta: map[string]any{
			"text":     d.Text,
			"position": string(d.Position),
		},
	}, nil
}

func (e *Engine) pageNumbers(scope *Scope, input, name string, d PageNumbers) (*Outcome, error) {
	total, err := pageCount(input)
	if err != nil {
		return nil, err
	}

	anchor, _ := d.Position.Anchor()
	desc := fmt.Sprintf("fontname:Helvetica, points:12, scale:1 abs, pos:%s, rot:0, op:1", anchor)

	stamps := make(map[int]*model.Watermark, total)
	for page := 1; page <= total; page++ {
		label := expandFormat(d.Format, d.StartPage+page-1, total)
		wm, err := pdfcpu.ParseTextWatermarkDetails(label, desc, true, types.POINTS)
		if err != nil {
			return nil, Processing(fmt.Errorf("page number details: %w", err))
		}
		stamps[page] = wm
	}

	staged, err := e.stageOutput(scope, name+"-numbered.pdf")
	if err != nil {
		return nil, err
	}

	if err := api.AddWatermarksMapFile(input, staged.path, stamps, model.NewDefaultConfiguration()); err != nil {
		return nil, Processing(fmt.Errorf("page numbers: %w", err))
	}

	output, err := e.promote(scope, staged, name+"-numbered.pdf")
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: fmt.Sprintf("numbered %d pages", total),
		Outputs: []Output{output},
		Meta:    map[string]any{"page_count": total},
	}, nil
}

func (e *Engine) compress(scope *Scope, input, name string) (*Outcome, error) {
	before, err := os.Stat(input)
	if err != nil {
		return nil, Internal(err)
	}

	staged, err := e.stageOutput(scope, name+"-compressed.pdf")
	if err != nil {
		return nil, err
	}

	if err := api.OptimizeFile(input, staged.path, model.NewDefaultConfiguration()); err != nil {
		return nil, Processing(fmt.Errorf("optimize: %w", err))
	}

	output, err := e.promote(scope, staged, name+"-compressed.pdf")
	if err != nil {
		return nil, err
	}

	// best-effort: the optimized file may be larger than the input
	saved := 0.0
	if before.Size() > 0 {
		saved = (1 - float64(output.SizeBytes)/float64(before.Size())) * 100
		saved = math.Round(saved*100) / 100
	}

	return &Outcome{
		Message: fmt.Sprintf(
			"compressed %s to %s",
			formatting.FormatBytes(before.Size(), 1),
			formatting.FormatBytes(output.SizeBytes, 1),
		),
		Outputs: []Output{output},
		Meta: map[string]any{
			"before_bytes":  before.Size(),
			"after_bytes":   output.SizeBytes,
			"saved_percent": saved,
		},
	}, nil
}

func (e *Engine) protect(scope *Scope, input, name string, d Protect) (*Outcome, error) {
	staged, err := e.stageOutput(scope, name+"-protected.pdf")
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.UserPW = d.UserPassword
	conf.OwnerPW = d.OwnerPassword
	if conf.OwnerPW == "" {
		conf.OwnerPW = d.UserPassword
	}

	if err := api.EncryptFile(input, staged.path, conf); err != nil {
		return nil, Processing(fmt.Errorf("encrypt: %w", err))
	}

	output, err := e.promote(scope, staged, name+"-protected.pdf")
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: "document encrypted",
		Outputs: []Output{output},
	}, nil
}

func (e *Engine) unlock(scope *Scope, input, name string, d Unlock) (*Outcome, error) {
	staged, err := e.stageOutput(scope, name+"-unlocked.pdf")
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.UserPW = d.Password
	conf.OwnerPW = d.Password

	if err := api.DecryptFile(input, staged.path, conf); err != nil {
		return nil, Processing(fmt.Errorf("decrypt: %w", err))
	}

	output, err := e.promote(scope, staged, name+"-unlocked.pdf")
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: "document decrypted",
		Outputs: []Output{output},
	}, nil
}

func (e *Engine) extractImages(scope *Scope, input, name string, d ExtractImages) (*Outcome, error) {
	total, err := pageCount(input)
	if err != nil {
		return nil, err
	}

	var selected []string
	if d.Pages != "" {
		selection, err := parseSelection(d.Pages, total)
		if err != nil {
			return nil, err
		}
		if len(selection) == 0 {
			return nil, NewError(CodeEmptySelection, "no pages selected by %q", d.Pages)
		}
		selected = selection.Ascending().Strings()
	}

	dir, err := e.stageOutputDir(scope, name+"-images")
	if err != nil {
		return nil, err
	}

	if err := api.ExtractImagesFile(input, dir.path, selected, model.NewDefaultConfiguration()); err != nil {
		return nil, Processing(fmt.Errorf("extract images: %w", err))
	}

	entries, err := os.ReadDir(dir.path)
	if err != nil {
		return nil, Internal(err)
	}

	staged := make([]*stagedOutput, 0, len(entries))
	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		staged = append(staged, stageDirEntry(scope, dir, entry.Name()))
		filenames = append(filenames, entry.Name())
	}

	outputs, err := e.promoteAll(scope, staged, filenames)
	if err != nil {
		return nil, err
	}
	scope.Promote(dir.path)

	return &Outcome{
		Message: fmt.Sprintf("extracted %d images", len(outputs)),
		Outputs: outputs,
		Meta:    map[string]any{"image_count": len(outputs)},
	}, nil
}

func (e *Engine) info(input string) (*Outcome, error) {
	total, err := pageCount(input)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(input)
	if err != nil {
		return nil, Internal(err)
	}

	return &Outcome{
		Message: fmt.Sprintf("%d pages, %s", total, formatting.FormatBytes(stat.Size(), 1)),
		Outputs: []Output{},
		Meta: map[string]any{
			"page_count": total,
			"size_bytes": stat.Size(),
			"size":       formatting.FormatBytes(stat.Size(), 1),
		},
	}, nil
}

func (e *Engine) toImages(ctx context.Context, scope *Scope, input, name string, d ToImages) (*Outcome, error) {
	total, err := pageCount(input)
	if err != nil {
		return nil, err
	}

	pages := make([]int, 0, total)
	if d.Pages != "" {
		selection, err := parseSelection(d.Pages, total)
		if err != nil {
			return nil, err
		}
		if len(selection) == 0 {
			return nil, NewError(CodeEmptySelection, "no pages selected by %q", d.Pages)
		}
		pages = selection.Ascending().Pages()
	} else {
		for page := 1; page <= total; page++ {
			pages = append(pages, page)
		}
	}

	dir, err := e.stageOutputDir(scope, name+"-pages")
	if err != nil {
		return nil, err
	}

	rendered, err := e.rasterizer.RenderPages(ctx, input, pages, dir.path, d.Format, d.DPI)
	if err != nil {
		return nil, Processing(fmt.Errorf("render pages: %w", err))
	}

	staged := make([]*stagedOutput, 0, len(rendered))
	filenames := make([]string, 0, len(rendered))
	for _, path := range rendered {
		entry := filepath.Base(path)
		staged = append(staged, stageDirEntry(scope, dir, entry))
		filenames = append(filenames, entry)
	}

	outputs, err := e.promoteAll(scope, staged, filenames)
	if err != nil {
		return nil, err
	}
	scope.Promote(dir.path)

	return &Outcome{
		Message: fmt.Sprintf("rendered %d pages to %s", len(outputs), d.Format),
		Outputs: outputs,
		Meta: map[string]any{
			"page_count": len(outputs),
			"format":     d.Format,
			"dpi":        d.DPI,
		},
	}, nil
}

func (e *Engine) fromImages(scope *Scope, inputs []string, name string) (*Outcome, error) {
	staged, err := e.stageOutput(scope, name+".pdf")
	if err != nil {
		return nil, err
	}

	if err := api.ImportImagesFile(inputs, staged.path, nil, model.NewDefaultConfiguration()); err != nil {
		return nil, Processing(fmt.Errorf("import images: %w", err))
	}

	output, err := e.promote(scope, staged, name+".pdf")
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Message: fmt.Sprintf("assembled %d images into one document", len(inputs)),
		Outputs: []Output{output},
		Meta:    map[string]any{"page_count": len(inputs)},
	}, nil
}

// trim stages a page-subset document without promoting it.
func (e *Engine) trim(scope *Scope, input, filename string, pages []string) (*stagedOutput, error) {
	staged, err := e.stageOutput(scope, filename)
	if err != nil {
		return nil, err
	}

	if err := api.TrimFile(input, staged.path, pages, model.NewDefaultConfiguration()); err != nil {
		return nil, Processing(fmt.Errorf("trim pages %v: %w", pages, err))
	}

	return staged, nil
}

func (e *Engine) trimTo(scope *Scope, input, filename string, pages []string) (Output, error) {
	staged, err := e.trim(scope, input, filename, pages)
	if err != nil {
		return Output{}, err
	}
	return e.promote(scope, staged, filename)
}

func pageCount(path string) (int, error) {
	total, err := api.PageCountFile(path)
	if err != nil {
		return 0, Processing(fmt.Errorf("page count: %w", err))
	}
	return total, nil
}

// fallbackGray is the neutral color used when a hex color string fails to
// parse; a bad color never fails the whole operation.
const fallbackGray = 0x80

// ParseHexColor parses a 6-hex-digit color string (with or without a
// leading '#') into normalized [0, 1] RGB components, falling back to
// neutral gray (#808080) when the string is unparsable.
func ParseHexColor(s string) (r, g, b float64) {
	if len(s) == 7 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return float64(fallbackGray) / 255, float64(fallbackGray) / 255, float64(fallbackGray) / 255
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return float64(fallbackGray) / 255, float64(fallbackGray) / 255, float64(fallbackGray) / 255
	}

	r = float64(v>>16&0xff) / 255
	g = float64(v>>8&0xff) / 255
	b = float64(v&0xff) / 255
	return r, g, b
}
