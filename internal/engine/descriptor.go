// Package engine implements the transform pipeline: descriptor validation,
// dispatch to the PDF library, and the scoped temp-artifact lifecycle that
// guarantees no file outlives its invocation except declared outputs.
package engine

import (
	"strconv"
	"strings"
)

// Op identifies a transform operation.
type Op string

const (
	OpMerge         Op = "merge"
	OpSplit         Op = "split"
	OpRemovePages   Op = "remove-pages"
	OpExtractPages  Op = "extract-pages"
	OpRotate        Op = "rotate"
	OpWatermark     Op = "watermark"
	OpPageNumbers   Op = "page-numbers"
	OpCompress      Op = "compress"
	OpProtect       Op = "protect"
	OpUnlock        Op = "unlock"
	OpExtractImages Op = "extract-images"
	OpInfo          Op = "info"
	OpToImages      Op = "to-images"
	OpFromImages    Op = "from-images"
)

// SplitMode selects how a document is divided.
type SplitMode string

const (
	// SplitPages produces one single-page output per source page.
	SplitPages SplitMode = "pages"
	// SplitRanges produces one output per requested page span.
	SplitRanges SplitMode = "ranges"
)

// Position anchors a text overlay on the page.
type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
	BottomRight  Position = "bottom-right"
	Center       Position = "center"
)

var anchors = map[Position]string{
	TopLeft:      "tl",
	TopCenter:    "tc",
	TopRight:     "tr",
	BottomLeft:   "bl",
	BottomCenter: "bc",
	BottomRight:  "br",
	Center:       "c",
}

// Anchor returns the PDF engine's anchor code for the position.
func (p Position) Anchor() (string, bool) {
	a, ok := anchors[p]
	return a, ok
}

// Descriptor is a validated description of one requested transform.
// Validate runs before any document is loaded; parameter failures never
// touch the filesystem beyond the already-received upload.
type Descriptor interface {
	Op() Op
	Validate() error
}

// Merge concatenates the pages of two or more documents in input order.
type Merge struct{}

func (Merge) Op() Op          { return OpMerge }
func (Merge) Validate() error { return nil }

// Split divides a document into single pages or explicit page spans.
type Split struct {
	Mode   SplitMode
	Ranges string
}

func (Split) Op() Op { return OpSplit }

func (d Split) Validate() error {
	switch d.Mode {
	case SplitPages:
		return nil
	case SplitRanges:
		if d.Ranges == "" {
			return Validation("ranges required for split mode %q", SplitRanges)
		}
		return nil
	default:
		return Validation("invalid split mode %q", d.Mode)
	}
}

// RemovePages deletes the selected pages, keeping the rest in reading order.
type RemovePages struct {
	Pages string
}

func (RemovePages) Op() Op { return OpRemovePages }

func (d RemovePages) Validate() error {
	if d.Pages == "" {
		return Validation("pages required")
	}
	return nil
}

// ExtractPages keeps only the selected pages, in reading order.
type ExtractPages struct {
	Pages string
}

func (ExtractPages) Op() Op { return OpExtractPages }

func (d ExtractPages) Validate() error {
	if d.Pages == "" {
		return Validation("pages required")
	}
	return nil
}

// Rotate adds a rotation angle to the selected pages (all pages when the
// selection is empty). The angle accumulates with each application, mod 360.
type Rotate struct {
	Angle int
	Pages string
}

func (Rotate) Op() Op { return OpRotate }

func (d Rotate) Validate() error {
	if d.Angle == 0 || d.Angle%90 != 0 {
		return NewError(CodeInvalidAngle, "rotation angle must be a non-zero multiple of 90: %d", d.Angle)
	}
	return nil
}

// Watermark overlays text on every page.
type Watermark struct {
	Text     string
	Position Position
	Opacity  float64
	FontSize int
	Color    string
}

func (Watermark) Op() Op { return OpWatermark }

func (d Watermark) Validate() error {
	if d.Text == "" {
		return Validation("watermark text required")
	}
	if _, ok := d.Position.Anchor(); !ok {
		return Validation("invalid position %q", d.Position)
	}
	if d.Opacity < 0 || d.Opacity > 1 {
		return Validation("opacity must be within [0, 1]: %v", d.Opacity)
	}
	if d.FontSize < 1 {
		return Validation("font size must be positive: %d", d.FontSize)
	}
	return nil
}

// PageNumbers stamps a numbering label on every page. Format supports the
// {page} and {total} placeholders; StartPage offsets the printed number of
// the first page.
type PageNumbers struct {
	Position  Position
	Format    string
	StartPage int
}

func (PageNumbers) Op() Op { return OpPageNumbers }

func (d PageNumbers) Validate() error {
	if _, ok := d.Position.Anchor(); !ok {
		return Validation("invalid position %q", d.Position)
	}
	if d.StartPage < 1 {
		return Validation("start page must be positive: %d", d.StartPage)
	}
	return nil
}

// Compress re-serializes the document with library-default optimization.
// It is a best-effort pass; the output may not be smaller than the input.
type Compress struct{}

func (Compress) Op() Op          { return OpCompress }
func (Compress) Validate() error { return nil }

// Protect encrypts the document with the given passwords.
type Protect struct {
	UserPassword  string
	OwnerPassword string
}

func (Protect) Op() Op { return OpProtect }

func (d Protect) Validate() error {
	if d.UserPassword == "" && d.OwnerPassword == "" {
		return Validation("at least one password required")
	}
	return nil
}

// Unlock removes encryption from a password-protected document.
type Unlock struct {
	Password string
}

func (Unlock) Op() Op { return OpUnlock }

func (d Unlock) Validate() error {
	if d.Password == "" {
		return Validation("password required")
	}
	return nil
}

// ExtractImages pulls embedded images from the selected pages (all pages
// when the selection is empty).
type ExtractImages struct {
	Pages string
}

func (ExtractImages) Op() Op          { return OpExtractImages }
func (ExtractImages) Validate() error { return nil }

// Info reports document metadata without producing an output artifact.
type Info struct{}

func (Info) Op() Op          { return OpInfo }
func (Info) Validate() error { return nil }

// ToImages rasterizes the selected pages (all pages when the selection is
// empty) to one image per page.
type ToImages struct {
	Pages  string
	Format string
	DPI    int
}

func (ToImages) Op() Op { return OpToImages }

func (d ToImages) Validate() error {
	switch d.Format {
	case "png", "jpeg":
	default:
		return Validation("invalid image format %q", d.Format)
	}
	if d.DPI < 1 {
		return Validation("dpi must be positive: %d", d.DPI)
	}
	return nil
}

// FromImages assembles uploaded images into a single document, one page per
// image in upload order.
type FromImages struct{}

func (FromImages) Op() Op          { return OpFromImages }
func (FromImages) Validate() error { return nil }

// expandFormat substitutes the {page} and {total} placeholders in a page
// numbering format string.
func expandFormat(format string, page, total int) string {
	out := strings.ReplaceAll(format, "{page}", strconv.Itoa(page))
	return strings.ReplaceAll(out, "{total}", strconv.Itoa(total))
}
