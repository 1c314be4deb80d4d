package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/swiveltech/pdf2img/logging"
)

// DefaultDPI matches the resolution pdf2image uses when none is given.
const DefaultDPI = 200

var ErrNoPages = errors.New("pdf has no pages")

func init() {
	// Lambda's home directory is read-only.
	api.DisableConfigDir()
}

// Page is one rasterized PDF page.
type Page struct {
	Number  int // 1-based
	PNG     []byte
	Barcode string
}

type Options struct {
	DPI          float64
	MaxPages     int
	ScanBarcodes bool
}

// Renderer turns a PDF file into one PNG per page.
type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	if opts.DPI <= 0 {
		opts.DPI = DefaultDPI
	}
	return &Renderer{opts: opts}
}

// Rasterize renders every page of the PDF at path and hands each one to emit
// in page order. Only one page is held in memory at a time. An error from
// emit stops rendering and is returned unchanged.
func (r *Renderer) Rasterize(ctx context.Context, path string, emit func(Page) error) error {
	inspect(path)

	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return ErrNoPages
	}
	if r.opts.MaxPages > 0 && n > r.opts.MaxPages {
		return fmt.Errorf("pdf has %d pages, limit is %d", n, r.opts.MaxPages)
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		img, err := doc.ImageDPI(i, r.opts.DPI)
		if err != nil {
			return fmt.Errorf("render page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}

		page := Page{Number: i + 1, PNG: buf.Bytes()}
		if r.opts.ScanBarcodes {
			page.Barcode = scan(img, page.Number)
		}
		if err := emit(page); err != nil {
			return err
		}
	}
	return nil
}

// inspect runs pdfcpu over the file for diagnostics only. MuPDF repairs
// damaged cross-reference tables that pdfcpu rejects, so its verdict does
// not gate rendering.
func inspect(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(f, conf)
	if err != nil {
		logging.Warn("pdfcpu could not read pdf, relying on mupdf repair", "error", err)
		return
	}
	logging.Debug("pdfcpu page count", "pages", n)
}
