package processor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/xid"

	"github.com/swiveltech/pdf2img/config"
	"github.com/swiveltech/pdf2img/logging"
	"github.com/swiveltech/pdf2img/render"
)

var (
	ErrStage     = errors.New("stage pdf")
	ErrRasterize = errors.New("rasterize pdf")
	ErrUpload    = errors.New("upload page")
)

// Rasterizer renders the PDF at path and calls emit once per page, in page
// order. Errors returned by emit must be passed back unchanged.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, emit func(render.Page) error) error
}

// Uploader stores body under key and returns a public URL for it.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// Handler converts multipart PDF uploads from API Gateway into PNG pages
// stored in S3.
type Handler struct {
	rasterizer     Rasterizer
	uploader       Uploader
	tempDir        string
	maxUploadBytes int64
	scanBarcodes   bool
}

func New(cfg *config.Config, rasterizer Rasterizer, uploader Uploader) *Handler {
	return &Handler{
		rasterizer:     rasterizer,
		uploader:       uploader,
		tempDir:        cfg.TempDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		scanBarcodes:   cfg.ScanBarcodes,
	}
}

type result struct {
	images   []string
	barcodes []string
}

// Handle never returns an error: every failure is reported as a JSON response.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	reqID := requestID(ctx)

	contentType := headerValue(req, "Content-Type")
	if contentType == "" {
		logging.Warn("rejected request", "request_id", reqID, "error", errNoContentType)
		return badRequest(errNoContentType.Error()), nil
	}

	body, err := decodeBody(req)
	if err != nil {
		logging.Warn("rejected request", "request_id", reqID, "error", err)
		return badRequest(err.Error()), nil
	}

	pdf, err := extractPDF(body, contentType, h.maxUploadBytes)
	if errors.Is(err, errNoPDF) {
		logging.Info("no pdf part in request", "request_id", reqID)
		return badRequest(noPDFMessage), nil
	}
	if err != nil {
		logging.Warn("rejected request", "request_id", reqID, "error", err)
		return badRequest(err.Error()), nil
	}

	res, err := h.convert(ctx, pdf)
	if err != nil {
		logging.Error("conversion failed", "request_id", reqID, "pdf_bytes", len(pdf), "error", err)
		return errorResponse(http.StatusInternalServerError, err.Error()), nil
	}

	logging.Info("converted pdf",
		"request_id", reqID,
		"pdf_bytes", len(pdf),
		"pages", len(res.images),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	fields := []field{{"images", res.images}}
	if h.scanBarcodes {
		fields = append(fields, field{"barcodes", res.barcodes})
	}
	return jsonResponse(http.StatusOK, fields...), nil
}

// convert stages pdf on disk, rasterizes it and uploads each page as soon as
// it is rendered. The staged file is removed before returning.
func (h *Handler) convert(ctx context.Context, pdf []byte) (*result, error) {
	tmp, err := os.CreateTemp(h.tempDir, "pdf2img-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStage, err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	_, err = tmp.Write(pdf)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStage, err)
	}

	id := filepath.Base(path)
	res := &result{}
	err = h.rasterizer.Rasterize(ctx, path, func(page render.Page) error {
		n := len(res.images) + 1
		key := fmt.Sprintf("converted/%s_page_%d.png", id, n)
		url, err := h.uploader.Upload(ctx, key, "image/png", page.PNG)
		if err != nil {
			return fmt.Errorf("%w %d: %w", ErrUpload, n, err)
		}
		logging.Debug("uploaded page", "page", n, "key", key, "bytes", len(page.PNG))
		res.images = append(res.images, url)
		res.barcodes = append(res.barcodes, page.Barcode)
		return nil
	})
	if errors.Is(err, ErrUpload) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRasterize, err)
	}
	return res, nil
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return xid.New().String()
}
