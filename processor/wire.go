package processor

import (
	"github.com/swiveltech/pdf2img/config"
	"github.com/swiveltech/pdf2img/render"
	"github.com/swiveltech/pdf2img/storage"
)

// NewWithS3 builds a Handler that renders with go-fitz and uploads through client.
func NewWithS3(cfg *config.Config, client storage.ObjectPutter) *Handler {
	r := render.New(render.Options{
		DPI:          cfg.RenderDPI,
		MaxPages:     cfg.MaxPages,
		ScanBarcodes: cfg.ScanBarcodes,
	})
	return New(cfg, r, storage.New(client, cfg.OutputBucket))
}
