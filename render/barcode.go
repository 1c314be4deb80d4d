package render

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/swiveltech/pdf2img/logging"
)

func barcodeReaders() []gozxing.Reader {
	return []gozxing.Reader{
		oned.NewMultiFormatUPCEANReader(nil),
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
		qrcode.NewQRCodeReader(),
	}
}

// decodeBarcode returns the first symbol any reader finds, or nil.
func decodeBarcode(img image.Image) (*gozxing.Result, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, err
	}
	for _, reader := range barcodeReaders() {
		if result, err := reader.Decode(bmp, nil); err == nil {
			return result, nil
		}
	}
	return nil, nil
}

// scan never fails the page; a scan error is logged and reported as no barcode.
func scan(img image.Image, page int) string {
	result, err := decodeBarcode(img)
	if err != nil {
		logging.Warn("barcode scan failed", "page", page, "error", err)
		return ""
	}
	if result == nil {
		return ""
	}
	logging.Debug("found barcode",
		"page", page,
		"format", result.GetBarcodeFormat().String(),
		"barcode", result.GetText(),
	)
	return result.GetText()
}
