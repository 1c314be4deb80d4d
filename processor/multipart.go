package processor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

const (
	pdfContentType = "application/pdf"
	noPDFMessage   = "No PDF file found."
)

var (
	errNoPDF           = errors.New("no pdf part in multipart body")
	errNoContentType   = errors.New("missing content-type header")
	errPayloadTooLarge = errors.New("pdf exceeds upload limit")
)

// headerValue looks up name in headers ignoring case. Single-value headers win
// over multi-value ones.
func headerValue(req events.APIGatewayProxyRequest, name string) string {
	if v, ok := req.Headers[name]; ok {
		return v
	}
	if v, ok := req.Headers[strings.ToLower(name)]; ok {
		return v
	}
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, vs := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func decodeBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 body: %w", err)
	}
	return b, nil
}

// extractPDF returns the content of the first part whose Content-Type
// mentions application/pdf. limit <= 0 disables the size check.
func extractPDF(body []byte, contentType string, limit int64) ([]byte, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("invalid content-type %q: %w", contentType, err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("content-type %q is not multipart", mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("content-type %q has no boundary", contentType)
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			return nil, errNoPDF
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart body: %w", err)
		}
		if !strings.Contains(part.Header.Get("Content-Type"), pdfContentType) {
			continue
		}

		var r io.Reader = part
		if limit > 0 {
			r = io.LimitReader(part, limit+1)
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read pdf part: %w", err)
		}
		if limit > 0 && int64(len(content)) > limit {
			return nil, fmt.Errorf("%w of %d bytes", errPayloadTooLarge, limit)
		}
		// An empty first match counts as no PDF; later parts are not consulted.
		if len(content) == 0 {
			return nil, errNoPDF
		}
		return content, nil
	}
}
