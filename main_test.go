package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/swiveltech/pdf2img/config"
	"github.com/swiveltech/pdf2img/processor"
)

type memoryBucket struct {
	objects map[string][]byte
}

func (m *memoryBucket) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

// samplePDF builds a PDF with n blank pages.
func samplePDF(n int) []byte {
	objs := []string{"<< /Type /Catalog /Pages 2 0 R >>"}
	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i := 0; i < n; i++ {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 50] /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func uploadEvent(t *testing.T, pdf []byte) events.APIGatewayProxyRequest {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="sample.pdf"`)
	h.Set("Content-Type", "application/pdf")
	pw, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	pw.Write(pdf)
	w.Close()

	return events.APIGatewayProxyRequest{
		Headers:         map[string]string{"Content-Type": w.FormDataContentType()},
		Body:            base64.StdEncoding.EncodeToString(buf.Bytes()),
		IsBase64Encoded: true,
	}
}

func TestLocalPDFProcessing(t *testing.T) {
	tmpDir := t.TempDir()
	bucket := &memoryBucket{objects: map[string][]byte{}}
	cfg := &config.Config{OutputBucket: "test-bucket", RenderDPI: 72, TempDir: tmpDir}

	h := processor.NewWithS3(cfg, bucket)
	response, err := h.Handle(context.Background(), uploadEvent(t, samplePDF(2)))
	if err != nil {
		t.Fatalf("Error processing PDF: %v", err)
	}

	if response.StatusCode != 200 {
		t.Fatalf("Expected status code 200, got %d: %s", response.StatusCode, response.Body)
	}

	var body struct {
		Images []string `json:"images"`
	}
	if err := json.Unmarshal([]byte(response.Body), &body); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if len(body.Images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(body.Images))
	}

	for i, url := range body.Images {
		prefix := "https://test-bucket.s3.amazonaws.com/"
		if !strings.HasPrefix(url, prefix) || !strings.HasSuffix(url, fmt.Sprintf("_page_%d.png", i+1)) {
			t.Errorf("unexpected url %q", url)
		}
		obj, ok := bucket.objects[strings.TrimPrefix(url, prefix)]
		if !ok {
			t.Fatalf("object for %q not uploaded", url)
		}
		img, err := png.Decode(bytes.NewReader(obj))
		if err != nil {
			t.Fatalf("uploaded object is not a PNG: %v", err)
		}
		if b := img.Bounds(); b.Dx() < 99 || b.Dx() > 101 {
			t.Errorf("page %d width = %d, want ~100", i+1, b.Dx())
		}
	}

	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %d", len(entries))
	}
}

func TestCorruptPDF(t *testing.T) {
	tmpDir := t.TempDir()
	bucket := &memoryBucket{objects: map[string][]byte{}}
	cfg := &config.Config{OutputBucket: "test-bucket", RenderDPI: 72, TempDir: tmpDir}

	response, err := processor.NewWithS3(cfg, bucket).Handle(context.Background(), uploadEvent(t, []byte("%PDF-1.4\ngarbage")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.StatusCode != 500 {
		t.Fatalf("Expected status code 500, got %d", response.StatusCode)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(response.Body), &body); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if body["error"] == "" {
		t.Error("Expected non-empty error message")
	}
	if len(bucket.objects) != 0 {
		t.Errorf("nothing should be uploaded, got %d objects", len(bucket.objects))
	}

	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %d", len(entries))
	}
}
