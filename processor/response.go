package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
)

type field struct {
	key   string
	value interface{}
}

func jsonResponse(status int, fields ...field) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       encodeBody(fields...),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func errorResponse(status int, msg string) events.APIGatewayProxyResponse {
	return jsonResponse(status, field{"error", msg})
}

func badRequest(msg string) events.APIGatewayProxyResponse {
	return errorResponse(http.StatusBadRequest, msg)
}

// encodeBody writes a JSON object byte-for-byte as Python's json.dumps does by
// default, the format existing clients of this endpoint were built against.
func encodeBody(fields ...field) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		writeJSON(&b, f.key)
		b.WriteString(": ")
		switch v := f.value.(type) {
		case []string:
			b.WriteByte('[')
			for j, s := range v {
				if j > 0 {
					b.WriteString(", ")
				}
				writeJSON(&b, s)
			}
			b.WriteByte(']')
		default:
			writeJSON(&b, v)
		}
	}
	b.WriteByte('}')
	return b.String()
}

// writeJSON escapes like Python's json.dumps defaults: HTML characters pass
// through, non-ASCII becomes \uXXXX (surrogate pairs above the BMP).
func writeJSON(b *strings.Builder, v interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		b.WriteString("null")
		return
	}
	for _, r := range strings.TrimSuffix(buf.String(), "\n") {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(b, "\\u%04x\\u%04x", r1, r2)
			continue
		}
		fmt.Fprintf(b, "\\u%04x", r)
	}
}
