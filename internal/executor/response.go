package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

var errorFields = []string{"error", "message", "error_description", "detail", "title"}

// maxErrorText is the longest raw body quoted in an error message.
const maxErrorText = 500

// Normalize classifies an HTTP response. 2xx is success. Bodies are parsed as
// JSON when the content type says so or the text looks like JSON. Other bodies,
// and bodies that fail to parse, leave Data nil; RawText always holds the body.
func Normalize(status int, header http.Header, body []byte) models.Response {
	resp := models.Response{
		StatusCode: status,
		RawText:    string(body),
		Headers:    flattenHeaders(header),
		Data:       parseData(header.Get("Content-Type"), body),
	}
	if status < 200 || status >= 300 {
		resp.Error = extractError(status, body)
	}
	return resp
}

func parseData(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if strings.Contains(strings.ToLower(contentType), "application/json") || looksLikeJSON(body) {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return nil
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func extractError(status int, body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		if obj, ok := v.(map[string]any); ok {
			for _, field := range errorFields {
				switch val := obj[field].(type) {
				case string:
					return val
				case map[string]any:
					if msg, ok := val["message"].(string); ok {
						return msg
					}
				}
			}
		}
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}

	if text := string(body); text != "" && len(text) < maxErrorText {
		return fmt.Sprintf("HTTP %d: %s", status, text)
	}
	return fmt.Sprintf("HTTP %d: Request failed", status)
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[k] = strings.Join(vs, ", ")
	}
	return out
}
