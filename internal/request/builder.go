// Package request materializes HTTP requests from canonical endpoints and
// caller arguments.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolgen"
)

// ArrayStyle selects how array query values are encoded.
type ArrayStyle string

const (
	// ArrayRepeat encodes ids=1&ids=2.
	ArrayRepeat ArrayStyle = "repeat"
	// ArrayComma encodes ids=1,2.
	ArrayComma ArrayStyle = "comma"
)

// SignatureParam is always emitted last in the query string.
const SignatureParam = "signature"

// BodyKey is the argument carrying a whole request body.
const BodyKey = toolgen.BodyKey

// Builder builds requests against one base URL.
type Builder struct {
	BaseURL        string
	DefaultHeaders http.Header

	// AuthParams are not required from the caller on secured endpoints,
	// authentication supplies them.
	AuthParams toolgen.ParamSet
	ArrayStyle ArrayStyle
}

// Request is a fully resolved HTTP request.
type Request struct {
	Method  string
	BaseURL string
	Path    string
	Query   url.Values
	Header  http.Header
	Body    any
}

// Build maps args onto ep. Unknown arguments are ignored.
func (b *Builder) Build(ep *models.Endpoint, args map[string]any) (*Request, error) {
	if ep == nil {
		return nil, fmt.Errorf("nil endpoint")
	}

	req := &Request{
		Method:  ep.Method,
		BaseURL: strings.TrimRight(b.BaseURL, "/"),
		Path:    ep.Path,
		Query:   url.Values{},
		Header:  b.DefaultHeaders.Clone(),
	}
	if req.Header == nil {
		req.Header = http.Header{}
	}

	for _, p := range ep.Parameters {
		if !p.Required || present(args, p.Name) {
			continue
		}
		if ep.IsSecured() && b.AuthParams.Contains(p.Name) {
			continue
		}
		return nil, &MissingParameterError{Parameter: p.Name, Location: string(p.Location)}
	}

	var cookies []string
	for _, p := range ep.Parameters {
		if !present(args, p.Name) {
			continue
		}
		v := args[p.Name]
		switch p.Location {
		case models.LocationPath:
			placeholder := "{" + p.Name + "}"
			if !strings.Contains(req.Path, placeholder) {
				return nil, &PathSubstitutionError{Parameter: p.Name, Path: ep.Path}
			}
			req.Path = strings.ReplaceAll(req.Path, placeholder, url.PathEscape(FormatValue(v)))
		case models.LocationQuery:
			b.addQuery(req.Query, p.Name, v)
		case models.LocationHeader:
			req.Header.Set(p.Name, FormatValue(v))
		case models.LocationCookie:
			cookies = append(cookies, p.Name+"="+url.QueryEscape(FormatValue(v)))
		}
	}

	if left := models.PathPlaceholders(req.Path); len(left) > 0 {
		return nil, &PathSubstitutionError{Parameter: left[0], Path: ep.Path}
	}
	if len(cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(cookies, "; "))
	}

	req.Body = buildBody(ep, args)
	return req, nil
}

func present(args map[string]any, name string) bool {
	v, ok := args[name]
	return ok && v != nil
}

func (b *Builder) addQuery(q url.Values, name string, v any) {
	items, isList := listValues(v)
	if !isList {
		q.Add(name, FormatValue(v))
		return
	}
	if b.ArrayStyle == ArrayComma {
		q.Add(name, strings.Join(items, ","))
		return
	}
	for _, item := range items {
		q.Add(name, item)
	}
}

// listValues formats the elements of a slice value.
func listValues(v any) ([]string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]string, rv.Len())
	for i := range out {
		out[i] = FormatValue(rv.Index(i).Interface())
	}
	return out, true
}

// buildBody composes the JSON payload. A declared full-body parameter or a
// "body" argument replaces the payload; other body values merge into one object.
func buildBody(ep *models.Endpoint, args map[string]any) any {
	bodyParams := ep.ParametersIn(models.LocationBody)
	if len(bodyParams) == 1 && bodyParams[0].Name == BodyKey && present(args, BodyKey) {
		return args[BodyKey]
	}

	declared := make(map[string]bool, len(ep.Parameters))
	for _, p := range ep.Parameters {
		declared[p.Name] = true
	}

	var body map[string]any
	if (ep.BodySchema != nil || len(bodyParams) > 0) && !declared[BodyKey] && present(args, BodyKey) {
		whole, ok := args[BodyKey].(map[string]any)
		if !ok {
			return args[BodyKey]
		}
		body = make(map[string]any, len(whole))
		for k, v := range whole {
			body[k] = v
		}
	}

	set := func(k string, v any) {
		if body == nil {
			body = make(map[string]any)
		}
		body[k] = v
	}
	for _, p := range bodyParams {
		if present(args, p.Name) {
			set(p.Name, args[p.Name])
		}
	}
	if ep.BodySchema != nil {
		for _, name := range ep.BodySchema.PropertyNames() {
			if declared[name] || !present(args, name) {
				continue
			}
			set(name, args[name])
		}
	}

	if body == nil {
		return nil
	}
	return body
}

// FormatValue renders an argument as a URL or header value.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// EncodeQuery encodes q sorted by key with the signature parameter last.
func EncodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		if k != SignatureParam {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := q[SignatureParam]; ok {
		keys = append(keys, SignatureParam)
	}

	var buf strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if buf.Len() > 0 {
				buf.WriteByte('&')
			}
			buf.WriteString(url.QueryEscape(k))
			buf.WriteByte('=')
			buf.WriteString(url.QueryEscape(v))
		}
	}
	return buf.String()
}

// URL renders the absolute request URL.
func (r *Request) URL() string {
	u := r.BaseURL + r.Path
	if q := EncodeQuery(r.Query); q != "" {
		u += "?" + q
	}
	return u
}

// HTTPRequest materializes r as an *http.Request bound to ctx.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method, r.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range r.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	if r.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}
