package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"gopkg.in/yaml.v3"
)

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the delay before the first retry; it doubles afterwards.
	BackoffBase time.Duration
	// MaxBytes caps how much of any source is read.
	MaxBytes int64
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		MaxBytes:    16 << 20,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithMaxBytes(n int64) Option            { return func(s *Settings) { s.MaxBytes = n } }

type format int

const (
	formatUnknown format = iota
	formatJSON
	formatYAML
)

// Load reads and parses a Swagger 2.0 document from a filesystem path or an
// http/https URL. file:// URLs are rejected.
func Load(ctx context.Context, input string, opts ...Option) (*Schema, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}
	settings := newSettings(opts)

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are blocked", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			var se *SpecError
			if errors.As(err, &se) {
				return nil, se
			}
			return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return parse(raw, detectFormat(u.Path), input)
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	defer f.Close()

	raw, err := readBounded(f, settings.MaxBytes, abs)
	if err != nil {
		return nil, err
	}
	return parse(raw, detectFormat(abs), abs)
}

// LoadReader parses a document from an open stream. name is used only as a
// format hint (by extension) and in error messages; it may be empty.
func LoadReader(r io.Reader, name string, opts ...Option) (*Schema, error) {
	if r == nil {
		return nil, &SpecError{Code: InputError, Message: "spec: nil reader", Location: name}
	}
	settings := newSettings(opts)
	raw, err := readBounded(r, settings.MaxBytes, name)
	if err != nil {
		return nil, err
	}
	return parse(raw, detectFormat(name), name)
}

// Parse parses a document held in memory. name is an optional format hint.
func Parse(data []byte, name string, opts ...Option) (*Schema, error) {
	settings := newSettings(opts)
	if settings.MaxBytes > 0 && int64(len(data)) > settings.MaxBytes {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: document exceeds %d bytes", settings.MaxBytes), Location: name}
	}
	return parse(data, detectFormat(name), name)
}

func newSettings(opts []Option) Settings {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

func readBounded(r io.Reader, limit int64, location string) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultSettings().MaxBytes
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("read %s: %v", location, err), Location: location, Cause: err}
	}
	if int64(len(raw)) > limit {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: document exceeds %d bytes", limit), Location: location}
	}
	return raw, nil
}

func detectFormat(name string) format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return formatJSON
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatUnknown
	}
}

func sniffFormat(data []byte) format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return formatJSON
	}
	return formatYAML
}

func parse(data []byte, f format, location string) (*Schema, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &SpecError{Code: ParseError, Message: "spec: document is empty", Location: location}
	}
	if f == formatUnknown {
		f = sniffFormat(data)
	}

	var decoded any
	switch f {
	case formatJSON:
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse json: %v", err), Location: location, Cause: err}
		}
	default:
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse yaml: %v", err), Location: location, Cause: err}
		}
	}

	root, ok := normalize(decoded).(map[string]any)
	if !ok {
		return nil, &SpecError{Code: ParseError, Message: "spec: document root must be a mapping", Location: location}
	}
	if v, ok := root["swagger"]; ok && !isSwagger2(v) {
		return nil, &SpecError{Code: ValidationError, Message: fmt.Sprintf("spec: unsupported swagger version %q (expected 2.0)", fmt.Sprint(v)), Location: location, JSONPointer: "#/swagger"}
	}
	if _, ok := root["paths"].(map[string]any); !ok {
		return nil, &SpecError{Code: ValidationError, Message: "spec: schema is missing paths and/or basePath values", Location: location, JSONPointer: "#/paths"}
	}
	if _, ok := root["basePath"].(string); !ok {
		return nil, &SpecError{Code: ValidationError, Message: "spec: schema is missing paths and/or basePath values", Location: location, JSONPointer: "#/basePath"}
	}

	return &Schema{root: root, location: location, loaded: true}, nil
}

// isSwagger2 accepts both `swagger: "2.0"` and the unquoted YAML float.
func isSwagger2(v any) bool {
	switch val := v.(type) {
	case string:
		return strings.HasPrefix(strings.TrimSpace(val), "2.")
	case float64:
		return val == 2
	case int:
		return val == 2
	default:
		return false
	}
}

// normalize rewrites YAML's map[any]any (produced for non-string keys such as
// response codes) into map[string]any, recursively.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			val[k] = normalize(child)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range val {
			val[i] = normalize(child)
		}
		return val
	default:
		return v
	}
}

// statusError is a non-transient HTTP failure; it stops retries.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("http %d: %s", e.code, e.body) }

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("transient http error %d", resp.StatusCode)
			}
			if resp.StatusCode >= 300 {
				snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
				return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
			}
			body, err = readBounded(resp.Body, settings.MaxBytes, rawURL)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(backoff),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *statusError
			var spe *SpecError
			return !errors.As(err, &se) && !errors.As(err, &spe)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}
