// Package translate calls machine translation services: Google Cloud
// Translation, Microsoft Translator, DeepL (free and pro endpoints) and
// Yandex Cloud Translate, plus an external plugin command.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"
)

// ---------------------------------------------------------------------------
// Provider IDs (as written in the config file)
// ---------------------------------------------------------------------------

const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
	ProviderDeepLFree = "deepl-free"
	ProviderDeepLPro  = "deepl-pro"
	ProviderYandex    = "yandex"
	ProviderPlugin    = "plugin"
)

// Providers lists every accepted provider ID.
var Providers = []string{
	ProviderGoogle,
	ProviderMicrosoft,
	ProviderDeepLFree,
	ProviderDeepLPro,
	ProviderYandex,
	ProviderPlugin,
}

// IsKnownProvider reports whether id is one of Providers.
func IsKnownProvider(id string) bool {
	for _, p := range Providers {
		if p == id {
			return true
		}
	}
	return false
}

// Default endpoints.
const (
	GoogleURL    = "https://translation.googleapis.com/language/translate/v2"
	MicrosoftURL = "https://api.cognitive.microsofttranslator.com/translate?api-version=3.0"
	DeepLFreeURL = "https://api-free.deepl.com/v2/translate"
	DeepLProURL  = "https://api.deepl.com/v2/translate"
	YandexURL    = "https://translate.api.cloud.yandex.net/translate/v2/translate"
)

var (
	// ErrUnknownProvider is returned by New for an unsupported provider ID.
	ErrUnknownProvider = errors.New("unsupported provider")
	// ErrNoTranslation is returned when a provider answers without text.
	ErrNoTranslation = errors.New("No translation found")
)

// ---------------------------------------------------------------------------
// Request / function type
// ---------------------------------------------------------------------------

// Request is one text to translate.
type Request struct {
	Text   string `json:"text"`
	From   string `json:"from"`
	To     string `json:"to"`
	APIKey string `json:"apiKey,omitempty"`
	// Free selects the DeepL free endpoint.
	Free bool `json:"free"`
}

// Func translates a single text.
type Func func(ctx context.Context, req Request) (string, error)

// ProviderError is a failed provider call.
type ProviderError struct {
	Provider string
	// Status is the HTTP status, 0 when no response was received.
	Status int
	Body   string
	Err    error
}

func (e *ProviderError) Error() string {
	name := displayName(e.Provider)
	switch {
	case e.Status != 0:
		msg := fmt.Sprintf("%s API error: %d %s", name, e.Status, http.StatusText(e.Status))
		if e.Body != "" {
			msg += " " + e.Body
		}
		return msg
	case e.Err != nil:
		return fmt.Sprintf("%s API error: %v", name, e.Err)
	}
	return name + " API error"
}

func (e *ProviderError) Unwrap() error { return e.Err }

func displayName(id string) string {
	switch id {
	case ProviderGoogle:
		return "Google Translate"
	case ProviderMicrosoft:
		return "Microsoft Translator"
	case ProviderDeepLFree, ProviderDeepLPro:
		return "Deepl Translate"
	case ProviderYandex:
		return "Yandex Translate"
	case ProviderPlugin:
		return "Plugin"
	}
	return id
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options selects and configures a provider.
type Options struct {
	// Provider is one of Providers.
	Provider string
	// Plugin is the plugin executable, used when Provider is "plugin".
	Plugin string
	// Dir resolves a relative Plugin path.
	Dir string
	// Endpoint overrides the provider URL.
	Endpoint string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration
	// MaxRetries is the number of retries on 429, 5xx and network errors.
	// Negative disables retries. Default: 2.
	MaxRetries int
	// Logger receives debug output. Default: slog.Default().
	Logger *slog.Logger
}

func (o *Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 30 * time.Second
}

func (o *Options) effectiveMaxRetries() int {
	switch {
	case o.MaxRetries < 0:
		return 0
	case o.MaxRetries == 0:
		return 2
	}
	return o.MaxRetries
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// New returns the translation function for opts.Provider.
func New(opts Options) (Func, error) {
	switch opts.Provider {
	case ProviderGoogle:
		c := newClient(opts, GoogleURL)
		return c.google, nil
	case ProviderMicrosoft:
		c := newClient(opts, MicrosoftURL)
		return c.microsoft, nil
	case ProviderDeepLFree, ProviderDeepLPro:
		c := newClient(opts, "")
		return c.deepl, nil
	case ProviderYandex:
		c := newClient(opts, YandexURL)
		return c.yandex, nil
	case ProviderPlugin:
		return newPlugin(opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
}

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// retryWait is the backoff before retry attempt n (0-based).
var retryWait = func(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * 500 * time.Millisecond
}

type client struct {
	provider   string
	endpoint   string
	http       *http.Client
	maxRetries int
	log        *slog.Logger
}

func newClient(opts Options, defaultURL string) *client {
	endpoint := defaultURL
	if opts.Endpoint != "" {
		endpoint = opts.Endpoint
	}
	return &client{
		provider:   opts.Provider,
		endpoint:   endpoint,
		http:       makeHTTPClient(opts.Proxy, opts.effectiveTimeout()),
		maxRetries: opts.effectiveMaxRetries(),
		log:        opts.logger(),
	}
}

// post sends payload as JSON and decodes a 200 response into out.
func (c *client) post(ctx context.Context, endpoint string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryWait(attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		c.log.Debug("provider request", "provider", c.provider, "attempt", attempt+1, "url", endpoint)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &ProviderError{Provider: c.provider, Err: ctx.Err()}
			}
			lastErr = &ProviderError{Provider: c.provider, Err: err}
			continue
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			lastErr = &ProviderError{Provider: c.provider, Status: resp.StatusCode, Body: truncate(string(respBody), 500)}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				c.log.Debug("provider retryable status", "provider", c.provider, "status", resp.StatusCode)
				continue
			}
			return lastErr
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return &ProviderError{Provider: c.provider, Err: fmt.Errorf("decoding response: %w", err)}
		}
		return nil
	}
	return lastErr
}

func (c *client) noTranslation() error {
	return &ProviderError{Provider: c.provider, Err: ErrNoTranslation}
}

// ---------------------------------------------------------------------------
// Providers
// ---------------------------------------------------------------------------

func (c *client) google(ctx context.Context, r Request) (string, error) {
	payload := map[string]string{
		"q":      r.Text,
		"source": r.From,
		"target": r.To,
		"format": "text",
	}
	var resp struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	headers := map[string]string{"X-Goog-Api-Key": r.APIKey}
	if err := c.post(ctx, c.endpoint, headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Data.Translations) == 0 || resp.Data.Translations[0].TranslatedText == "" {
		return "", c.noTranslation()
	}
	return resp.Data.Translations[0].TranslatedText, nil
}

func (c *client) microsoft(ctx context.Context, r Request) (string, error) {
	endpoint, err := withQuery(c.endpoint, map[string]string{"from": r.From, "to": r.To})
	if err != nil {
		return "", err
	}
	payload := []map[string]string{{"Text": r.Text}}
	var resp []struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	headers := map[string]string{"Ocp-Apim-Subscription-Key": r.APIKey}
	if err := c.post(ctx, endpoint, headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp) == 0 || len(resp[0].Translations) == 0 || resp[0].Translations[0].Text == "" {
		return "", c.noTranslation()
	}
	return resp[0].Translations[0].Text, nil
}

func (c *client) deepl(ctx context.Context, r Request) (string, error) {
	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = DeepLProURL
		if r.Free {
			endpoint = DeepLFreeURL
		}
	}
	payload := map[string]any{
		"text":        []string{r.Text},
		"source_lang": r.From,
		"target_lang": r.To,
	}
	var resp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	headers := map[string]string{"Authorization": "DeepL-Auth-Key " + r.APIKey}
	if err := c.post(ctx, endpoint, headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Translations) == 0 || resp.Translations[0].Text == "" {
		return "", c.noTranslation()
	}
	return resp.Translations[0].Text, nil
}

func (c *client) yandex(ctx context.Context, r Request) (string, error) {
	payload := map[string]any{
		"texts":              []string{r.Text},
		"sourceLanguageCode": r.From,
		"targetLanguageCode": r.To,
	}
	var resp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	headers := map[string]string{"Authorization": "Api-Key " + r.APIKey}
	if err := c.post(ctx, c.endpoint, headers, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Translations) == 0 || resp.Translations[0].Text == "" {
		return "", c.noTranslation()
	}
	return resp.Translations[0].Text, nil
}

// withQuery adds params to the query string of base.
func withQuery(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint %s: %w", base, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
