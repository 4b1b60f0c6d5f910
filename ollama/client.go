package ollama

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/arloliu/kouka/compress"
	"github.com/arloliu/kouka/errs"
	"github.com/arloliu/kouka/extract"
	"github.com/arloliu/kouka/internal/httpclient"
	"github.com/arloliu/kouka/internal/ratelimit"
	"github.com/arloliu/kouka/stream"
)

// GenerateRequest describes one streamed generation.
type GenerateRequest struct {
	Model  string
	Prompt string
	System string

	// Options is a raw JSON object of model parameters such as
	// {"temperature":0.2}. It is sent as the "options" field unchanged.
	Options []byte
}

// GenerateResult summarizes a finished, or partially received, generation.
type GenerateResult struct {
	RequestID string
	Model     string

	// Response is the concatenation of every fragment.
	Response   string
	Fragments  int
	DoneReason string

	// BytesReceived counts decoded body bytes; Digest is their xxHash64.
	BytesReceived int64
	Digest        uint64

	// TruncatedFragments counts fragments longer than the value capacity.
	TruncatedFragments int64

	Duration time.Duration
}

// Client issues streamed generate requests. It is safe for concurrent use;
// each Generate call owns its own accumulator and extractors.
type Client struct {
	cfg     Config
	base    string
	http    *http.Client
	limiter *ratelimit.Limiter
	log     logrus.FieldLogger
}

type generateBody struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

// New creates a Client.
//
// Parameters:
//   - cfg: Client configuration; see Config for defaults
//
// Returns:
//   - *Client: The client
//   - error: errs.ErrInvalidHost (wrapped) or a TLS configuration error
func New(cfg Config) (*Client, error) {
	return NewWithHTTPClient(cfg, nil)
}

// NewWithHTTPClient creates a Client that sends requests through httpClient.
// Timeout and TLS settings in cfg are ignored when httpClient is not nil.
func NewWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	base, err := cfg.baseURL()
	if err != nil {
		return nil, err
	}

	if httpClient == nil {
		tlsConfig, err := httpclient.TLSConfig(cfg.Insecure, cfg.CACertFile)
		if err != nil {
			return nil, err
		}
		httpClient = httpclient.New(tlsConfig, cfg.timeout())
	}

	logger := cfg.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	return &Client{
		cfg:     cfg,
		base:    base.String(),
		http:    httpClient,
		limiter: ratelimit.New(cfg.RateLimit),
		log:     logger,
	}, nil
}

// Host returns the normalized server base URL.
func (c *Client) Host() string {
	return c.base
}

// Generate streams a generation and calls onFragment with each piece of text as
// soon as it is complete in the body. onFragment may be nil.
//
// Parameters:
//   - ctx: Cancels the request, including reading the body
//   - req: Model, prompt and optional system prompt and options
//   - onFragment: Called synchronously from the read loop, in order
//
// Returns:
//   - *GenerateResult: The result; also returned with a non-nil error when part of
//     the stream was received
//   - error: Validation errors from errs, *StatusError, *StreamError,
//     errs.ErrEmptyResponse, errs.ErrAllocation, or a transport error
func (c *Client) Generate(ctx context.Context, req GenerateRequest, onFragment func(string)) (*GenerateResult, error) {
	body, err := encodeGenerateBody(req)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	requestID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"model":      req.Model,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")
	httpReq.Header.Set("X-Request-Id", requestID)
	if c.cfg.AcceptEncoding != "" {
		httpReq.Header.Set("Accept-Encoding", c.cfg.AcceptEncoding)
	}

	start := time.Now()
	log.WithField("bytes", len(body)).Debug("sending generate request")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("close response body error: %v", errClose)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := readStatusError(resp, requestID)
		log.WithField("status", resp.StatusCode).Debugf("generate rejected: %s", statusErr.Message)

		return nil, statusErr
	}

	result := &GenerateResult{
		RequestID: requestID,
		Model:     req.Model,
	}

	err = c.readStream(resp, result, onFragment)
	result.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"bytes":     result.BytesReceived,
		"fragments": result.Fragments,
		"duration":  result.Duration,
	}).Debug("generate stream finished")

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}

		return result, err
	}

	return result, nil
}

// readStream decodes the body and runs it through the extractors.
func (c *Client) readStream(resp *http.Response, result *GenerateResult, onFragment func(string)) error {
	body, err := compress.NewHeaderReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	defer body.Close()

	var (
		text      strings.Builder
		streamErr string
	)

	response, err := extract.New("response", func(value []byte, _ any) {
		text.Write(value)
		result.Fragments++
		if onFragment != nil {
			onFragment(string(value))
		}
	}, c.extractorOptions()...)
	if err != nil {
		return err
	}

	failure, err := extract.New("error", func(value []byte, _ any) {
		if streamErr == "" {
			streamErr = string(value)
		}
	}, c.extractorOptions()...)
	if err != nil {
		return err
	}

	done, err := extract.New("done_reason", func(value []byte, _ any) {
		result.DoneReason = string(value)
	}, c.extractorOptions()...)
	if err != nil {
		return err
	}

	acc, err := stream.New(stream.MultiFeeder(response, failure, done), c.accumulatorOptions()...)
	if err != nil {
		return err
	}
	defer acc.Close()

	_, readErr := acc.ReadFrom(body)

	result.Response = text.String()
	result.BytesReceived = acc.Total()
	result.Digest = acc.Sum64()
	result.TruncatedFragments = response.Stats().TruncatedValues

	switch {
	case readErr != nil:
		return fmt.Errorf("read stream: %w", readErr)
	case streamErr != "":
		return &StreamError{Message: streamErr, RequestID: result.RequestID}
	case result.Fragments == 0:
		return errs.ErrEmptyResponse
	}

	return nil
}

func (c *Client) extractorOptions() []extract.Option {
	var opts []extract.Option
	if c.cfg.ValueCapacity > 0 {
		opts = append(opts, extract.WithValueCapacity(c.cfg.ValueCapacity))
	}
	if c.cfg.DecodeUnicode {
		opts = append(opts, extract.WithUnicodeDecoder(extract.NewUTF16Decoder()))
	}

	return opts
}

func (c *Client) accumulatorOptions() []stream.Option {
	var opts []stream.Option
	if c.cfg.ReadBufferSize > 0 {
		opts = append(opts, stream.WithReadSize(c.cfg.ReadBufferSize))
	}
	if c.cfg.MaxBufferSize > 0 {
		opts = append(opts, stream.WithMaxSize(c.cfg.MaxBufferSize))
	}

	return opts
}

// encodeGenerateBody validates req and renders the JSON request body.
func encodeGenerateBody(req GenerateRequest) ([]byte, error) {
	if strings.TrimSpace(req.Model) == "" {
		return nil, errs.ErrEmptyModel
	}
	if req.Prompt == "" {
		return nil, errs.ErrEmptyPrompt
	}

	body, err := json.Marshal(generateBody{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if len(bytes.TrimSpace(req.Options)) == 0 {
		return body, nil
	}

	if !gjson.ValidBytes(req.Options) || !gjson.ParseBytes(req.Options).IsObject() {
		return nil, fmt.Errorf("%w: options must be a JSON object", errs.ErrInvalidJSON)
	}

	body, err = sjson.SetRawBytes(body, "options", req.Options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}

	return body, nil
}

// readStatusError builds a StatusError from a non-2xx response.
func readStatusError(resp *http.Response, requestID string) *StatusError {
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		RequestID:  requestID,
	}

	body, err := compress.NewHeaderReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return statusErr
	}
	defer body.Close()

	payload, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil && len(payload) == 0 {
		return statusErr
	}

	if gjson.ValidBytes(payload) {
		if msg := gjson.GetBytes(payload, "error"); msg.Exists() {
			statusErr.Message = msg.String()
			return statusErr
		}
	}
	statusErr.Message = strings.TrimSpace(string(payload))

	return statusErr
}
