// Package gemini wraps the Google generative AI SDK for media upload,
// file-activation polling, and JSON-shaped recipe generation.
package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the generation model used for recipe extraction.
const DefaultModel = "gemini-2.5-flash"

// DefaultWaitTimeout bounds file-activation polling.
const DefaultWaitTimeout = 2 * time.Minute

// DefaultPollInterval is the fixed interval between file state checks.
const DefaultPollInterval = 2 * time.Second

// FileHandle is the subset of remote file state the pipeline cares about.
type FileHandle struct {
	Name     string
	URI      string
	MIMEType string
	State    genai.FileState
}

// WaitOptions bounds WaitForFile. Zero values use the package defaults.
type WaitOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// GenerateInput carries one generation request: a previously uploaded file
// reference plus the extraction prompt.
type GenerateInput struct {
	FileURI  string
	MIMEType string
	Prompt   string
}

// Client talks to the Gemini file and generation services. Construct one at
// process start and pass it by reference; it is safe for concurrent use.
type Client struct {
	genai *genai.Client
	model string
}

// New creates a Client. It fails with MissingCredentialError before any
// network call when apiKey is empty.
func New(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, &MissingCredentialError{}
	}

	inner, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &APICallError{Message: "failed to create client", Cause: err}
	}

	return &Client{genai: inner, model: DefaultModel}, nil
}

// WithModel overrides the generation model and returns the client.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	if c.genai != nil {
		return c.genai.Close()
	}
	return nil
}

// Upload sends a local media file to the Gemini file service and returns its
// handle. The returned file is usually still in the processing state; call
// WaitForFile before referencing it in a generation request.
func (c *Client) Upload(ctx context.Context, path, mimeType, displayName string) (*FileHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &APICallError{Message: fmt.Sprintf("failed to open media file %s", path), Cause: err}
	}
	defer func() { _ = f.Close() }()

	opts := &genai.UploadFileOptions{MIMEType: mimeType}
	if displayName != "" {
		opts.DisplayName = displayName
	}

	remote, err := c.genai.UploadFile(ctx, "", f, opts)
	if err != nil {
		return nil, &APICallError{Message: "file upload failed", Cause: err}
	}

	return handleFromFile(remote), nil
}

// fileGetter abstracts the file-state lookup for WaitForFile.
type fileGetter interface {
	GetFile(ctx context.Context, name string) (*genai.File, error)
}

// WaitForFile polls the remote file at a fixed interval until it becomes
// active. Both success and failure terminate: a terminal failure state
// raises ProcessingError, and an elapsed bound raises PollTimeoutError.
func (c *Client) WaitForFile(ctx context.Context, name string, opts WaitOptions) (*FileHandle, error) {
	return waitForFile(ctx, c.genai, name, opts)
}

func waitForFile(ctx context.Context, getter fileGetter, name string, opts WaitOptions) (*FileHandle, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultWaitTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	deadline := time.Now().Add(opts.Timeout)
	for {
		remote, err := getter.GetFile(ctx, name)
		if err != nil {
			return nil, &APICallError{Message: fmt.Sprintf("failed to get state of file %s", name), Cause: err}
		}

		switch remote.State {
		case genai.FileStateActive:
			return handleFromFile(remote), nil
		case genai.FileStateFailed:
			return nil, &ProcessingError{FileName: name, Message: "remote reported a terminal failure state"}
		}

		if !time.Now().Add(opts.PollInterval).Before(deadline) {
			return nil, &PollTimeoutError{FileName: name, Timeout: opts.Timeout}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.PollInterval):
		}
	}
}

// GenerateRecipeJSON sends the uploaded file reference plus the extraction
// prompt to the generation endpoint and returns the raw JSON response text.
// Each call is independent and stateless; retries carry no context over.
func (c *Client) GenerateRecipeJSON(ctx context.Context, in GenerateInput) (string, error) {
	model := c.genai.GenerativeModel(c.model)
	model.SetTemperature(0.1) // Low temperature for consistent output
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.FileData{MIMEType: in.MIMEType, URI: in.FileURI},
		genai.Text(in.Prompt),
	)
	if err != nil {
		return "", &APICallError{Message: "generation request failed", Cause: err}
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// handleFromFile projects the SDK file onto the pipeline's FileHandle.
func handleFromFile(f *genai.File) *FileHandle {
	return &FileHandle{
		Name:     f.Name,
		URI:      f.URI,
		MIMEType: f.MIMEType,
		State:    f.State,
	}
}

// extractResponseText pulls the concatenated text parts from a generation
// response.
func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &APICallError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &APICallError{Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", &APICallError{Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
