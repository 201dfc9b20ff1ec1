package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/ctxutil"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/envutil"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

// ReferenceImage is an image passed to the edits endpoint to anchor a render.
type ReferenceImage struct {
	Name     string
	Bytes    []byte
	MimeType string
}

type ImageRequest struct {
	Model       string
	Prompt      string
	Size        string
	References  []ReferenceImage
	AspectRatio string
}

type ImageGeneration struct {
	Bytes         []byte
	MimeType      string
	RevisedPrompt string
}

type Client interface {
	GenerateImage(ctx context.Context, req ImageRequest) (ImageGeneration, error)
}

type client struct {
	log          *logger.Logger
	apiKey       string
	baseURL      string
	defaultModel string
	defaultSize  string
	httpClient   *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(envutil.String("OPENAI_BASE_URL", "https://api.openai.com", nil), "/")
	model := envutil.String("OPENAI_IMAGE_MODEL", "gpt-image-1", nil)
	size := envutil.String("OPENAI_IMAGE_SIZE", "1024x1024", nil)
	timeout := envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 180*time.Second)
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &client{
		log:          log.With("client", "OpenAIImages"),
		apiKey:       apiKey,
		baseURL:      baseURL,
		defaultModel: model,
		defaultSize:  size,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type imagesGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imagesResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// GenerateImage makes exactly one provider call. Requests with references go to
// the edits endpoint so the hook image anchors the remaining shots.
func (c *client) GenerateImage(ctx context.Context, req ImageRequest) (ImageGeneration, error) {
	var out ImageGeneration
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return out, errors.New("image prompt required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.defaultModel
	}
	size := strings.TrimSpace(req.Size)
	if size == "" {
		size = sizeForAspectRatio(req.AspectRatio, c.defaultSize)
	}

	start := time.Now()
	var resp imagesResponse
	var err error
	if len(req.References) > 0 {
		err = c.doEdits(ctx, model, prompt, size, req.References, &resp)
	} else {
		body := imagesGenerationRequest{Model: model, Prompt: prompt, N: 1, Size: size}
		if !strings.HasPrefix(strings.ToLower(model), "gpt-image-") {
			body.ResponseFormat = "b64_json"
		}
		err = c.doJSON(ctx, http.MethodPost, "/v1/images/generations", body, &resp)
	}
	if err != nil {
		c.log.Warn("image generation failed", "model", model, "references", len(req.References), "error", err)
		return out, err
	}
	if len(resp.Data) == 0 {
		return out, errors.New("no image returned")
	}
	item := resp.Data[0]
	out.RevisedPrompt = strings.TrimSpace(item.RevisedPrompt)
	if b64 := strings.TrimSpace(item.B64JSON); b64 != "" {
		raw, decErr := base64.StdEncoding.DecodeString(b64)
		if decErr != nil || len(raw) == 0 {
			return out, fmt.Errorf("decode image base64: %w", decErr)
		}
		out.Bytes = raw
		out.MimeType = "image/png"
	} else if u := strings.TrimSpace(item.URL); u != "" {
		raw, ct, dlErr := c.downloadBytes(ctx, u)
		if dlErr != nil {
			return out, fmt.Errorf("download generated image: %w", dlErr)
		}
		out.Bytes = raw
		out.MimeType = strings.TrimSpace(strings.Split(ct, ";")[0])
		if out.MimeType == "" {
			out.MimeType = "image/png"
		}
	} else {
		return out, errors.New("image response missing b64_json and url")
	}
	c.log.Debug("image generated", "model", model, "bytes", len(out.Bytes), "elapsed", time.Since(start).String())
	return out, nil
}

func sizeForAspectRatio(ratio, def string) string {
	switch strings.TrimSpace(ratio) {
	case "1:1":
		return "1024x1024"
	case "9:16", "4:5", "2:3":
		return "1024x1536"
	case "16:9", "3:2":
		return "1536x1024"
	default:
		return def
	}
}

func (c *client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	return c.doOnce(ctx, method, path, &buf, "application/json", out)
}

func (c *client) doEdits(ctx context.Context, model, prompt, size string, refs []ReferenceImage, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("model", model)
	_ = mw.WriteField("prompt", prompt)
	_ = mw.WriteField("size", size)
	for i, ref := range refs {
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			name = fmt.Sprintf("reference_%d.png", i)
		}
		mime := strings.TrimSpace(ref.MimeType)
		if mime == "" {
			mime = "image/png"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image[]"; filename="%s"`, name))
		h.Set("Content-Type", mime)
		part, err := mw.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := part.Write(ref.Bytes); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.doOnce(ctx, http.MethodPost, "/v1/images/edits", &buf, mw.FormDataContentType(), out)
}

func (c *client) doOnce(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("openai decode error: %w", err)
	}
	return nil
}

func (c *client) downloadBytes(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	// Signed blob URLs reject unrelated Authorization headers.
	if shouldAttachOpenAIAuth(c.baseURL, rawURL) {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, strings.TrimSpace(resp.Header.Get("Content-Type")), nil
}

func shouldAttachOpenAIAuth(baseURL, rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u == nil {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(u.Hostname()))
	if host == "" {
		return false
	}
	if bu, err := url.Parse(strings.TrimSpace(baseURL)); err == nil && bu != nil {
		if baseHost := strings.ToLower(bu.Hostname()); baseHost != "" && host == baseHost {
			return true
		}
	}
	return host == "openai.com" || strings.HasSuffix(host, ".openai.com")
}
