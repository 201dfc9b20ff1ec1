package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/http/response"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
)

// APIError is a non-2xx reply from the ad pack API.
type APIError struct {
	Status int
	response.APIError
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	if e.Reason != "" {
		msg += " reason=" + e.Reason
	}
	if len(e.MissingShots) > 0 {
		msg += " missing=" + strings.Join(e.MissingShots, ",")
	}
	return msg
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}
}

type PackReply struct {
	PackID   uuid.UUID         `json:"packId,omitempty"`
	Pack     *adpack.Pack      `json:"pack"`
	Variants []*adpack.Variant `json:"variants"`
}

type variantReply struct {
	Variant *adpack.Variant `json:"variant"`
}

func (c *Client) Generate(ctx context.Context, in services.GenerateInput) (*services.GenerateResult, error) {
	var out services.GenerateResult
	if err := c.do(ctx, http.MethodPost, "/api/packs/generate", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPacks(ctx context.Context, limit int) ([]*adpack.Pack, error) {
	var out struct {
		Packs []*adpack.Pack `json:"packs"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/packs?limit=%d", limit), nil, &out); err != nil {
		return nil, err
	}
	return out.Packs, nil
}

func (c *Client) GetPack(ctx context.Context, id uuid.UUID) (*PackReply, error) {
	var out PackReply
	if err := c.do(ctx, http.MethodGet, "/api/packs/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkWinner(ctx context.Context, variantID uuid.UUID) (*PackReply, error) {
	var out PackReply
	if err := c.do(ctx, http.MethodPost, "/api/variants/"+variantID.String()+"/winner", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Validate(ctx context.Context, variantID uuid.UUID) (*adpack.Variant, error) {
	return c.variantCall(ctx, "/validate", variantID, nil)
}

func (c *Client) Promote(ctx context.Context, variantID uuid.UUID) (*adpack.Variant, error) {
	return c.variantCall(ctx, "/promote", variantID, nil)
}

func (c *Client) ReportRenderOutcome(ctx context.Context, variantID uuid.UUID, in services.RenderOutcome) (*adpack.Variant, error) {
	return c.variantCall(ctx, "/render-outcome", variantID, in)
}

func (c *Client) Assets(ctx context.Context, variantID uuid.UUID) ([]*adpack.AdAsset, error) {
	var out struct {
		Assets []*adpack.AdAsset `json:"assets"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/variants/"+variantID.String()+"/assets", nil, &out); err != nil {
		return nil, err
	}
	return out.Assets, nil
}

func (c *Client) variantCall(ctx context.Context, suffix string, variantID uuid.UUID, body any) (*adpack.Variant, error) {
	var out variantReply
	if err := c.do(ctx, http.MethodPost, "/api/variants/"+variantID.String()+suffix, body, &out); err != nil {
		return nil, err
	}
	return out.Variant, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env response.ErrorEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
			apiErr.APIError = env.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
