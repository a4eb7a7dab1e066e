package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ServiceClient talks to the embedding inference service over HTTP. The
// service loads the model once at startup and exposes POST /embed taking raw
// image bytes; it answers {"embedding": [...]} or an error body.
//
// The client is safe for concurrent use; wrap it in Serialized when the
// inference runtime behind it is not.
type ServiceClient struct {
	client *resty.Client
	dim    int
}

// NewServiceClient constructs a client for the inference service at baseURL.
// dim is the contract vector length; responses of any other length are
// rejected as provider failures.
func NewServiceClient(baseURL string, dim int, timeout time.Duration) *ServiceClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &ServiceClient{client: client, dim: dim}
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

func (c *ServiceClient) Embed(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) == 0 {
		return nil, Unavailable(fmt.Errorf("empty image"))
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(image).
		Post("/embed")
	if err != nil {
		return nil, Unavailable(fmt.Errorf("embedding service request: %w", err))
	}

	var body embedResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, Unavailable(fmt.Errorf("decode embedding response: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		if body.Error != "" {
			return nil, Unavailable(fmt.Errorf("embedding service: %s", body.Error))
		}
		return nil, Unavailable(fmt.Errorf("embedding service returned status %d", resp.StatusCode()))
	}
	if len(body.Embedding) != c.dim {
		return nil, Unavailable(fmt.Errorf("embedding length %d, contract requires %d", len(body.Embedding), c.dim))
	}
	return body.Embedding, nil
}

func (c *ServiceClient) Dim() int { return c.dim }
