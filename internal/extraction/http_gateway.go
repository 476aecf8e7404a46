package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// HTTPGateway calls a remote extractor over HTTP.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway builds a gateway for the extractor at baseURL. Timeouts are
// enforced per call through the submitted context, not the client.
func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGateway{baseURL: baseURL, client: client}
}

type submitRequest struct {
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

func (g *HTTPGateway) Submit(ctx context.Context, payload []byte, contentType string) (Result, error) {
	body, err := json.Marshal(submitRequest{
		ContentType: contentType,
		Data:        base64.StdEncoding.EncodeToString(payload),
	})
	if err != nil {
		return Result{}, &ExtractionError{Message: "encode request", cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return Result{}, &ExtractionError{Message: "build request", cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, &ExtractionError{Message: "extractor deadline exceeded", cause: err}
		}
		return Result{}, &ExtractionError{Message: "extractor unreachable", cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return Result{}, &ExtractionError{Message: fmt.Sprintf("extractor returned %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		// The extractor understood the request and rejected the document.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, &ClassificationError{Message: string(detail)}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, &ClassificationError{Message: "unparseable extractor response"}
	}
	return result, nil
}
