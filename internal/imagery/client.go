package imagery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

// ClientConfig identifies the imagery service deployment and the OAuth2
// client used to reach it.
type ClientConfig struct {
	BaseURL      string
	ProjectID    string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Client executes computation graphs against the remote imagery service.
// It implements Evaluator. Calls are made once and never retried; a failed
// call is the caller's to absorb.
type Client struct {
	baseURL    string
	project    string
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	oauth := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		project:    cfg.ProjectID,
		httpClient: oauth.Client(context.Background()),
	}
}

func (c *Client) BandNames(ctx context.Context, img Image) ([]string, error) {
	expr, err := EncodeExpr(img.Expr())
	if err != nil {
		return nil, fmt.Errorf("failed to encode expression: %v", err)
	}
	payload := map[string]interface{}{
		"expression": map[string]interface{}{"op": "bandNames", "input": expr},
	}

	var result []string
	if err := c.computeValue(ctx, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) SumRegion(ctx context.Context, img Image, spec ReduceSpec) (map[string]float64, error) {
	expr, err := EncodeExpr(img.Expr())
	if err != nil {
		return nil, fmt.Errorf("failed to encode expression: %v", err)
	}
	payload := map[string]interface{}{
		"expression": map[string]interface{}{
			"op":        "reduceRegion",
			"reducer":   "sum",
			"input":     expr,
			"region":    spec.Region.GeoJSON(),
			"scale":     spec.Scale,
			"maxPixels": spec.MaxPixels,
		},
	}

	var result map[string]float64
	if err := c.computeValue(ctx, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchGeoTIFF materializes the image over the region at the given scale
// and returns the encoded GeoTIFF bytes.
func (c *Client) FetchGeoTIFF(ctx context.Context, img Image, region Region, scale float64) ([]byte, error) {
	expr, err := EncodeExpr(img.Expr())
	if err != nil {
		return nil, fmt.Errorf("failed to encode expression: %v", err)
	}
	payload := map[string]interface{}{
		"expression":  expr,
		"region":      region.GeoJSON(),
		"scaleMeters": scale,
		"format":      "GEO_TIFF",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %v", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/image:export", c.baseURL, c.project)
	resp, err := c.post(ctx, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("imagery service error: status %d: %s", resp.StatusCode, respBody)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) computeValue(ctx context.Context, payload map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal compute payload: %v", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/value:compute", c.baseURL, c.project)
	resp, err := c.post(ctx, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("imagery service error: status %d: %s", resp.StatusCode, respBody)
	}

	var wrapper struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return fmt.Errorf("failed to decode compute response: %v", err)
	}
	if err := json.Unmarshal(wrapper.Result, out); err != nil {
		return fmt.Errorf("failed to decode compute result: %v", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagery service request failed: %v", err)
	}
	return resp, nil
}
