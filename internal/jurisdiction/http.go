package jurisdiction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	id "attestor/pkg/domain"
	"attestor/pkg/platform/sentinel"
)

// HTTPClient speaks to a registry exposing a REST attribute API:
//
//	PUT    /subjects/{address}/attributes/{id}
//	DELETE /subjects/{address}/attributes/{id}
//	GET    /subjects/{address}/attributes/{id}   -> 200 or 404
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Grant(ctx context.Context, subject id.Address, attributeID uint64) error {
	return c.write(ctx, http.MethodPut, subject, attributeID)
}

func (c *HTTPClient) Revoke(ctx context.Context, subject id.Address, attributeID uint64) error {
	return c.write(ctx, http.MethodDelete, subject, attributeID)
}

func (c *HTTPClient) Has(ctx context.Context, subject id.Address, attributeID uint64) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.attributeURL(subject, attributeID), nil)
	if err != nil {
		return false, fmt.Errorf("building registry request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: registry returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	}
}

func (c *HTTPClient) write(ctx context.Context, method string, subject id.Address, attributeID uint64) error {
	req, err := http.NewRequestWithContext(ctx, method, c.attributeURL(subject, attributeID), bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("building registry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("%w: registry returned %d %s", sentinel.ErrUnavailable, resp.StatusCode, body.Error)
	}
	return nil
}

func (c *HTTPClient) attributeURL(subject id.Address, attributeID uint64) string {
	return c.baseURL + "/subjects/" + subject.String() + "/attributes/" + strconv.FormatUint(attributeID, 10)
}
