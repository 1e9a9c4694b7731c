// Package client talks to the classification API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/sre-norns/envprobe/pkg/batch"
	"github.com/sre-norns/envprobe/pkg/envdetect"
	"github.com/sre-norns/envprobe/pkg/httpapi"
)

type ApiClientConfig struct {
	ApiServerAddress string `help:"URL address of the API server" name:"server" env:"ENVPROBE_SERVER"`
	Token            string `help:"Bearer token for the API server" env:"ENVPROBE_TOKEN"`
}

func (c ApiClientConfig) NewClient() (*RestApiClient, error) {
	return NewRestApiClient(c.ApiServerAddress, c.Token)
}

type RestApiClient struct {
	baseUrl    *url.URL
	token      string
	httpClient *http.Client
}

func NewRestApiClient(baseUrl string, token string) (*RestApiClient, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid API server address %q: %w", baseUrl, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid API server address %q: scheme and host required", baseUrl)
	}

	return &RestApiClient{
		baseUrl:    parsed,
		token:      token,
		httpClient: &http.Client{},
	}, nil
}

func (c *RestApiClient) apiUrl(uri string) *url.URL {
	result := *c.baseUrl
	result.Path = path.Join("/", c.baseUrl.Path, "api/v1", uri)
	return &result
}

func (c *RestApiClient) get(ctx context.Context, apiUrl *url.URL) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, apiUrl.String(), nil)
	if err != nil {
		return nil, err
	}
	request.Header.Add("Accept", "application/json")

	return c.httpClient.Do(request)
}

func (c *RestApiClient) post(ctx context.Context, apiUrl *url.URL, body io.Reader) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, apiUrl.String(), body)
	if err != nil {
		return nil, err
	}
	request.Header.Add("Accept", "application/json")
	request.Header.Add("Content-Type", "application/json")
	if c.token != "" {
		request.Header.Add("Authorization", fmt.Sprintf("Bearer %v", c.token))
	}

	return c.httpClient.Do(request)
}

func readApiError(resp *http.Response) error {
	errorResponse := &httpapi.ErrorResponse{
		Code:    resp.StatusCode,
		Message: resp.Status,
	}

	if err := json.NewDecoder(resp.Body).Decode(errorResponse); err != nil {
		// Failed to unmarshal error message, fallback to HTTP status code
		errorResponse.Message = resp.Status
	}

	return errorResponse
}

func decodeResponse(resp *http.Response, value any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readApiError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(value)
}

func (c *RestApiClient) postJSON(ctx context.Context, uri string, request, response any) error {
	data, err := json.Marshal(request)
	if err != nil {
		return err
	}

	resp, err := c.post(ctx, c.apiUrl(uri), bytes.NewReader(data))
	if err != nil {
		return err
	}

	return decodeResponse(resp, response)
}

func (c *RestApiClient) getJSON(ctx context.Context, uri string, response any) error {
	resp, err := c.get(ctx, c.apiUrl(uri))
	if err != nil {
		return err
	}

	return decodeResponse(resp, response)
}

func (c *RestApiClient) Classify(ctx context.Context, targetURL, content string) (envdetect.Result, error) {
	var result httpapi.ClassifyResponse
	err := c.postJSON(ctx, "classify", httpapi.ClassifyRequest{URL: targetURL, Content: content}, &result)
	return result.Result, err
}

func (c *RestApiClient) Batch(ctx context.Context, targets batch.TargetList) (batch.Report, error) {
	var result batch.Report
	err := c.postJSON(ctx, "batch", targets, &result)
	return result, err
}

func (c *RestApiClient) Rules(ctx context.Context) (envdetect.Rules, error) {
	var result envdetect.Rules
	err := c.getJSON(ctx, "rules", &result)
	return result, err
}

func (c *RestApiClient) Version(ctx context.Context) (httpapi.VersionResponse, error) {
	var result httpapi.VersionResponse
	err := c.getJSON(ctx, "version", &result)
	return result, err
}
