package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gauge-automation/lib/errors"

	"github.com/go-playground/validator/v10"
	"github.com/sethgrid/pester"
)

// Doer is satisfied by *http.Client and *pester.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type RetryConfig struct {
	MaxRetries int
	Timeout    time.Duration
	// Backoff defaults to pester.ExponentialJitterBackoff.
	Backoff pester.BackoffStrategy
}

// NewClient returns a client retrying connection errors, 5xx and 429
// responses with backoff.
func NewClient(conf RetryConfig) *pester.Client {
	client := pester.NewExtendedClient(&http.Client{Timeout: conf.Timeout})
	client.MaxRetries = conf.MaxRetries
	if client.MaxRetries < 1 {
		client.MaxRetries = 1
	}
	client.Backoff = conf.Backoff
	if client.Backoff == nil {
		client.Backoff = pester.ExponentialJitterBackoff
	}
	client.RetryOnHTTP429 = true
	client.KeepLog = true
	return client
}

// IsTransientStatus reports whether a response status is worth retrying.
func IsTransientStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

func SendRequest[T any](
	doer Doer,
	request *http.Request,
	validators ...*validator.Validate,
) (*T, error) {
	res, err := doer.Do(request)
	if err != nil {
		return nil, errors.TransientNetworkError.Clone().
			SetData("url", request.URL.String()).
			SetData("error", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		buf := bytes.Buffer{}
		if _, err := io.Copy(&buf, io.LimitReader(res.Body, 4096)); err != nil {
			return nil, fmt.Errorf("failed to decode error message: %w", err)
		}

		if IsTransientStatus(res.StatusCode) {
			return nil, errors.TransientNetworkError.Clone().
				SetData("url", request.URL.String()).
				SetData("status", res.Status).
				SetData("response", buf.String())
		}
		return nil, fmt.Errorf(
			"request failed\n\tstatus: %s\n\tresponse: %s",
			res.Status, buf.String(),
		)
	}

	buf := new(T)
	if err := json.NewDecoder(res.Body).Decode(buf); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, v := range validators {
		if err := v.Struct(buf); err != nil {
			return nil, fmt.Errorf("invalid response: %w", err)
		}
	}

	return buf, nil
}

func MakeUrl(
	baseUrl string,
	queryParams map[string]string,
) (*url.URL, error) {
	url, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	if queryParams != nil {
		q := url.Query()
		for key, val := range queryParams {
			q.Add(key, val)
		}

		url.RawQuery = q.Encode()
	}

	return url, nil
}

// MakeJSONRequest builds a request carrying body encoded as JSON.
func MakeJSONRequest(
	ctx context.Context,
	method string, url *url.URL,
	body any,
	header map[string]string,
) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url.String(), reader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Add(k, v)
	}

	return req, nil
}
