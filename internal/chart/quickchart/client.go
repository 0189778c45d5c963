// Package quickchart submits chart specifications to a QuickChart compatible
// renderer and downloads the resulting images.
package quickchart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ougirez/premiums/internal/chart"
	"github.com/ougirez/premiums/internal/metrics"
	"github.com/ougirez/premiums/internal/pkg/logger"
)

const (
	breakerName  = "chart-renderer"
	maxImageSize = 5 << 20
)

var ErrRenderer = errors.New("chart renderer error")

type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*response]
}

type response struct {
	body        []byte
	contentType string
}

type createRequest struct {
	Chart           chart.Config `json:"chart"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	BackgroundColor string       `json:"backgroundColor"`
}

type createResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// New returns a client whose network calls share one circuit breaker.
// The breaker opens at a 60% failure rate over at least 10 requests.
func New(baseURL string, timeout time.Duration) *Client {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf(context.Background(), "circuit breaker %s: %s -> %s", name, from, to)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// URL returns a short renderer URL for spec, or the self contained long form when
// the short link cannot be created. It fails only if spec cannot be encoded.
func (c *Client) URL(ctx context.Context, spec chart.Spec) (string, error) {
	config, err := sonic.Marshal(spec.Config)
	if err != nil {
		return "", fmt.Errorf("quickchart.URL: %w", err)
	}

	short, err := c.shortURL(ctx, spec)
	if err == nil {
		return short, nil
	}

	logger.Warnf(ctx, "short chart url failed, using long url: %v", err)
	metrics.ChartShortURLFallbacks.Inc()
	return c.longURL(spec, config), nil
}

func (c *Client) shortURL(ctx context.Context, spec chart.Spec) (string, error) {
	body, err := sonic.Marshal(createRequest{
		Chart:           spec.Config,
		Width:           spec.Width,
		Height:          spec.Height,
		BackgroundColor: spec.BackgroundColor,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.execute(ctx, http.MethodPost, c.baseURL+"/chart/create", body)
	if err != nil {
		return "", err
	}

	var created createResponse
	if err := sonic.Unmarshal(resp.body, &created); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if !created.Success || created.URL == "" {
		return "", fmt.Errorf("%w: short url not created", ErrRenderer)
	}
	return created.URL, nil
}

func (c *Client) longURL(spec chart.Spec, config []byte) string {
	q := url.Values{}
	q.Set("c", string(config))
	q.Set("w", strconv.Itoa(spec.Width))
	q.Set("h", strconv.Itoa(spec.Height))
	q.Set("bkg", spec.BackgroundColor)
	return c.baseURL + "/chart?" + q.Encode()
}

// Fetch downloads a rendered image and returns it with its content type.
func (c *Client) Fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	resp, err := c.execute(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("quickchart.Fetch: %w", err)
	}

	contentType := resp.contentType
	if contentType == "" {
		contentType = "image/png"
	}
	return resp.body, contentType, nil
}

func (c *Client) execute(ctx context.Context, method, target string, body []byte) (*response, error) {
	resp, err := c.cb.Execute(func() (*response, error) {
		return c.do(ctx, method, target, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrRenderer, method, target, res.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageSize))
	if err != nil {
		return nil, err
	}

	return &response{body: data, contentType: res.Header.Get("Content-Type")}, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
