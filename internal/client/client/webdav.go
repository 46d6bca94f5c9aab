package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/davmarks/internal/common"
	"github.com/dmitrijs2005/davmarks/internal/netx"
)

const (
	DefaultTimeout = 10 * time.Second

	retryBase     = 200 * time.Millisecond
	retryAttempts = 2
)

// WebDAVClient stores the bookmark file as {base}/bookmarks.html on a
// WebDAV server using Basic authentication. PROPFIND, HEAD and GET are
// retried on network failures; PUT is not.
type WebDAVClient struct {
	baseURL string
	fileURL string
	http    *http.Client
	backoff func() retry.Backoff
}

// NewWebDAVClient builds a client for the collection at serverURL.
func NewWebDAVClient(serverURL, username, password string, timeout time.Duration) (*WebDAVClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid server url %q", common.ErrValidation, serverURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", common.ErrValidation, u.Scheme)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := strings.TrimSuffix(u.String(), "/") + "/"
	file, err := url.JoinPath(base, common.RemoteFileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	return &WebDAVClient{
		baseURL: base,
		fileURL: file,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &netx.BasicAuthTransport{Username: username, Password: password},
		},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(retryAttempts, retry.NewExponential(retryBase))
		},
	}, nil
}

func (c *WebDAVClient) Ping(ctx context.Context) error {
	resp, err := c.doIdempotent(ctx, "PROPFIND", c.baseURL, func(r *http.Request) {
		r.Header.Set("Depth", "0")
	})
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

func (c *WebDAVClient) ModTime(ctx context.Context) (int64, error) {
	resp, err := c.doIdempotent(ctx, http.MethodHead, c.fileURL, nil)
	if err != nil {
		return 0, err
	}
	drain(resp)

	mod, ok := netx.LastModified(resp.Header)
	if !ok {
		return 0, fmt.Errorf("%w: HEAD response has no Last-Modified", common.ErrServer)
	}
	return mod, nil
}

func (c *WebDAVClient) Download(ctx context.Context) ([]byte, int64, error) {
	resp, err := c.doIdempotent(ctx, http.MethodGet, c.fileURL, nil)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading body: %v", common.ErrNetwork, err)
	}

	mod, _ := netx.LastModified(resp.Header)
	return body, mod, nil
}

func (c *WebDAVClient) Upload(ctx context.Context, body []byte) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.fileURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/html; charset=utf-8")

	resp, err := c.send(req)
	if err != nil {
		return 0, err
	}
	drain(resp)

	mod, _ := netx.LastModified(resp.Header)
	return mod, nil
}

func (c *WebDAVClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *WebDAVClient) doIdempotent(ctx context.Context, method, target string, prepare func(*http.Request)) (*http.Response, error) {
	var resp *http.Response
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		if prepare != nil {
			prepare(req)
		}

		resp, err = c.send(req)
		if errors.Is(err, common.ErrNetwork) && ctx.Err() == nil {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// send performs req and maps failures onto the common sentinel errors.
// On success the caller owns the response body.
func (c *WebDAVClient) send(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if netx.IsNetworkError(err) {
			return nil, fmt.Errorf("%w: %s %s: %v", common.ErrNetwork, req.Method, req.URL.Redacted(), err)
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp)
		return nil, &StatusError{Method: req.Method, Code: resp.StatusCode}
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
