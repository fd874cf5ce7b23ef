// Package client talks to a running starfinder server over its JSON API.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
	"github.com/secmon-lab/starfinder/pkg/domain/model/errs"
	"github.com/secmon-lab/starfinder/pkg/domain/model/search"
	"github.com/secmon-lab/starfinder/pkg/service/browse"
	"github.com/secmon-lab/starfinder/pkg/utils/errutil"
	"github.com/secmon-lab/starfinder/pkg/utils/request_id"
	"github.com/secmon-lab/starfinder/pkg/utils/safe"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ browse.Fetcher = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(x *Client) {
		x.httpClient = c
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, goerr.Wrap(err, "invalid server url",
			goerr.TV(errutil.EndpointKey, baseURL), goerr.T(errs.TagValidationFailure))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, goerr.New("server url must be http or https",
			goerr.TV(errutil.EndpointKey, baseURL), goerr.T(errs.TagValidationFailure))
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func windowQuery(w search.Window) url.Values {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(w.Offset))
	if w.Limit > 0 {
		q.Set("limit", strconv.Itoa(w.Limit))
	}
	return q
}

func (x *Client) ListDefault(ctx context.Context, w search.Window) (*search.Page, error) {
	var page search.Page
	if err := x.do(ctx, http.MethodGet, "/api/repositories", windowQuery(w), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (x *Client) Search(ctx context.Context, req search.Request) (*search.Page, error) {
	q := windowQuery(req.Window)
	if req.Term != "" {
		q.Set("search", req.Term)
	}
	if req.Language != "" {
		q.Set("language", req.Language)
	}

	var page search.Page
	if err := x.do(ctx, http.MethodGet, "/api/repositories/search", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (x *Client) AISearch(ctx context.Context, req search.AIRequest) (*search.Page, error) {
	var page search.Page
	if err := x.do(ctx, http.MethodPost, "/api/repositories/ai-search", nil, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (x *Client) Total(ctx context.Context, req search.Request) (int64, error) {
	q := url.Values{}
	if req.Term != "" {
		q.Set("search", req.Term)
	}
	if req.Language != "" {
		q.Set("language", req.Language)
	}

	var resp struct {
		Total int64 `json:"total"`
	}
	if err := x.do(ctx, http.MethodGet, "/api/repositories/total", q, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

func (x *Client) Languages(ctx context.Context) ([]string, error) {
	var resp struct {
		Languages []string `json:"languages"`
	}
	if err := x.do(ctx, http.MethodGet, "/api/languages", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Languages, nil
}

func (x *Client) Starred(ctx context.Context, user string, page int) (*interfaces.StarredPage, error) {
	q := url.Values{}
	q.Set("user", user)
	q.Set("page", strconv.Itoa(page))

	var resp interfaces.StarredPage
	if err := x.do(ctx, http.MethodGet, "/api/starred", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (x *Client) Readme(ctx context.Context, owner, repo string) (string, error) {
	var resp struct {
		Content string `json:"content"`
	}
	path := "/api/readme/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
	if err := x.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// do sends one request. Non-2xx responses become errors carrying the server's message and a
// tag matching the status class.
func (x *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := x.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	endpoint := u.String()

	var reader io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to encode request", goerr.TV(errutil.EndpointKey, endpoint))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.TV(errutil.EndpointKey, endpoint))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := request_id.FromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to reach server",
			goerr.TV(errutil.EndpointKey, endpoint), goerr.T(errs.TagExternal))
	}
	defer safe.Close(ctx, resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerr.Wrap(err, "failed to read response",
			goerr.TV(errutil.EndpointKey, endpoint), goerr.T(errs.TagExternal))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := string(raw)
		if sonic.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}

		tag := errs.TagExternal
		switch resp.StatusCode {
		case http.StatusBadRequest:
			tag = errs.TagValidationFailure
		case http.StatusNotFound:
			tag = errs.TagNotFound
		case http.StatusForbidden:
			tag = errs.TagForbidden
		case http.StatusServiceUnavailable:
			tag = errs.TagUnavailable
		case http.StatusGatewayTimeout:
			tag = errs.TagTimeout
		case http.StatusBadGateway:
			tag = errs.TagExecutionFailure
		}

		return goerr.New("server returned error: "+msg,
			goerr.TV(errutil.EndpointKey, endpoint),
			goerr.TV(errutil.HTTPStatusKey, resp.StatusCode),
			goerr.T(tag))
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return goerr.Wrap(err, "failed to decode response",
			goerr.TV(errutil.EndpointKey, endpoint), goerr.T(errs.TagExternal))
	}
	return nil
}
