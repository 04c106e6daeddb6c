package xray

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"proxy-admin-bot/internal/config"
	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
	"proxy-admin-bot/internal/infra/metrics"
)

var _ adapter.ProxyCore = (*CoreClient)(nil)

// CoreClient drives the core's REST control API. Inbounds come from the
// local Xray config and are re-read after every restart.
type CoreClient struct {
	baseURL    string
	token      string
	nodes      []string
	configPath string
	client     *http.Client
	log        *zerolog.Logger

	mu  sync.RWMutex
	idx inboundIndex
}

func NewCoreClient(cfg *config.CoreConfig, logger *zerolog.Logger) (*CoreClient, error) {
	if _, err := url.Parse(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("invalid core api url: %w", err)
	}
	inbounds, err := LoadInbounds(cfg.XrayConfigPath)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CoreClient{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		token:      cfg.APIToken,
		nodes:      cfg.NodeURLs,
		configPath: cfg.XrayConfigPath,
		client:     &http.Client{Timeout: timeout},
		log:        logger,
		idx:        newInboundIndex(inbounds),
	}, nil
}

// userPayload is the wire shape of an account on the control API.
type userPayload struct {
	Username  string                                  `json:"username"`
	Status    model.AccountStatus                     `json:"status"`
	Proxies   map[model.ProxyType]model.ProxySettings `json:"proxies"`
	Inbounds  map[model.ProxyType][]string            `json:"inbounds"`
	Expire    int64                                   `json:"expire,omitempty"`
	DataLimit int64                                   `json:"data_limit,omitempty"`
}

func toPayload(a *model.Account) userPayload {
	p := userPayload{
		Username:  a.Username,
		Status:    a.Status,
		Proxies:   a.Proxies,
		Inbounds:  a.Inbounds.Clone(),
		DataLimit: a.DataLimit,
	}
	if a.Expire != nil {
		p.Expire = a.Expire.Unix()
	}
	return p
}

// StatusError is returned for non-2xx responses of the control API.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("core api: status %d", e.Code)
	}
	return fmt.Sprintf("core api: status %d: %s", e.Code, e.Detail)
}

func (c *CoreClient) call(ctx context.Context, op, method, endpoint string, body any) error {
	start := time.Now()
	err := c.do(ctx, method, endpoint, body)
	metrics.ObserveCoreCall(op, time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Str("endpoint", endpoint).Msg("core call failed")
	}
	return err
}

func (c *CoreClient) do(ctx context.Context, method, endpoint string, body any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode core request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return fmt.Errorf("build core request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := gjson.GetBytes(raw, "detail").String()
	if detail == "" {
		detail = strings.TrimSpace(string(raw))
	}
	return &StatusError{Code: resp.StatusCode, Detail: detail}
}

func (c *CoreClient) userURL(username string) string {
	return c.baseURL + "/api/users/" + url.PathEscape(username)
}

func (c *CoreClient) AddUser(ctx context.Context, a *model.Account) error {
	return c.call(ctx, "add_user", http.MethodPost, c.baseURL+"/api/users", toPayload(a))
}

func (c *CoreClient) UpdateUser(ctx context.Context, a *model.Account) error {
	return c.call(ctx, "update_user", http.MethodPut, c.userURL(a.Username), toPayload(a))
}

// RemoveUser treats a user the core no longer knows as removed.
func (c *CoreClient) RemoveUser(ctx context.Context, a *model.Account) error {
	err := c.call(ctx, "remove_user", http.MethodDelete, c.userURL(a.Username), nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil
	}
	return err
}

// Restart restarts the core and reloads the inbound list from disk.
func (c *CoreClient) Restart(ctx context.Context) error {
	if err := c.call(ctx, "restart", http.MethodPost, c.baseURL+"/api/core/restart", nil); err != nil {
		return err
	}
	c.reload()
	return nil
}

// RestartNodes restarts every configured node and joins their errors.
func (c *CoreClient) RestartNodes(ctx context.Context) error {
	var errs []error
	for _, n := range c.nodes {
		endpoint := strings.TrimRight(n, "/") + "/api/core/restart"
		if err := c.call(ctx, "restart_node", http.MethodPost, endpoint, nil); err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

func (c *CoreClient) reload() {
	list, err := LoadInbounds(c.configPath)
	if err != nil {
		c.log.Warn().Err(err).Msg("reload xray inbounds failed, keeping previous list")
		return
	}
	c.mu.Lock()
	c.idx = newInboundIndex(list)
	c.mu.Unlock()
}

func (c *CoreClient) InboundsByProtocol() map[model.ProxyType][]model.InboundInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[model.ProxyType][]model.InboundInfo, len(c.idx.byProtocol))
	for p, list := range c.idx.byProtocol {
		out[p] = append([]model.InboundInfo(nil), list...)
	}
	return out
}

func (c *CoreClient) InboundsByTag() map[string]model.InboundInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]model.InboundInfo, len(c.idx.byTag))
	for t, in := range c.idx.byTag {
		out[t] = in
	}
	return out
}
