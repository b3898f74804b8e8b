// Package xuiclient talks to the HTTP API of XUI web panels. It supports the
// four widespread panel forks behind one API surface; operations a fork
// never exposed fail with an UnsupportedOperationError instead of a 404.
package xuiclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/awolverp/xuiclient/pkg/protocols"
)

const (
	defaultTimeout       = 20 * time.Second
	sessionCacheKey      = "session"
	sessionExpiration    = 55 * time.Minute
	sessionCleanupPeriod = 10 * time.Minute
)

// Options configures a Client.
type Options struct {
	// URL is the panel base URL, including any web base path.
	URL      string
	Username string
	Password string

	// Dialect selects the panel fork; empty means MHSanaei.
	Dialect Dialect

	// Timeout bounds each request; zero means 20 seconds.
	Timeout time.Duration

	// InsecureSkipVerify disables certificate verification. Panels are
	// commonly served with self signed certificates.
	InsecureSkipVerify bool

	Logger *logrus.Logger
}

// Client is a session-holding XUI panel API client. It logs in lazily,
// caches the session cookie and re-authenticates once when the panel
// reports the session expired. It is safe for concurrent use.
type Client struct {
	http        *resty.Client
	baseURL     string
	username    string
	password    string
	dialect     Dialect
	cookieCache *cache.Cache
	logger      *logrus.Logger
}

// New creates a panel client. No request is made until the first operation.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("xuiclient: panel URL must be set")
	}
	dialect, err := ParseDialect(string(opts.Dialect))
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.NoRedirectPolicy()).
		SetHeader("Accept", "application/json")
	if opts.InsecureSkipVerify {
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Client{
		http:        httpClient,
		baseURL:     strings.TrimRight(opts.URL, "/"),
		username:    opts.Username,
		password:    opts.Password,
		dialect:     dialect,
		cookieCache: cache.New(sessionExpiration, sessionCleanupPeriod),
		logger:      logger,
	}, nil
}

// Dialect returns the panel fork the client was configured for.
func (c *Client) Dialect() Dialect { return c.dialect }

// Login authenticates against the panel and caches the session cookie.
// Operations call it implicitly; calling it again with a live session is a
// no-op.
func (c *Client) Login(ctx context.Context) error {
	if _, found := c.cookieCache.Get(sessionCacheKey); found {
		return nil
	}

	r, err := c.dialect.resolve(opLogin)
	if err != nil {
		return err
	}

	c.logger.Infof("Logging in to panel at %s", c.baseURL)
	c.logger.Debugf("Using username: %s", c.username)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"username": c.username,
			"password": c.password,
		}).
		Execute(r.method, c.baseURL+r.path)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	if _, err := parseEnvelope(opLogin, resp); err != nil {
		return err
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return errors.New("xuiclient: no session cookie received from panel")
	}
	c.cookieCache.Set(sessionCacheKey, cookies, cache.DefaultExpiration)
	c.logger.Info("Successfully logged in to panel")
	return nil
}

// Logout invalidates the panel session. Panels answer the logout endpoint
// with a redirect to the login page, which counts as success.
func (c *Client) Logout(ctx context.Context) error {
	defer c.cookieCache.Delete(sessionCacheKey)

	if _, found := c.cookieCache.Get(sessionCacheKey); !found {
		return nil
	}
	r, err := c.dialect.resolve(opLogout)
	if err != nil {
		return err
	}
	resp, err := c.newRequest(ctx, nil).Execute(r.method, c.baseURL+r.path)
	if err != nil {
		if isLoginRedirect(resp) {
			return nil
		}
		return fmt.Errorf("logout request failed: %w", err)
	}
	if isLoginRedirect(resp) || resp.StatusCode() == http.StatusOK {
		return nil
	}
	return &StatusError{Operation: string(opLogout), StatusCode: resp.StatusCode(), Body: string(resp.Body())}
}

// ServerStatus fetches host telemetry.
func (c *Client) ServerStatus(ctx context.Context) (*ServerStatus, error) {
	obj, err := c.call(ctx, opServerStatus, nil, nil)
	if err != nil {
		return nil, err
	}
	status := &ServerStatus{}
	if err := json.Unmarshal([]byte(obj.Raw), status); err != nil {
		return nil, fmt.Errorf("failed to parse server status: %w", err)
	}
	return status, nil
}

// Settings fetches the panel configuration.
func (c *Client) Settings(ctx context.Context) (*PanelSettings, error) {
	obj, err := c.call(ctx, opSettings, nil, nil)
	if err != nil {
		return nil, err
	}
	settings := &PanelSettings{}
	if err := json.Unmarshal([]byte(obj.Raw), settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}

// RestartPanel asks the panel process to restart. The in-flight session
// usually survives, but callers should expect a short outage.
func (c *Client) RestartPanel(ctx context.Context) error {
	_, err := c.call(ctx, opRestartPanel, nil, nil)
	return err
}

// ServerLog fetches the last limit lines of the panel log. MHSanaei and
// Alireza0 only.
func (c *Client) ServerLog(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1000
	}
	obj, err := c.call(ctx, opServerLog, []any{limit}, nil)
	if err != nil {
		return nil, err
	}
	var lines []string
	if err := json.Unmarshal([]byte(obj.Raw), &lines); err != nil {
		return nil, fmt.Errorf("failed to parse server log: %w", err)
	}
	return lines, nil
}

// ServerConfig fetches the generated xray-core configuration. MHSanaei and
// Alireza0 only.
func (c *Client) ServerConfig(ctx context.Context) (map[string]any, error) {
	obj, err := c.call(ctx, opServerConfig, nil, nil)
	if err != nil {
		return nil, err
	}
	config := map[string]any{}
	if err := json.Unmarshal([]byte(obj.Raw), &config); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	return config, nil
}

// Inbounds lists every inbound on the panel.
func (c *Client) Inbounds(ctx context.Context) ([]*protocols.Inbound, error) {
	obj, err := c.call(ctx, opListInbounds, nil, nil)
	if err != nil {
		return nil, err
	}
	items := obj.Array()
	inbounds := make([]*protocols.Inbound, 0, len(items))
	for _, item := range items {
		in, err := protocols.UnserializeInbound([]byte(item.Raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse inbound: %w", err)
		}
		inbounds = append(inbounds, in)
	}
	return inbounds, nil
}

// Inbound fetches a single inbound by id. Not available on Vaxilu panels.
func (c *Client) Inbound(ctx context.Context, id int) (*protocols.Inbound, error) {
	obj, err := c.call(ctx, opGetInbound, []any{id}, nil)
	if err != nil {
		return nil, err
	}
	in, err := protocols.UnserializeInbound([]byte(obj.Raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse inbound: %w", err)
	}
	return in, nil
}

// AddInbound creates the inbound on the panel. Empty credentials are filled
// with random values before sending; when the panel echoes the created
// object back, the assigned id and tag are written into in.
func (c *Client) AddInbound(ctx context.Context, in *protocols.Inbound) error {
	body, err := in.Serialize()
	if err != nil {
		return err
	}
	c.logger.Infof("Adding %s inbound %q on port %d", in.Protocol, in.Remark, in.Port)
	obj, err := c.call(ctx, opAddInbound, nil, body)
	if err != nil {
		return err
	}
	if obj.IsObject() {
		if id := obj.Get("id"); id.Exists() {
			in.ID = int(id.Int())
		}
		if tag := obj.Get("tag"); tag.Exists() {
			in.Tag = tag.String()
		}
	}
	return nil
}

// UpdateInbound replaces the inbound with the given id.
func (c *Client) UpdateInbound(ctx context.Context, id int, in *protocols.Inbound) error {
	body, err := in.Serialize()
	if err != nil {
		return err
	}
	_, err = c.call(ctx, opUpdateInbound, []any{id}, body)
	return err
}

// DeleteInbound removes the inbound with the given id.
func (c *Client) DeleteInbound(ctx context.Context, id int) error {
	c.logger.Infof("Deleting inbound %d", id)
	_, err := c.call(ctx, opDeleteInbound, []any{id}, nil)
	return err
}

// ClientIPs returns the source addresses recorded for a client email.
// Panels answer with a plain message instead of a list when no record
// exists; that case returns an empty slice.
func (c *Client) ClientIPs(ctx context.Context, email string) ([]string, error) {
	obj, err := c.call(ctx, opClientIPs, []any{email}, nil)
	if err != nil {
		return nil, err
	}
	if !obj.IsArray() {
		return nil, nil
	}
	var ips []string
	if err := json.Unmarshal([]byte(obj.Raw), &ips); err != nil {
		return nil, fmt.Errorf("failed to parse client ips: %w", err)
	}
	return ips, nil
}

// ClearClientIPs drops the recorded source addresses for a client email.
func (c *Client) ClearClientIPs(ctx context.Context, email string) error {
	_, err := c.call(ctx, opClearClientIPs, []any{email}, nil)
	return err
}

// ClientTraffic fetches per-client counters by email. MHSanaei and Alireza0
// only.
func (c *Client) ClientTraffic(ctx context.Context, email string) (*protocols.ClientStat, error) {
	obj, err := c.call(ctx, opClientTraffic, []any{email}, nil)
	if err != nil {
		return nil, err
	}
	stat := &protocols.ClientStat{}
	if err := json.Unmarshal([]byte(obj.Raw), stat); err != nil {
		return nil, fmt.Errorf("failed to parse client traffic: %w", err)
	}
	return stat, nil
}

// AddClients appends credentials to an existing inbound. MHSanaei and
// Alireza0 only; the credential type must match the inbound protocol.
func (c *Client) AddClients(ctx context.Context, inboundID int, clients ...protocols.InboundClient) error {
	if len(clients) == 0 {
		return nil
	}
	body, err := clientSettingsBody(inboundID, clients)
	if err != nil {
		return err
	}
	c.logger.Infof("Adding %d clients to inbound %d", len(clients), inboundID)
	_, err = c.call(ctx, opAddClient, nil, body)
	return err
}

// UpdateClient replaces one credential of an inbound. clientID is the
// client uuid for vmess and vless, and the email for trojan and
// shadowsocks.
func (c *Client) UpdateClient(ctx context.Context, inboundID int, clientID string, client protocols.InboundClient) error {
	body, err := clientSettingsBody(inboundID, []protocols.InboundClient{client})
	if err != nil {
		return err
	}
	_, err = c.call(ctx, opUpdateClient, []any{clientID}, body)
	return err
}

// DeleteClient removes one credential from an inbound.
func (c *Client) DeleteClient(ctx context.Context, inboundID int, clientID string) error {
	c.logger.Infof("Deleting client %s from inbound %d", clientID, inboundID)
	_, err := c.call(ctx, opDeleteClient, []any{inboundID, clientID}, nil)
	return err
}

// ResetClientTraffic zeroes the counters of a client email.
func (c *Client) ResetClientTraffic(ctx context.Context, inboundID int, email string) error {
	_, err := c.call(ctx, opResetClientTraffic, []any{inboundID, email}, nil)
	return err
}

// DeleteDepletedClients removes every client of the inbound whose traffic
// or expiry is exhausted.
func (c *Client) DeleteDepletedClients(ctx context.Context, inboundID int) error {
	_, err := c.call(ctx, opDeleteDepletedUsers, []any{inboundID}, nil)
	return err
}

// OnlineClients lists the emails of currently connected clients. MHSanaei
// and Alireza0 only.
func (c *Client) OnlineClients(ctx context.Context) ([]string, error) {
	obj, err := c.call(ctx, opOnlineClients, nil, nil)
	if err != nil {
		return nil, err
	}
	if !obj.IsArray() {
		return nil, nil
	}
	var emails []string
	if err := json.Unmarshal([]byte(obj.Raw), &emails); err != nil {
		return nil, fmt.Errorf("failed to parse online clients: %w", err)
	}
	return emails, nil
}

// clientSettingsBody wraps credentials in the add/update client body: the
// clients array travels JSON encoded inside the settings string field.
func clientSettingsBody(inboundID int, clients []protocols.InboundClient) (map[string]any, error) {
	settings, err := json.Marshal(map[string]any{"clients": clients})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal clients: %w", err)
	}
	return map[string]any{
		"id":       inboundID,
		"settings": string(settings),
	}, nil
}

// call resolves the endpoint, ensures a session and runs the request,
// re-authenticating once when the panel signals an expired session. It
// returns the obj field of the response envelope.
func (c *Client) call(ctx context.Context, op operation, args []any, body any) (gjson.Result, error) {
	r, err := c.dialect.resolve(op)
	if err != nil {
		return gjson.Result{}, err
	}
	url := c.baseURL + r.path
	if len(args) > 0 {
		url = c.baseURL + fmt.Sprintf(r.path, args...)
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := c.Login(ctx); err != nil {
			return gjson.Result{}, err
		}

		c.logger.Debugf("%s %s", r.method, url)
		resp, err := c.newRequest(ctx, body).Execute(r.method, url)
		if err != nil {
			if isLoginRedirect(resp) {
				c.cookieCache.Delete(sessionCacheKey)
				continue
			}
			return gjson.Result{}, fmt.Errorf("%s request failed: %w", op, err)
		}
		if resp.StatusCode() == http.StatusUnauthorized || isLoginRedirect(resp) {
			c.cookieCache.Delete(sessionCacheKey)
			continue
		}
		return parseEnvelope(op, resp)
	}
	return gjson.Result{}, ErrLoginRequired
}

func (c *Client) newRequest(ctx context.Context, body any) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if cookies, found := c.cookieCache.Get(sessionCacheKey); found {
		req.SetCookies(cookies.([]*http.Cookie))
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return req
}

// isLoginRedirect reports whether the panel answered with its session
// expiry signal: a redirect back to the login page.
func isLoginRedirect(resp *resty.Response) bool {
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code >= 300 && code < 310 && resp.Header().Get("Location") == "/"
}

// parseEnvelope decodes the {success, msg, obj} envelope shared by every
// dialect and returns obj. Numeric fields inside obj may be strings
// depending on the fork; callers decode it leniently.
func parseEnvelope(op operation, resp *resty.Response) (gjson.Result, error) {
	if resp.StatusCode() != http.StatusOK {
		return gjson.Result{}, &StatusError{Operation: string(op), StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	if !gjson.ValidBytes(resp.Body()) {
		return gjson.Result{}, fmt.Errorf("failed to parse %s response: invalid json: %q", op, string(resp.Body()))
	}
	doc := gjson.ParseBytes(resp.Body())
	if !doc.Get("success").Bool() {
		return gjson.Result{}, &APIError{Operation: string(op), Message: strings.TrimSpace(doc.Get("msg").String())}
	}
	return doc.Get("obj"), nil
}
