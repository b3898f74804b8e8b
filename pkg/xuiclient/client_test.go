package xuiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/awolverp/xuiclient/pkg/protocols"
)

type fakePanel struct {
	mux        *http.ServeMux
	server     *httptest.Server
	loginCount int
}

func newFakePanel(t *testing.T) *fakePanel {
	t.Helper()
	p := &fakePanel{mux: http.NewServeMux()}
	p.mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		p.loginCount++
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["username"] != "admin" || creds["password"] != "secret" {
			writeEnvelope(w, false, "wrong credentials", nil)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
		writeEnvelope(w, true, "", nil)
	})
	p.server = httptest.NewServer(p.mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePanel) client(t *testing.T, dialect Dialect) *Client {
	t.Helper()
	c, err := New(Options{
		URL:      p.server.URL,
		Username: "admin",
		Password: "secret",
		Dialect:  dialect,
	})
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, success bool, msg string, obj any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"msg":     msg,
		"obj":     obj,
	})
}

func requireSessionCookie(t *testing.T, r *http.Request) {
	t.Helper()
	cookie, err := r.Cookie("session")
	require.NoError(t, err, "request carries no session cookie")
	require.Equal(t, "abc", cookie.Value)
}

func TestLoginCachesSession(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/server/status", func(w http.ResponseWriter, r *http.Request) {
		requireSessionCookie(t, r)
		writeEnvelope(w, true, "", map[string]any{
			"cpu":    12.5,
			"uptime": "3600",
			"xray":   map[string]any{"state": "running", "version": "1.8.4"},
		})
	})

	c := panel.client(t, DialectMHSanaei)
	ctx := context.Background()

	status, err := c.ServerStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 12.5, status.CPU)
	require.Equal(t, int64(3600), status.Uptime.Int64())
	require.Equal(t, "running", status.XRay.State)

	_, err = c.ServerStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, panel.loginCount, "second call must reuse the session")
}

func TestLoginFailure(t *testing.T) {
	panel := newFakePanel(t)
	c, err := New(Options{
		URL:      panel.server.URL,
		Username: "admin",
		Password: "wrong",
	})
	require.NoError(t, err)

	err = c.Login(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "wrong credentials", apiErr.Message)
}

func TestReloginOnExpiredSession(t *testing.T) {
	panel := newFakePanel(t)
	calls := 0
	panel.mux.HandleFunc("/panel/inbound/list", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// expired session: panels redirect to the login page
			w.Header().Set("Location", "/")
			w.WriteHeader(http.StatusTemporaryRedirect)
			return
		}
		writeEnvelope(w, true, "", []any{})
	})

	c := panel.client(t, DialectMHSanaei)
	inbounds, err := c.Inbounds(context.Background())
	require.NoError(t, err)
	require.Empty(t, inbounds)
	require.Equal(t, 2, calls)
	require.Equal(t, 2, panel.loginCount)
}

func TestInboundsDecodesPanelObjects(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/panel/inbound/list", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, true, "", []map[string]any{{
			"id":             1,
			"up":             "100",
			"down":           "200",
			"total":          0,
			"remark":         "edge",
			"enable":         true,
			"expiryTime":     0,
			"listen":         "",
			"port":           "443",
			"protocol":       "vless",
			"settings":       `{"clients":[{"id":"11111111-1111-1111-1111-111111111111"}],"decryption":"none","fallbacks":[]}`,
			"streamSettings": `{"network":"tcp","security":"none","tcpSettings":{"header":{"type":"none"}}}`,
			"sniffing":       `{"enabled":true,"destOverride":["http","tls"]}`,
			"tag":            "inbound-443",
		}})
	})

	c := panel.client(t, DialectMHSanaei)
	inbounds, err := c.Inbounds(context.Background())
	require.NoError(t, err)
	require.Len(t, inbounds, 1)

	in := inbounds[0]
	require.Equal(t, 1, in.ID)
	require.Equal(t, protocols.ProtocolVLess, in.Protocol)
	require.Equal(t, int64(100), in.Up)
	require.Equal(t, 443, in.Port)
	require.Equal(t, "inbound-443", in.Tag)
}

func TestAddInboundSendsWireBodyAndReadsAssignedID(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/panel/inbound/add", func(w http.ResponseWriter, r *http.Request) {
		requireSessionCookie(t, r)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "443", body["port"])
		require.Equal(t, "0", body["up"])
		require.IsType(t, "", body["settings"])

		writeEnvelope(w, true, "", map[string]any{"id": 9, "tag": "inbound-443"})
	})

	in, err := protocols.NewInbound(protocols.InboundParams{
		Remark:   "edge",
		Port:     443,
		Settings: &protocols.VLessSettings{},
	})
	require.NoError(t, err)

	c := panel.client(t, DialectMHSanaei)
	require.NoError(t, c.AddInbound(context.Background(), in))
	require.Equal(t, 9, in.ID)
	require.Equal(t, "inbound-443", in.Tag)
}

func TestAPIErrorCarriesPanelMessage(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/panel/inbound/del/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, false, "record not found", nil)
	})

	c := panel.client(t, DialectMHSanaei)
	err := c.DeleteInbound(context.Background(), 42)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "record not found", apiErr.Message)
}

func TestUnsupportedOperationPerDialect(t *testing.T) {
	panel := newFakePanel(t)
	c := panel.client(t, DialectVaxilu)

	_, err := c.ClientTraffic(context.Background(), "user@host")
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, DialectVaxilu, unsupported.Dialect)

	_, err = c.Inbound(context.Background(), 1)
	require.ErrorAs(t, err, &unsupported)

	err = c.AddClients(context.Background(), 1, protocols.VLessClient{ID: "x"})
	require.ErrorAs(t, err, &unsupported)
}

func TestClientIPsWithoutRecords(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/panel/api/inbounds/clientIps/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, true, "", "No IP Record")
	})

	c := panel.client(t, DialectMHSanaei)
	ips, err := c.ClientIPs(context.Background(), "user@host")
	require.NoError(t, err)
	require.Empty(t, ips)
}

func TestAlireza0ListRoute(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/xui/API/inbounds/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		writeEnvelope(w, true, "", []any{})
	})

	c := panel.client(t, DialectAlireza0)
	inbounds, err := c.Inbounds(context.Background())
	require.NoError(t, err)
	require.Empty(t, inbounds)
}

func TestAddClientsWrapsSettingsString(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/panel/api/inbounds/addClient", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, float64(3), body["id"])

		settings, ok := body["settings"].(string)
		require.True(t, ok)

		var inner struct {
			Clients []protocols.VLessClient `json:"clients"`
		}
		require.NoError(t, json.Unmarshal([]byte(settings), &inner))
		require.Len(t, inner.Clients, 1)
		require.Equal(t, "11111111-1111-1111-1111-111111111111", inner.Clients[0].ID)

		writeEnvelope(w, true, "", nil)
	})

	c := panel.client(t, DialectMHSanaei)
	err := c.AddClients(context.Background(), 3, protocols.VLessClient{
		ID:            "11111111-1111-1111-1111-111111111111",
		ClientOptions: protocols.ClientOptions{Email: "user@host"},
	})
	require.NoError(t, err)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	require.Equal(t, DialectMHSanaei, d)

	_, err = ParseDialect("3x-ui")
	require.Error(t, err)

	for _, name := range []string{"vaxilu", "niduka-akalanka", "mhsanaei", "alireza0"} {
		d, err := ParseDialect(name)
		require.NoError(t, err)
		require.Equal(t, Dialect(name), d)
	}
}

func TestStatusErrorOnNonJSONFailure(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/server/status", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := panel.client(t, DialectMHSanaei)
	_, err := c.ServerStatus(context.Background())

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	panel := newFakePanel(t)
	panel.mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusTemporaryRedirect)
	})
	panel.mux.HandleFunc("/panel/setting/all", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, true, "", map[string]any{"webPort": "2053"})
	})

	c := panel.client(t, DialectMHSanaei)
	ctx := context.Background()

	settings, err := c.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2053), settings.WebPort.Int64())
	require.Equal(t, 1, panel.loginCount)

	require.NoError(t, c.Logout(ctx))

	_, err = c.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, panel.loginCount, "logout must force a fresh login")
}
