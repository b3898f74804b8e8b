package protocols

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// LinkOptions tunes access link generation.
type LinkOptions struct {
	// Remark overrides the link label. When empty, the selected client's
	// email is used, then the inbound remark.
	Remark string
	// ClientIndex selects the credential for protocols that hold a client
	// list. Out of range indexes fail with ErrClientIndexOutOfRange.
	ClientIndex int
}

// AccessLink renders the shareable link for the inbound, addressed at
// hostname. A TLS/XTLS server name overrides the hostname. Empty credentials
// are filled with random values first, the same way Serialize does, so a
// link and the serialized inbound always agree.
//
// Dokodemo-door inbounds have no link format and fail with a
// ConfigurationError.
func (in *Inbound) AccessLink(hostname string, opts LinkOptions) (string, error) {
	if in.Settings == nil {
		return "", configErrorf("settings must be set")
	}
	if in.Stream == nil {
		in.Stream = defaultStreamSettings()
	}
	in.Stream.normalize()
	materializeCredentials(in.Settings)

	host := hostname
	if t := in.Stream.securitySettings(); t != nil && t.ServerName != "" {
		host = t.ServerName
	}

	switch s := in.Settings.(type) {
	case *VMessSettings:
		return in.vmessLink(host, s, opts)
	case *VLessSettings:
		return in.vlessLink(host, s, opts)
	case *TrojanSettings:
		return in.trojanLink(host, s, opts)
	case *ShadowsocksSettings:
		return in.shadowsocksLink(host, s, opts)
	case *SocksSettings:
		return in.socksLink(host, s, opts)
	case *HTTPSettings:
		return in.httpLink(host, s, opts)
	}
	return "", configErrorf("%s inbounds have no access link format", in.Protocol)
}

// vmessPayload is the JSON document carried by vmess links. Field order is
// fixed so links are byte stable.
type vmessPayload struct {
	V    string `json:"v"`
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port int    `json:"port"`
	ID   string `json:"id"`
	Aid  int64  `json:"aid"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
}

func (in *Inbound) vmessLink(host string, s *VMessSettings, opts LinkOptions) (string, error) {
	if opts.ClientIndex < 0 || opts.ClientIndex >= len(s.Clients) {
		return "", ErrClientIndexOutOfRange
	}
	client := s.Clients[opts.ClientIndex]

	p := vmessPayload{
		V:    "2",
		PS:   in.linkRemark(opts.Remark, client.Email),
		Add:  host,
		Port: in.Port,
		ID:   client.ID,
		Aid:  client.AlterID.Int64(),
		Net:  string(in.Stream.Network),
		Type: HeaderNone,
		TLS:  "none",
	}
	if in.Stream.Security == SecurityTLS {
		p.TLS = "tls"
	}

	switch in.Stream.Network {
	case NetworkTCP:
		t := in.Stream.TCPSettings
		p.Type = t.Header.Type
		if t.Header.Type == HeaderHTTP && t.Header.Request != nil {
			if len(t.Header.Request.Path) > 0 {
				p.Path = t.Header.Request.Path[0]
			}
			p.Host = strings.Join(requestHostHeader(t.Header.Request.Headers), ",")
		}
	case NetworkWS:
		w := in.Stream.WSSettings
		p.Path = w.Path
		p.Host = hostHeader(w.Headers)
	case NetworkKCP:
		k := in.Stream.KCPSettings
		p.Type = k.Header.Type
		p.Path = k.Seed
	case NetworkHTTP:
		h := in.Stream.HTTPSettings
		p.Net = "h2"
		p.Path = h.Path
		p.Host = strings.Join(h.Host, ",")
	case NetworkQUIC:
		q := in.Stream.QUICSettings
		p.Type = q.Header.Type
		p.Host = q.Security
		p.Path = q.Key
	case NetworkGRPC:
		p.Path = in.Stream.GRPCSettings.ServiceName
	}

	doc, err := json.Marshal(p)
	if err != nil {
		return "", decodeErrorf("vmess link", err)
	}
	return "vmess://" + base64.StdEncoding.EncodeToString(doc), nil
}

func (in *Inbound) vlessLink(host string, s *VLessSettings, opts LinkOptions) (string, error) {
	if opts.ClientIndex < 0 || opts.ClientIndex >= len(s.Clients) {
		return "", ErrClientIndexOutOfRange
	}
	client := s.Clients[opts.ClientIndex]

	q := newLinkParams(in.Stream)
	if client.Flow != "" && in.Stream.Network == NetworkTCP {
		q.add("flow", client.Flow)
	}
	return fmt.Sprintf("vless://%s@%s:%d?%s#%s",
		client.ID, host, in.Port, q.encode(),
		escapeRemark(in.linkRemark(opts.Remark, client.Email))), nil
}

func (in *Inbound) trojanLink(host string, s *TrojanSettings, opts LinkOptions) (string, error) {
	if opts.ClientIndex < 0 || opts.ClientIndex >= len(s.Clients) {
		return "", ErrClientIndexOutOfRange
	}
	client := s.Clients[opts.ClientIndex]

	q := newLinkParams(in.Stream)
	if client.Flow != "" && in.Stream.Network == NetworkTCP {
		q.add("flow", client.Flow)
	}
	return fmt.Sprintf("trojan://%s@%s:%d?%s#%s",
		client.Password, host, in.Port, q.encode(),
		escapeRemark(in.linkRemark(opts.Remark, client.Email))), nil
}

func (in *Inbound) shadowsocksLink(host string, s *ShadowsocksSettings, opts LinkOptions) (string, error) {
	password := s.Password
	email := ""
	if len(s.Clients) > 0 {
		if opts.ClientIndex < 0 || opts.ClientIndex >= len(s.Clients) {
			return "", ErrClientIndexOutOfRange
		}
		password = s.Clients[opts.ClientIndex].Password
		email = s.Clients[opts.ClientIndex].Email
	} else if opts.ClientIndex != 0 {
		return "", ErrClientIndexOutOfRange
	}

	cred := fmt.Sprintf("%s:%s@%s:%d", s.Method, password, host, in.Port)
	return fmt.Sprintf("ss://%s#%s",
		base64.RawURLEncoding.EncodeToString([]byte(cred)),
		escapeRemark(in.linkRemark(opts.Remark, email))), nil
}

func (in *Inbound) socksLink(host string, s *SocksSettings, opts LinkOptions) (string, error) {
	userinfo, err := accountUserinfo(s.Accounts, s.Auth == AuthPassword, opts.ClientIndex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("socks5://%s%s:%d", userinfo, host, in.Port), nil
}

func (in *Inbound) httpLink(host string, s *HTTPSettings, opts LinkOptions) (string, error) {
	userinfo, err := accountUserinfo(s.Accounts, true, opts.ClientIndex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s%s:%d", userinfo, host, in.Port), nil
}

func accountUserinfo(accounts []Account, withAuth bool, index int) (string, error) {
	if !withAuth || len(accounts) == 0 {
		if index != 0 {
			return "", ErrClientIndexOutOfRange
		}
		return "", nil
	}
	if index < 0 || index >= len(accounts) {
		return "", ErrClientIndexOutOfRange
	}
	a := accounts[index]
	return url.QueryEscape(a.User) + ":" + url.QueryEscape(a.Pass) + "@", nil
}

// linkRemark resolves the link label: explicit override, then the client
// email, then the inbound remark.
func (in *Inbound) linkRemark(override, email string) string {
	if override != "" {
		return override
	}
	if email != "" {
		return email
	}
	return in.Remark
}

// linkParams builds a query string whose keys keep insertion order; the
// standard encoder sorts keys, which client applications do not expect.
type linkParams struct {
	pairs []string
}

func (p *linkParams) add(key, value string) {
	p.pairs = append(p.pairs, key+"="+url.QueryEscape(value))
}

func (p *linkParams) encode() string {
	return strings.Join(p.pairs, "&")
}

// newLinkParams renders the shared vless/trojan query parameters: transport
// type, security, transport details, then security details.
func newLinkParams(stream *StreamSettings) *linkParams {
	q := &linkParams{}
	q.add("type", string(stream.Network))
	q.add("security", string(stream.Security))

	switch stream.Network {
	case NetworkTCP:
		t := stream.TCPSettings
		if t.Header.Type == HeaderHTTP {
			q.add("headerType", t.Header.Type)
			if t.Header.Request != nil {
				if len(t.Header.Request.Path) > 0 {
					q.add("path", t.Header.Request.Path[0])
				}
				if hosts := requestHostHeader(t.Header.Request.Headers); len(hosts) > 0 {
					q.add("host", strings.Join(hosts, ","))
				}
			}
		}
	case NetworkWS:
		w := stream.WSSettings
		q.add("path", w.Path)
		if host := hostHeader(w.Headers); host != "" {
			q.add("host", host)
		}
	case NetworkKCP:
		k := stream.KCPSettings
		q.add("headerType", k.Header.Type)
		if k.Seed != "" {
			q.add("seed", k.Seed)
		}
	case NetworkHTTP:
		h := stream.HTTPSettings
		q.add("path", h.Path)
		if len(h.Host) > 0 {
			q.add("host", strings.Join(h.Host, ","))
		}
	case NetworkQUIC:
		qc := stream.QUICSettings
		q.add("quicSecurity", qc.Security)
		if qc.Key != "" {
			q.add("key", qc.Key)
		}
		q.add("headerType", qc.Header.Type)
	case NetworkGRPC:
		g := stream.GRPCSettings
		q.add("serviceName", g.ServiceName)
		if g.MultiMode != nil && *g.MultiMode {
			q.add("mode", "multi")
		}
	}

	if t := stream.securitySettings(); t != nil {
		if sni := t.sni(); sni != "" {
			q.add("sni", sni)
		}
		if len(t.ALPN) > 0 {
			q.add("alpn", strings.Join(t.ALPN, ","))
		}
		if t.Settings != nil && t.Settings.Fingerprint != "" {
			q.add("fp", t.Settings.Fingerprint)
		}
		if t.Settings != nil && t.Settings.AllowInsecure {
			q.add("allowInsecure", "1")
		}
	}
	return q
}

// hostHeader extracts the Host value from a camouflage header map. Panels
// store the key capitalized or lowercase depending on who wrote the config.
func hostHeader(headers map[string]string) string {
	for _, key := range []string{"Host", "host"} {
		if v := headers[key]; v != "" {
			return v
		}
	}
	for key, v := range headers {
		if strings.EqualFold(key, "Host") && v != "" {
			return v
		}
	}
	return ""
}

// requestHostHeader is hostHeader for the multi-valued TCP camouflage
// request headers.
func requestHostHeader(headers map[string][]string) []string {
	for _, key := range []string{"Host", "host"} {
		if v := headers[key]; len(v) > 0 {
			return v
		}
	}
	for key, v := range headers {
		if strings.EqualFold(key, "Host") && len(v) > 0 {
			return v
		}
	}
	return nil
}

// escapeRemark escapes the link fragment but leaves slashes readable, which
// is how client applications render shared labels like "us/east".
func escapeRemark(remark string) string {
	return strings.ReplaceAll(url.PathEscape(remark), "%2F", "/")
}
