package protocols

// Network identifies the stream transport an inbound listens on.
type Network string

// Supported stream networks.
const (
	NetworkTCP  Network = "tcp"
	NetworkWS   Network = "ws"
	NetworkKCP  Network = "kcp"
	NetworkHTTP Network = "http" // HTTP/2, advertised as "h2" in access links
	NetworkQUIC Network = "quic"
	NetworkGRPC Network = "grpc"
)

// SupportsSecurity reports whether TLS/XTLS can be attached to the network.
// KCP and QUIC carry their own encryption and reject a security layer.
func (n Network) SupportsSecurity() bool {
	switch n {
	case NetworkKCP, NetworkQUIC:
		return false
	}
	return true
}

func (n Network) valid() bool {
	switch n {
	case NetworkTCP, NetworkWS, NetworkKCP, NetworkHTTP, NetworkQUIC, NetworkGRPC:
		return true
	}
	return false
}

// Security identifies the encryption layer wrapping a transport.
type Security string

// Supported security layers.
const (
	SecurityNone Security = "none"
	SecurityTLS  Security = "tls"
	SecurityXTLS Security = "xtls"
)

// Header camouflage types shared by TCP, KCP and QUIC transports. The set is
// open: values outside this list are carried through unchanged so that newer
// panels keep working.
const (
	HeaderNone        = "none"
	HeaderSRTP        = "srtp"
	HeaderUTP         = "utp"
	HeaderWechatVideo = "wechat-video"
	HeaderDTLS        = "dtls"
	HeaderWireguard   = "wireguard"
	HeaderHTTP        = "http" // TCP only
)

// HTTPRequestHeader is the camouflage request sent when a TCP transport uses
// the "http" header type.
type HTTPRequestHeader struct {
	Method  string              `json:"method"`
	Path    []string            `json:"path"`
	Headers map[string][]string `json:"headers"`
}

// HTTPResponseHeader is the camouflage response of the "http" header type.
type HTTPResponseHeader struct {
	Version string              `json:"version"`
	Status  string              `json:"status"`
	Reason  string              `json:"reason"`
	Headers map[string][]string `json:"headers"`
}

// TCPHeader selects the TCP camouflage. Request/Response are only present
// when Type is "http"; absent sub-objects get defaults (GET /, 200 OK) but
// present ones round-trip unchanged.
type TCPHeader struct {
	Type     string              `json:"type"`
	Request  *HTTPRequestHeader  `json:"request,omitempty"`
	Response *HTTPResponseHeader `json:"response,omitempty"`
}

// TCPStreamSettings configures the raw TCP transport.
type TCPStreamSettings struct {
	AcceptProxyProtocol bool      `json:"acceptProxyProtocol"`
	Header              TCPHeader `json:"header"`
}

func (t *TCPStreamSettings) normalize() {
	if t.Header.Type == "" {
		t.Header.Type = HeaderNone
	}
	if t.Header.Type != HeaderHTTP {
		return
	}
	if t.Header.Request == nil {
		t.Header.Request = &HTTPRequestHeader{
			Method:  "GET",
			Path:    []string{"/"},
			Headers: map[string][]string{},
		}
	}
	if t.Header.Response == nil {
		t.Header.Response = &HTTPResponseHeader{
			Version: "1.1",
			Status:  "200",
			Reason:  "OK",
			Headers: map[string][]string{},
		}
	}
}

// WSStreamSettings configures the WebSocket transport.
type WSStreamSettings struct {
	AcceptProxyProtocol bool              `json:"acceptProxyProtocol"`
	Path                string            `json:"path"`
	Headers             map[string]string `json:"headers"`
}

func (w *WSStreamSettings) normalize() {
	if w.Path == "" {
		w.Path = "/"
	}
	if w.Headers == nil {
		w.Headers = map[string]string{}
	}
}

// KCPHeader selects the mKCP camouflage.
type KCPHeader struct {
	Type string `json:"type"`
}

// KCPStreamSettings configures the mKCP transport.
type KCPStreamSettings struct {
	MTU              int       `json:"mtu"`
	TTI              int       `json:"tti"`
	UplinkCapacity   int       `json:"uplinkCapacity"`
	DownlinkCapacity int       `json:"downlinkCapacity"`
	Congestion       bool      `json:"congestion"`
	ReadBufferSize   int       `json:"readBufferSize"`
	WriteBufferSize  int       `json:"writeBufferSize"`
	Header           KCPHeader `json:"header"`
	Seed             string    `json:"seed"`
}

func (k *KCPStreamSettings) normalize() {
	if k.MTU == 0 {
		k.MTU = 1350
	}
	if k.TTI == 0 {
		k.TTI = 20
	}
	if k.UplinkCapacity == 0 {
		k.UplinkCapacity = 5
	}
	if k.DownlinkCapacity == 0 {
		k.DownlinkCapacity = 20
	}
	if k.ReadBufferSize == 0 {
		k.ReadBufferSize = 5
	}
	if k.WriteBufferSize == 0 {
		k.WriteBufferSize = 5
	}
	if k.Header.Type == "" {
		k.Header.Type = HeaderNone
	}
}

// HTTPStreamSettings configures the HTTP/2 transport.
type HTTPStreamSettings struct {
	Path string   `json:"path"`
	Host []string `json:"host"`
}

func (h *HTTPStreamSettings) normalize() {
	if h.Path == "" {
		h.Path = "/"
	}
	if h.Host == nil {
		h.Host = []string{}
	}
}

// QUICStreamSettings configures the QUIC transport. Security here is QUIC's
// own payload encryption ("none", "aes-128-gcm", "chacha20-poly1305"), not
// the stream security layer.
type QUICStreamSettings struct {
	Security string     `json:"security"`
	Key      string     `json:"key"`
	Header   QUICHeader `json:"header"`
}

// QUICHeader selects the QUIC camouflage.
type QUICHeader struct {
	Type string `json:"type"`
}

func (q *QUICStreamSettings) normalize() {
	if q.Security == "" {
		q.Security = "none"
	}
	if q.Header.Type == "" {
		q.Header.Type = HeaderNone
	}
}

// GRPCStreamSettings configures the gRPC transport.
type GRPCStreamSettings struct {
	ServiceName string `json:"serviceName"`
	MultiMode   *bool  `json:"multiMode,omitempty"` // Vaxilu and NidukaAkalanka omit this
}

// TLSCertificate is a certificate/key file pair.
type TLSCertificate struct {
	CertificateFile string `json:"certificateFile"`
	KeyFile         string `json:"keyFile"`
}

// TLSClientSettings is the nested "settings" block newer panels attach to
// TLS/XTLS configuration. Older dialects omit it entirely.
type TLSClientSettings struct {
	AllowInsecure bool     `json:"allowInsecure"`
	Fingerprint   string   `json:"fingerprint"`
	ServerName    string   `json:"serverName"`
	Domains       []string `json:"domains,omitempty"`
}

// TLSSettings holds the TLS or XTLS layer configuration; the two share one
// shape and differ only in their wire tag. ALPN is kept as the full list the
// panel reported so that multi-value configurations survive a round trip;
// access links join it with commas at the boundary.
type TLSSettings struct {
	ServerName       string             `json:"serverName"`
	ALPN             []string           `json:"alpn"`
	Certificates     []TLSCertificate   `json:"certificates"`
	MinVersion       string             `json:"minVersion,omitempty"`
	MaxVersion       string             `json:"maxVersion,omitempty"`
	CipherSuites     string             `json:"cipherSuites,omitempty"`
	RejectUnknownSNI *bool              `json:"rejectUnknownSni,omitempty"`
	Settings         *TLSClientSettings `json:"settings,omitempty"`
}

func (t *TLSSettings) normalize() {
	if t.ALPN == nil {
		t.ALPN = []string{}
	}
	if t.Certificates == nil {
		t.Certificates = []TLSCertificate{{}}
	}
}

// sni returns the server name to advertise in access links: the nested
// client settings win, then the top-level server name.
func (t *TLSSettings) sni() string {
	if t.Settings != nil && t.Settings.ServerName != "" {
		return t.Settings.ServerName
	}
	return t.ServerName
}

// StreamSettings ties a network transport to an optional security layer.
// Exactly the settings struct matching Network must be populated, and
// TLSSettings/XTLSSettings must match Security.
type StreamSettings struct {
	Network  Network  `json:"network"`
	Security Security `json:"security"`

	TLSSettings  *TLSSettings `json:"tlsSettings,omitempty"`
	XTLSSettings *TLSSettings `json:"xtlsSettings,omitempty"`

	TCPSettings  *TCPStreamSettings  `json:"tcpSettings,omitempty"`
	WSSettings   *WSStreamSettings   `json:"wsSettings,omitempty"`
	KCPSettings  *KCPStreamSettings  `json:"kcpSettings,omitempty"`
	HTTPSettings *HTTPStreamSettings `json:"httpSettings,omitempty"`
	QUICSettings *QUICStreamSettings `json:"quicSettings,omitempty"`
	GRPCSettings *GRPCStreamSettings `json:"grpcSettings,omitempty"`
}

// NewStreamSettings builds a StreamSettings for the given network and
// security layer with an empty default variant attached. It fails with a
// ConfigurationError when the network cannot carry the security layer.
func NewStreamSettings(network Network, security Security) (*StreamSettings, error) {
	if !network.valid() {
		return nil, configErrorf("unknown network %q", network)
	}
	if security == "" {
		security = SecurityNone
	}
	s := &StreamSettings{Network: network, Security: security}
	switch network {
	case NetworkTCP:
		s.TCPSettings = &TCPStreamSettings{}
	case NetworkWS:
		s.WSSettings = &WSStreamSettings{}
	case NetworkKCP:
		s.KCPSettings = &KCPStreamSettings{}
	case NetworkHTTP:
		s.HTTPSettings = &HTTPStreamSettings{}
	case NetworkQUIC:
		s.QUICSettings = &QUICStreamSettings{}
	case NetworkGRPC:
		s.GRPCSettings = &GRPCStreamSettings{}
	}
	switch security {
	case SecurityNone:
	case SecurityTLS:
		s.TLSSettings = &TLSSettings{}
	case SecurityXTLS:
		s.XTLSSettings = &TLSSettings{}
	default:
		return nil, configErrorf("unknown security %q", security)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// defaultStreamSettings is TCP with no security, the panel default.
func defaultStreamSettings() *StreamSettings {
	s, _ := NewStreamSettings(NetworkTCP, SecurityNone)
	return s
}

func (s *StreamSettings) validate() error {
	if !s.Network.valid() {
		return configErrorf("unknown network %q", s.Network)
	}
	if s.Security != SecurityNone && !s.Network.SupportsSecurity() {
		return configErrorf("%s transport does not support %s", s.Network, s.Security)
	}
	switch s.Security {
	case SecurityNone:
	case SecurityTLS:
		if s.TLSSettings == nil {
			return configErrorf("security is tls but tlsSettings is not set")
		}
	case SecurityXTLS:
		if s.XTLSSettings == nil {
			return configErrorf("security is xtls but xtlsSettings is not set")
		}
	default:
		return configErrorf("unknown security %q", s.Security)
	}
	return nil
}

// securitySettings returns the TLS settings for the active security layer,
// or nil when security is none.
func (s *StreamSettings) securitySettings() *TLSSettings {
	switch s.Security {
	case SecurityTLS:
		return s.TLSSettings
	case SecurityXTLS:
		return s.XTLSSettings
	}
	return nil
}

// normalize fills transport defaults before serialization.
func (s *StreamSettings) normalize() {
	if s.Security == "" {
		s.Security = SecurityNone
	}
	switch s.Network {
	case NetworkTCP:
		if s.TCPSettings == nil {
			s.TCPSettings = &TCPStreamSettings{}
		}
		s.TCPSettings.normalize()
	case NetworkWS:
		if s.WSSettings == nil {
			s.WSSettings = &WSStreamSettings{}
		}
		s.WSSettings.normalize()
	case NetworkKCP:
		if s.KCPSettings == nil {
			s.KCPSettings = &KCPStreamSettings{}
		}
		s.KCPSettings.normalize()
	case NetworkHTTP:
		if s.HTTPSettings == nil {
			s.HTTPSettings = &HTTPStreamSettings{}
		}
		s.HTTPSettings.normalize()
	case NetworkQUIC:
		if s.QUICSettings == nil {
			s.QUICSettings = &QUICStreamSettings{}
		}
		s.QUICSettings.normalize()
	case NetworkGRPC:
		if s.GRPCSettings == nil {
			s.GRPCSettings = &GRPCStreamSettings{}
		}
	}
	if t := s.securitySettings(); t != nil {
		t.normalize()
	}
}
