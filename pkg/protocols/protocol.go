// Package protocols models XUI panel inbounds: the cross product of inbound
// protocols, stream transports and security layers, together with the codec
// that maps the model to the panel wire format and the access-link
// generators consumed by proxy client applications.
//
// All operations are pure transformations without I/O. The one exception is
// the random credential fill performed on the first Serialize call (see
// Inbound.Serialize); sharing a single Inbound across goroutines during that
// first call requires external synchronization.
package protocols

import (
	"strings"

	"github.com/awolverp/xuiclient/pkg/jsonutil"
)

// Protocol identifies the inbound protocol.
type Protocol string

// Supported inbound protocols.
const (
	ProtocolVMess       Protocol = "vmess"
	ProtocolVLess       Protocol = "vless"
	ProtocolTrojan      Protocol = "trojan"
	ProtocolShadowsocks Protocol = "shadowsocks"
	ProtocolDokodemo    Protocol = "dokodemo-door"
	ProtocolSocks       Protocol = "socks"
	ProtocolHTTP        Protocol = "http"
)

func (p Protocol) valid() bool {
	switch p {
	case ProtocolVMess, ProtocolVLess, ProtocolTrojan, ProtocolShadowsocks,
		ProtocolDokodemo, ProtocolSocks, ProtocolHTTP:
		return true
	}
	return false
}

// sniffable reports whether the panel accepts a sniffing block for the
// protocol. Dokodemo-door, socks and http send "{}" instead.
func (p Protocol) sniffable() bool {
	switch p {
	case ProtocolDokodemo, ProtocolSocks, ProtocolHTTP:
		return false
	}
	return true
}

// NetMode is the "network" field of shadowsocks and dokodemo-door settings.
type NetMode string

// Supported net modes.
const (
	NetModeTCP    NetMode = "tcp"
	NetModeUDP    NetMode = "udp"
	NetModeTCPUDP NetMode = "tcp,udp"
)

// normalizeNetMode accepts the "tcp+udp" spelling some tools use.
func normalizeNetMode(m NetMode) NetMode {
	if m == "" {
		return NetModeTCPUDP
	}
	return NetMode(strings.ReplaceAll(string(m), "+", ","))
}

// Shadowsocks encryption methods accepted by the panels.
const (
	MethodAES128GCM        = "aes-128-gcm"
	MethodAES256GCM        = "aes-256-gcm"
	MethodChacha20Poly1305 = "chacha20-poly1305"
)

// VLess/Trojan flow values.
const (
	FlowNone       = ""
	FlowXTLSDirect = "xtls-rprx-direct"
	FlowXTLSOrigin = "xtls-rprx-origin"
)

// Socks authentication modes.
const (
	AuthPassword = "password"
	AuthNoAuth   = "noauth"
)

// ClientOptions are the per-client fields that only some panel dialects
// support. Pointers distinguish "absent" from an explicit zero; absent
// fields are omitted on the wire so older panels keep accepting the body.
type ClientOptions struct {
	Email      string        `json:"email,omitempty"`
	LimitIP    *jsonutil.Int `json:"limitIp,omitempty"`
	TotalGB    *jsonutil.Int `json:"totalGB,omitempty"`
	ExpiryTime *jsonutil.Int `json:"expiryTime,omitempty"`
	Enable     *bool         `json:"enable,omitempty"`
	TgID       string        `json:"tgId,omitempty"`
	SubID      string        `json:"subId,omitempty"`
}

// VMessClient is one VMess credential.
type VMessClient struct {
	ID      string       `json:"id"`
	AlterID jsonutil.Int `json:"alterId"`
	ClientOptions
}

// VLessClient is one VLess credential.
type VLessClient struct {
	ID   string `json:"id"`
	Flow string `json:"flow"`
	ClientOptions
}

// TrojanClient is one Trojan credential.
type TrojanClient struct {
	Password string `json:"password"`
	Flow     string `json:"flow,omitempty"`
	ClientOptions
}

// ShadowsocksClient is one Shadowsocks credential; only newer dialects
// support per-client entries.
type ShadowsocksClient struct {
	Password string `json:"password"`
	ClientOptions
}

// InboundClient is implemented by the per-protocol credential types so that
// client management APIs can accept any of them.
type InboundClient interface {
	isInboundClient()
}

func (VMessClient) isInboundClient()       {}
func (VLessClient) isInboundClient()       {}
func (TrojanClient) isInboundClient()      {}
func (ShadowsocksClient) isInboundClient() {}

// Account is a user/pass pair for socks and http inbounds.
type Account struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// Fallback routes a failed VLess/Trojan handshake to an alternate backend,
// matched by SNI, ALPN or path.
type Fallback struct {
	Name string          `json:"name"`
	ALPN string          `json:"alpn"`
	Path string          `json:"path"`
	Dest jsonutil.String `json:"dest"`
	Xver jsonutil.Int    `json:"xver"`
}

// Settings is the closed set of protocol-specific payloads. Exactly one
// concrete type is legal per Protocol; NewInbound enforces the pairing.
type Settings interface {
	// Protocol returns the inbound protocol the settings belong to.
	Protocol() Protocol
}

// VMessSettings is the settings payload of a vmess inbound.
type VMessSettings struct {
	Clients                   []VMessClient `json:"clients"`
	DisableInsecureEncryption bool          `json:"disableInsecureEncryption"`
}

// Protocol implements Settings.
func (*VMessSettings) Protocol() Protocol { return ProtocolVMess }

// VLessSettings is the settings payload of a vless inbound.
type VLessSettings struct {
	Clients    []VLessClient `json:"clients"`
	Decryption string        `json:"decryption"`
	Fallbacks  []Fallback    `json:"fallbacks"`
}

// Protocol implements Settings.
func (*VLessSettings) Protocol() Protocol { return ProtocolVLess }

// TrojanSettings is the settings payload of a trojan inbound.
type TrojanSettings struct {
	Clients   []TrojanClient `json:"clients"`
	Fallbacks []Fallback     `json:"fallbacks"`
}

// Protocol implements Settings.
func (*TrojanSettings) Protocol() Protocol { return ProtocolTrojan }

// ShadowsocksSettings is the settings payload of a shadowsocks inbound.
type ShadowsocksSettings struct {
	Password string              `json:"password"`
	Method   string              `json:"method"`
	Network  NetMode             `json:"network"`
	Clients  []ShadowsocksClient `json:"clients,omitempty"` // Vaxilu not supported
}

// Protocol implements Settings.
func (*ShadowsocksSettings) Protocol() Protocol { return ProtocolShadowsocks }

// DokodemoSettings is the settings payload of a dokodemo-door inbound.
// Address and Port are genuinely optional; nil means omitted on the wire.
type DokodemoSettings struct {
	Address        *string        `json:"address,omitempty"`
	Port           *int           `json:"port,omitempty"`
	Network        NetMode        `json:"network"`
	FollowRedirect *jsonutil.Bool `json:"followRedirect,omitempty"` // MHSanaei only
}

// Protocol implements Settings.
func (*DokodemoSettings) Protocol() Protocol { return ProtocolDokodemo }

// SocksSettings is the settings payload of a socks inbound.
type SocksSettings struct {
	Auth     string    `json:"auth"`
	Accounts []Account `json:"accounts,omitempty"`
	UDP      bool      `json:"udp"`
	IP       string    `json:"ip"`
}

// Protocol implements Settings.
func (*SocksSettings) Protocol() Protocol { return ProtocolSocks }

// HTTPSettings is the settings payload of an http inbound.
type HTTPSettings struct {
	Accounts []Account `json:"accounts"`
}

// Protocol implements Settings.
func (*HTTPSettings) Protocol() Protocol { return ProtocolHTTP }

// SniffingSettings is the destination-sniffing block of an inbound.
type SniffingSettings struct {
	Enabled      bool     `json:"enabled"`
	DestOverride []string `json:"destOverride"`
}

// ClientStat is server-reported per-client telemetry. It is read-only and
// never sent back to the panel.
type ClientStat struct {
	ID         jsonutil.Int  `json:"id"`
	InboundID  jsonutil.Int  `json:"inboundId"`
	Enable     jsonutil.Bool `json:"enable"`
	Email      string        `json:"email"`
	Up         jsonutil.Int  `json:"up"`
	Down       jsonutil.Int  `json:"down"`
	ExpiryTime jsonutil.Int  `json:"expiryTime"`
	Total      jsonutil.Int  `json:"total"`
	Reset      jsonutil.Int  `json:"reset"` // MHSanaei only
}

// Inbound is one exposed network listener on the panel. It exclusively owns
// its Settings and StreamSettings; instances share no mutable state.
type Inbound struct {
	// ID is assigned by the panel; zero until created.
	ID int
	// Tag is derived by the panel ("inbound-<port>"); read-only.
	Tag string

	Remark     string
	Port       int
	Protocol   Protocol
	Enable     bool
	ExpiryTime int64 // epoch milliseconds, 0 = never
	Listen     string
	Up         int64
	Down       int64
	Total      int64

	Settings Settings
	Stream   *StreamSettings
	Sniffing *SniffingSettings // nil when the protocol has no sniffing block

	// ClientStats is reported by the panel on responses; read-only.
	ClientStats []ClientStat
}

// InboundParams carries the caller-supplied fields for NewInbound.
type InboundParams struct {
	Remark     string
	Port       int
	Listen     string
	Enable     *bool // nil defaults to true
	ExpiryTime int64
	Total      int64
	Settings   Settings
	Stream     *StreamSettings // nil defaults to TCP without security
	// DisableSniffing turns the sniffing block off for protocols that
	// support it.
	DisableSniffing bool
}

// NewInbound validates and assembles an inbound. The protocol is derived
// from the Settings variant. Incompatible combinations (a settings variant
// that cannot carry the stream security, or a transport that rejects any
// security) fail with a ConfigurationError before anything is built.
func NewInbound(p InboundParams) (*Inbound, error) {
	if p.Settings == nil {
		return nil, configErrorf("settings must be set")
	}
	proto := p.Settings.Protocol()

	stream := p.Stream
	if stream == nil {
		stream = defaultStreamSettings()
	}
	if err := stream.validate(); err != nil {
		return nil, err
	}
	if err := checkCompatibility(proto, stream); err != nil {
		return nil, err
	}
	applySettingsDefaults(p.Settings)
	stream.normalize()

	enable := true
	if p.Enable != nil {
		enable = *p.Enable
	}

	in := &Inbound{
		Remark:     p.Remark,
		Port:       p.Port,
		Protocol:   proto,
		Enable:     enable,
		ExpiryTime: p.ExpiryTime,
		Listen:     p.Listen,
		Total:      p.Total,
		Settings:   p.Settings,
		Stream:     stream,
	}
	if proto.sniffable() && !p.DisableSniffing {
		in.Sniffing = &SniffingSettings{Enabled: true, DestOverride: []string{"http", "tls"}}
	}
	return in, nil
}

// checkCompatibility rejects protocol/transport/security combinations the
// panels cannot express.
func checkCompatibility(proto Protocol, stream *StreamSettings) error {
	switch proto {
	case ProtocolVMess, ProtocolShadowsocks:
		if stream.Security == SecurityXTLS {
			return configErrorf("cannot use xtls with %s", proto)
		}
	case ProtocolDokodemo, ProtocolSocks, ProtocolHTTP:
		if stream.Security != SecurityNone {
			return configErrorf("%s does not support a security layer", proto)
		}
	}
	return nil
}

// applySettingsDefaults fills structural defaults: empty client lists get a
// single blank credential to be materialized on serialize, enum fields get
// their panel defaults. Credential values themselves are left empty here.
func applySettingsDefaults(s Settings) {
	switch v := s.(type) {
	case *VMessSettings:
		if v.Clients == nil {
			v.Clients = []VMessClient{{}}
		}
	case *VLessSettings:
		if v.Clients == nil {
			v.Clients = []VLessClient{{}}
		}
		if v.Decryption == "" {
			v.Decryption = "none"
		}
		if v.Fallbacks == nil {
			v.Fallbacks = []Fallback{}
		}
	case *TrojanSettings:
		if v.Clients == nil {
			v.Clients = []TrojanClient{{}}
		}
		if v.Fallbacks == nil {
			v.Fallbacks = []Fallback{}
		}
	case *ShadowsocksSettings:
		if v.Method == "" {
			v.Method = MethodAES256GCM
		}
		v.Network = normalizeNetMode(v.Network)
	case *DokodemoSettings:
		v.Network = normalizeNetMode(v.Network)
	case *SocksSettings:
		if v.Auth == "" {
			if len(v.Accounts) > 0 {
				v.Auth = AuthPassword
			} else {
				v.Auth = AuthNoAuth
			}
		}
		if v.Auth == AuthPassword && v.IP == "" {
			v.IP = "127.0.0.1"
		}
	case *HTTPSettings:
		if v.Accounts == nil {
			v.Accounts = []Account{{}}
		}
	}
}
