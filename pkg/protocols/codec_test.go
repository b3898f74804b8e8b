package protocols

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSerializeWireShape(t *testing.T) {
	stream := mustStream(t, NetworkWS, SecurityNone)
	stream.WSSettings.Path = "/ray"

	in, err := NewInbound(InboundParams{
		Remark:   "edge",
		Port:     443,
		Total:    10 * 1024 * 1024 * 1024,
		Settings: &VLessSettings{},
		Stream:   stream,
	})
	require.NoError(t, err)

	body, err := in.Serialize()
	require.NoError(t, err)

	// counters and port travel as decimal strings
	require.Equal(t, "0", body["up"])
	require.Equal(t, "0", body["down"])
	require.Equal(t, "10737418240", body["total"])
	require.Equal(t, "443", body["port"])

	require.Equal(t, true, body["enable"])
	require.Equal(t, int64(0), body["expiryTime"])
	require.Equal(t, "vless", body["protocol"])

	// nested blocks travel as JSON strings
	settings, ok := body["settings"].(string)
	require.True(t, ok)
	require.True(t, gjson.Valid(settings))
	require.Equal(t, "none", gjson.Get(settings, "decryption").String())
	require.NotEmpty(t, gjson.Get(settings, "clients.0.id").String())

	streamJSON, ok := body["streamSettings"].(string)
	require.True(t, ok)
	require.Equal(t, "ws", gjson.Get(streamJSON, "network").String())
	require.Equal(t, "/ray", gjson.Get(streamJSON, "wsSettings.path").String())

	sniffing, ok := body["sniffing"].(string)
	require.True(t, ok)
	require.True(t, gjson.Get(sniffing, "enabled").Bool())
}

func TestSerializeIsStableAcrossCalls(t *testing.T) {
	in, err := NewInbound(InboundParams{
		Port:     443,
		Settings: &VMessSettings{},
	})
	require.NoError(t, err)

	first, err := in.Serialize()
	require.NoError(t, err)
	second, err := in.Serialize()
	require.NoError(t, err)

	// the random id is generated once and then pinned
	require.Equal(t, first["settings"], second["settings"])
}

func TestSerializeSniffingPlaceholderForPlainProtocols(t *testing.T) {
	in, err := NewInbound(InboundParams{
		Port:     1080,
		Settings: &SocksSettings{},
	})
	require.NoError(t, err)

	body, err := in.Serialize()
	require.NoError(t, err)
	require.Equal(t, "{}", body["sniffing"])
}

func TestSerializeRejectsMismatchedProtocol(t *testing.T) {
	in := &Inbound{
		Protocol: ProtocolVMess,
		Port:     443,
		Settings: &TrojanSettings{Clients: []TrojanClient{{Password: "x"}}},
	}
	_, err := in.Serialize()
	require.Error(t, err)
}

func TestUnserializeInboundLenientTypes(t *testing.T) {
	// counters as strings, enable as a string, settings embedded as a JSON
	// string: the worst case of the older panels
	data := `{
		"id": "7",
		"up": "1024",
		"down": 2048,
		"total": "0",
		"remark": "edge",
		"enable": "true",
		"expiryTime": "0",
		"listen": "",
		"port": "443",
		"protocol": "vless",
		"tag": "inbound-443",
		"settings": "{\"clients\":[{\"id\":\"11111111-1111-1111-1111-111111111111\",\"flow\":\"\",\"email\":\"user@host\",\"totalGB\":\"5\"}],\"decryption\":\"none\",\"fallbacks\":[]}",
		"streamSettings": {"network":"ws","security":"tls","tlsSettings":{"serverName":"example.com","alpn":["h2","http/1.1"],"certificates":[{}]},"wsSettings":{"acceptProxyProtocol":false,"path":"/ray","headers":{}}},
		"sniffing": "{\"enabled\":true,\"destOverride\":[\"http\",\"tls\"]}",
		"clientStats": [{"id":1,"inboundId":"7","enable":"true","email":"user@host","up":"10","down":20,"expiryTime":0,"total":"0"}]
	}`

	in, err := UnserializeInbound([]byte(data))
	require.NoError(t, err)

	require.Equal(t, 7, in.ID)
	require.Equal(t, int64(1024), in.Up)
	require.Equal(t, int64(2048), in.Down)
	require.Equal(t, 443, in.Port)
	require.True(t, in.Enable)
	require.Equal(t, "inbound-443", in.Tag)

	settings, ok := in.Settings.(*VLessSettings)
	require.True(t, ok)
	require.Len(t, settings.Clients, 1)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", settings.Clients[0].ID)
	require.Equal(t, "user@host", settings.Clients[0].Email)
	require.Equal(t, int64(5), settings.Clients[0].TotalGB.Int64())

	require.Equal(t, NetworkWS, in.Stream.Network)
	require.Equal(t, SecurityTLS, in.Stream.Security)
	require.Equal(t, []string{"h2", "http/1.1"}, in.Stream.TLSSettings.ALPN)
	require.Equal(t, "/ray", in.Stream.WSSettings.Path)

	require.NotNil(t, in.Sniffing)
	require.True(t, in.Sniffing.Enabled)

	require.Len(t, in.ClientStats, 1)
	require.Equal(t, int64(7), in.ClientStats[0].InboundID.Int64())
	require.True(t, in.ClientStats[0].Enable.Value())
	require.Equal(t, int64(10), in.ClientStats[0].Up.Int64())
}

func TestUnserializeRoundTrip(t *testing.T) {
	stream := mustStream(t, NetworkGRPC, SecurityTLS)
	stream.GRPCSettings.ServiceName = "svc"
	stream.TLSSettings.ServerName = "example.com"

	in, err := NewInbound(InboundParams{
		Remark:   "grpc-in",
		Port:     2053,
		Settings: &TrojanSettings{Clients: []TrojanClient{{Password: "secret"}}},
		Stream:   stream,
	})
	require.NoError(t, err)

	body, err := in.Serialize()
	require.NoError(t, err)
	wire, err := json.Marshal(body)
	require.NoError(t, err)

	decoded, err := UnserializeInbound(wire)
	require.NoError(t, err)

	require.Equal(t, in.Remark, decoded.Remark)
	require.Equal(t, in.Port, decoded.Port)
	require.Equal(t, ProtocolTrojan, decoded.Protocol)
	require.Equal(t, "secret", decoded.Settings.(*TrojanSettings).Clients[0].Password)
	require.Equal(t, NetworkGRPC, decoded.Stream.Network)
	require.Equal(t, "svc", decoded.Stream.GRPCSettings.ServiceName)
	require.Equal(t, "example.com", decoded.Stream.TLSSettings.ServerName)
}

func TestSerializeUnserializeAllCombinations(t *testing.T) {
	factories := map[Protocol]func() Settings{
		ProtocolVMess:       func() Settings { return &VMessSettings{} },
		ProtocolVLess:       func() Settings { return &VLessSettings{} },
		ProtocolTrojan:      func() Settings { return &TrojanSettings{} },
		ProtocolShadowsocks: func() Settings { return &ShadowsocksSettings{} },
		ProtocolDokodemo:    func() Settings { return &DokodemoSettings{} },
		ProtocolSocks:       func() Settings { return &SocksSettings{} },
		ProtocolHTTP:        func() Settings { return &HTTPSettings{} },
	}
	networks := []Network{NetworkTCP, NetworkWS, NetworkKCP, NetworkHTTP, NetworkQUIC, NetworkGRPC}
	securities := []Security{SecurityNone, SecurityTLS, SecurityXTLS}

	for proto, newSettings := range factories {
		for _, network := range networks {
			for _, security := range securities {
				t.Run(fmt.Sprintf("%s/%s/%s", proto, network, security), func(t *testing.T) {
					stream, err := NewStreamSettings(network, security)
					if err != nil {
						var confErr *ConfigurationError
						require.ErrorAs(t, err, &confErr)
						return
					}

					in, err := NewInbound(InboundParams{
						Remark:   "combo",
						Port:     443,
						Settings: newSettings(),
						Stream:   stream,
					})
					if err != nil {
						// the protocol cannot ride this transport/security pair
						var confErr *ConfigurationError
						require.ErrorAs(t, err, &confErr)
						return
					}

					body, err := in.Serialize()
					require.NoError(t, err)
					wire, err := json.Marshal(body)
					require.NoError(t, err)

					decoded, err := UnserializeInbound(wire)
					require.NoError(t, err)
					require.Equal(t, proto, decoded.Protocol)
					require.Equal(t, network, decoded.Stream.Network)
					require.Equal(t, security, decoded.Stream.Security)
					require.Equal(t, in.Settings, decoded.Settings)
					require.Equal(t, in.Stream, decoded.Stream)
					require.Equal(t, in.Sniffing, decoded.Sniffing)
				})
			}
		}
	}
}

func TestRoundTripKeepsTCPCamouflageHeader(t *testing.T) {
	stream := mustStream(t, NetworkTCP, SecurityNone)
	stream.TCPSettings.Header = TCPHeader{
		Type: HeaderHTTP,
		Request: &HTTPRequestHeader{
			Method:  "POST",
			Path:    []string{"/video"},
			Headers: map[string][]string{"host": {"cdn.example.com"}},
		},
		Response: &HTTPResponseHeader{
			Version: "1.1",
			Status:  "404",
			Reason:  "Not Found",
			Headers: map[string][]string{"Content-Type": {"text/html"}},
		},
	}

	in, err := NewInbound(InboundParams{
		Port:     443,
		Settings: &VMessSettings{},
		Stream:   stream,
	})
	require.NoError(t, err)

	body, err := in.Serialize()
	require.NoError(t, err)
	wire, err := json.Marshal(body)
	require.NoError(t, err)

	decoded, err := UnserializeInbound(wire)
	require.NoError(t, err)

	// explicit camouflage sub-objects survive untouched, defaults do not
	// replace them
	require.Equal(t, stream.TCPSettings.Header, decoded.Stream.TCPSettings.Header)
	require.Equal(t, "POST", decoded.Stream.TCPSettings.Header.Request.Method)
	require.Equal(t, "404", decoded.Stream.TCPSettings.Header.Response.Status)
}

func TestUnserializeInboundAsChecksProtocol(t *testing.T) {
	data := `{"protocol": "vmess", "port": 443, "settings": "{\"clients\":[]}"}`

	_, err := UnserializeInboundAs(ProtocolVLess, []byte(data))
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, ProtocolVLess, mismatch.Expected)
	require.Equal(t, "vmess", mismatch.Actual)

	in, err := UnserializeInboundAs(ProtocolVMess, []byte(data))
	require.NoError(t, err)
	require.Equal(t, ProtocolVMess, in.Protocol)
}

func TestUnserializeInboundRejectsUnknownProtocol(t *testing.T) {
	_, err := UnserializeInbound([]byte(`{"protocol": "wireguard", "port": 443}`))
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestUnserializeInboundRejectsInvalidJSON(t *testing.T) {
	_, err := UnserializeInbound([]byte(`{`))
	require.Error(t, err)

	_, err = UnserializeInbound([]byte(`[1, 2, 3]`))
	require.Error(t, err)
}
