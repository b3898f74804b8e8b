package protocols

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Serialize renders the inbound as the form body the panel endpoints expect:
// traffic counters and the port travel as decimal strings, and the settings,
// streamSettings and sniffing blocks travel as JSON encoded strings.
//
// Empty credentials (client ids, passwords, account names) are filled with
// random values in place on the first call, so repeated calls on the same
// inbound produce identical output.
func (in *Inbound) Serialize() (map[string]any, error) {
	if in.Settings == nil {
		return nil, configErrorf("settings must be set")
	}
	if in.Protocol == "" {
		in.Protocol = in.Settings.Protocol()
	}
	if in.Protocol != in.Settings.Protocol() {
		return nil, configErrorf("protocol %q does not match settings for %q", in.Protocol, in.Settings.Protocol())
	}
	if in.Stream == nil {
		in.Stream = defaultStreamSettings()
	}
	if err := in.Stream.validate(); err != nil {
		return nil, err
	}
	if err := checkCompatibility(in.Protocol, in.Stream); err != nil {
		return nil, err
	}
	in.Stream.normalize()
	materializeCredentials(in.Settings)

	settings, err := json.Marshal(in.Settings)
	if err != nil {
		return nil, decodeErrorf("settings", err)
	}
	stream, err := json.Marshal(in.Stream)
	if err != nil {
		return nil, decodeErrorf("streamSettings", err)
	}
	sniffing := []byte("{}")
	if in.Sniffing != nil {
		if sniffing, err = json.Marshal(in.Sniffing); err != nil {
			return nil, decodeErrorf("sniffing", err)
		}
	}

	return map[string]any{
		"up":             strconv.FormatInt(in.Up, 10),
		"down":           strconv.FormatInt(in.Down, 10),
		"total":          strconv.FormatInt(in.Total, 10),
		"remark":         in.Remark,
		"enable":         in.Enable,
		"expiryTime":     in.ExpiryTime,
		"listen":         in.Listen,
		"port":           strconv.Itoa(in.Port),
		"protocol":       string(in.Protocol),
		"settings":       string(settings),
		"streamSettings": string(stream),
		"sniffing":       string(sniffing),
	}, nil
}

// UnserializeInbound decodes a panel inbound object. Panels are loose about
// numeric types (counters arrive as numbers or strings depending on the
// dialect) and embed the settings blocks as JSON strings; both forms are
// accepted.
func UnserializeInbound(data []byte) (*Inbound, error) {
	if !gjson.ValidBytes(data) {
		return nil, decodeErrorf("inbound", fmt.Errorf("invalid json"))
	}
	obj := gjson.ParseBytes(data)
	if !obj.IsObject() {
		return nil, decodeErrorf("inbound", fmt.Errorf("expected an object, got %s", obj.Type))
	}

	proto := Protocol(obj.Get("protocol").String())
	if !proto.valid() {
		return nil, decodeErrorf("protocol", fmt.Errorf("unknown protocol %q", obj.Get("protocol").String()))
	}

	in := &Inbound{
		ID:         int(obj.Get("id").Int()),
		Tag:        obj.Get("tag").String(),
		Remark:     obj.Get("remark").String(),
		Port:       int(obj.Get("port").Int()),
		Protocol:   proto,
		Enable:     obj.Get("enable").Bool(),
		ExpiryTime: obj.Get("expiryTime").Int(),
		Listen:     obj.Get("listen").String(),
		Up:         obj.Get("up").Int(),
		Down:       obj.Get("down").Int(),
		Total:      obj.Get("total").Int(),
	}

	settings, err := decodeSettings(proto, embeddedJSON(obj.Get("settings")))
	if err != nil {
		return nil, err
	}
	in.Settings = settings

	if raw := embeddedJSON(obj.Get("streamSettings")); len(raw) > 0 {
		stream := &StreamSettings{}
		if err := json.Unmarshal(raw, stream); err != nil {
			return nil, decodeErrorf("streamSettings", err)
		}
		in.Stream = stream
	} else {
		in.Stream = defaultStreamSettings()
	}

	if raw := embeddedJSON(obj.Get("sniffing")); len(raw) > 0 && string(raw) != "{}" {
		sniffing := &SniffingSettings{}
		if err := json.Unmarshal(raw, sniffing); err != nil {
			return nil, decodeErrorf("sniffing", err)
		}
		in.Sniffing = sniffing
	}

	if stats := obj.Get("clientStats"); stats.IsArray() {
		if err := json.Unmarshal([]byte(stats.Raw), &in.ClientStats); err != nil {
			return nil, decodeErrorf("clientStats", err)
		}
	}
	return in, nil
}

// UnserializeInboundAs decodes an inbound and asserts its protocol. A
// mismatch fails with a TypeMismatchError; the caller keeps static knowledge
// of the settings variant.
func UnserializeInboundAs(p Protocol, data []byte) (*Inbound, error) {
	in, err := UnserializeInbound(data)
	if err != nil {
		return nil, err
	}
	if in.Protocol != p {
		return nil, &TypeMismatchError{Expected: p, Actual: string(in.Protocol)}
	}
	return in, nil
}

// embeddedJSON unwraps a field that panels send either as a JSON string
// containing an object, or as the object itself.
func embeddedJSON(r gjson.Result) []byte {
	switch r.Type {
	case gjson.String:
		return []byte(r.String())
	case gjson.JSON:
		return []byte(r.Raw)
	}
	return nil
}

func decodeSettings(p Protocol, raw []byte) (Settings, error) {
	var s Settings
	switch p {
	case ProtocolVMess:
		s = &VMessSettings{}
	case ProtocolVLess:
		s = &VLessSettings{}
	case ProtocolTrojan:
		s = &TrojanSettings{}
	case ProtocolShadowsocks:
		s = &ShadowsocksSettings{}
	case ProtocolDokodemo:
		s = &DokodemoSettings{}
	case ProtocolSocks:
		s = &SocksSettings{}
	case ProtocolHTTP:
		s = &HTTPSettings{}
	default:
		return nil, decodeErrorf("protocol", fmt.Errorf("unknown protocol %q", p))
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, decodeErrorf("settings", err)
	}
	return s, nil
}
