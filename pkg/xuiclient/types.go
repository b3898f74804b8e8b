package xuiclient

import "github.com/awolverp/xuiclient/pkg/jsonutil"

// ResourceStat is a used/total pair reported for memory, swap and disk.
type ResourceStat struct {
	Current jsonutil.Int `json:"current"`
	Total   jsonutil.Int `json:"total"`
}

// XRayState describes the xray-core process managed by the panel.
type XRayState struct {
	State    string `json:"state"`
	ErrorMsg string `json:"errorMsg"`
	Version  string `json:"version"`
}

// NetIO is the instantaneous network throughput in bytes per second.
type NetIO struct {
	Up   jsonutil.Int `json:"up"`
	Down jsonutil.Int `json:"down"`
}

// NetTraffic is the cumulative traffic since boot in bytes.
type NetTraffic struct {
	Sent jsonutil.Int `json:"sent"`
	Recv jsonutil.Int `json:"recv"`
}

// PublicIP is reported by MHSanaei panels only.
type PublicIP struct {
	IPv4 string `json:"ipv4"`
	IPv6 string `json:"ipv6"`
}

// ServerStatus is the host telemetry returned by the status endpoint.
// CPUCores, CPUSpeedMhz and PublicIP stay zero on Vaxilu and NidukaAkalanka
// panels.
type ServerStatus struct {
	CPU        float64      `json:"cpu"`
	Mem        ResourceStat `json:"mem"`
	Swap       ResourceStat `json:"swap"`
	Disk       ResourceStat `json:"disk"`
	XRay       XRayState    `json:"xray"`
	Uptime     jsonutil.Int `json:"uptime"`
	Loads      []float64    `json:"loads"`
	TCPCount   jsonutil.Int `json:"tcpCount"`
	UDPCount   jsonutil.Int `json:"udpCount"`
	NetIO      NetIO        `json:"netIO"`
	NetTraffic NetTraffic   `json:"netTraffic"`

	CPUCores    jsonutil.Int `json:"cpuCores"`
	CPUSpeedMhz float64      `json:"cpuSpeedMhz"`
	PublicIP    PublicIP     `json:"publicIP"`
}

// PanelSettings is the panel configuration returned by the settings
// endpoint. Newer dialects keep adding fields; unknown ones are ignored and
// loosely typed ones (chat ids and runtimes arrive as strings on some forks)
// are coerced.
type PanelSettings struct {
	WebListen          string        `json:"webListen"`
	WebPort            jsonutil.Int  `json:"webPort"`
	WebCertFile        string        `json:"webCertFile"`
	WebKeyFile         string        `json:"webKeyFile"`
	WebBasePath        string        `json:"webBasePath"`
	WebDomain          string        `json:"webDomain"`
	SessionMaxAge      jsonutil.Int  `json:"sessionMaxAge"`
	ExpireDiff         jsonutil.Int  `json:"expireDiff"`
	TrafficDiff        jsonutil.Int  `json:"trafficDiff"`
	TimeLocation       string        `json:"timeLocation"`
	XrayTemplateConfig string        `json:"xrayTemplateConfig"`
	SecretEnable       jsonutil.Bool `json:"secretEnable"`

	TgBotEnable      jsonutil.Bool   `json:"tgBotEnable"`
	TgBotToken       string          `json:"tgBotToken"`
	TgBotChatID      jsonutil.Int    `json:"tgBotChatId"`
	TgRunTime        jsonutil.String `json:"tgRunTime"`
	TgBotBackup      jsonutil.Bool   `json:"tgBotBackup"`
	TgBotLoginNotify jsonutil.Bool   `json:"tgBotLoginNotify"`
	TgCPU            jsonutil.Int    `json:"tgCpu"`
	TgLang           string          `json:"tgLang"`

	SubEnable   jsonutil.Bool `json:"subEnable"`
	SubListen   string        `json:"subListen"`
	SubPort     jsonutil.Int  `json:"subPort"`
	SubPath     string        `json:"subPath"`
	SubDomain   string        `json:"subDomain"`
	SubCertFile string        `json:"subCertFile"`
	SubKeyFile  string        `json:"subKeyFile"`
	SubUpdates  jsonutil.Int  `json:"subUpdates"`
}
