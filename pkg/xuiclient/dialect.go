package xuiclient

import "fmt"

// Dialect selects the panel fork the client talks to. The forks share one
// JSON envelope and inbound shape but moved endpoints around as the project
// was handed over.
type Dialect string

// Known panel dialects, oldest first.
const (
	DialectVaxilu         Dialect = "vaxilu"
	DialectNidukaAkalanka Dialect = "niduka-akalanka"
	DialectMHSanaei       Dialect = "mhsanaei"
	DialectAlireza0       Dialect = "alireza0"
)

// ParseDialect maps a configuration string to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectVaxilu, DialectNidukaAkalanka, DialectMHSanaei, DialectAlireza0:
		return Dialect(s), nil
	case "":
		return DialectMHSanaei, nil
	}
	return "", fmt.Errorf("unknown panel dialect %q", s)
}

type operation string

const (
	opLogin               operation = "login"
	opLogout              operation = "logout"
	opServerStatus        operation = "server status"
	opServerLog           operation = "server log"
	opServerConfig        operation = "server config"
	opSettings            operation = "settings"
	opRestartPanel        operation = "restart panel"
	opListInbounds        operation = "list inbounds"
	opAddInbound          operation = "add inbound"
	opUpdateInbound       operation = "update inbound"
	opDeleteInbound       operation = "delete inbound"
	opGetInbound          operation = "get inbound"
	opClientTraffic       operation = "client traffic"
	opClientIPs           operation = "client ips"
	opClearClientIPs      operation = "clear client ips"
	opAddClient           operation = "add client"
	opDeleteClient        operation = "delete client"
	opUpdateClient        operation = "update client"
	opResetClientTraffic  operation = "reset client traffic"
	opDeleteDepletedUsers operation = "delete depleted clients"
	opOnlineClients       operation = "online clients"
)

// route is an endpoint template; path holds printf verbs for URL arguments.
type route struct {
	method string
	path   string
}

var vaxiluRoutes = map[operation]route{
	opLogin:         {"POST", "/login"},
	opLogout:        {"GET", "/logout"},
	opServerStatus:  {"POST", "/server/status"},
	opSettings:      {"POST", "/xui/setting/all"},
	opRestartPanel:  {"POST", "/xui/setting/restartPanel"},
	opListInbounds:  {"POST", "/xui/inbound/list"},
	opAddInbound:    {"POST", "/xui/inbound/add"},
	opUpdateInbound: {"POST", "/xui/inbound/update/%d"},
	opDeleteInbound: {"POST", "/xui/inbound/del/%d"},
}

var nidukaAkalankaRoutes = map[operation]route{
	opLogin:          {"POST", "/login"},
	opLogout:         {"GET", "/logout"},
	opServerStatus:   {"POST", "/server/status"},
	opSettings:       {"POST", "/xui/setting/all"},
	opRestartPanel:   {"POST", "/xui/setting/restartPanel"},
	opListInbounds:   {"POST", "/xui/inbound/list"},
	opAddInbound:     {"POST", "/xui/inbound/add"},
	opUpdateInbound:  {"POST", "/xui/inbound/update/%d"},
	opDeleteInbound:  {"POST", "/xui/inbound/del/%d"},
	opGetInbound:     {"GET", "/xui/API/inbounds/get/%d"},
	opClientIPs:      {"POST", "/xui/inbound/clientIps/%s"},
	opClearClientIPs: {"POST", "/xui/inbound/clearClientIps/%s"},
}

var mhsanaeiRoutes = map[operation]route{
	opLogin:  {"POST", "/login"},
	opLogout: {"GET", "/logout"},

	opServerStatus: {"POST", "/server/status"},
	opServerLog:    {"POST", "/server/logs/%d"},
	opServerConfig: {"POST", "/server/getConfigJson"},

	opSettings:     {"POST", "/panel/setting/all"},
	opRestartPanel: {"POST", "/panel/setting/restartPanel"},

	opListInbounds:        {"POST", "/panel/inbound/list"},
	opAddInbound:          {"POST", "/panel/inbound/add"},
	opUpdateInbound:       {"POST", "/panel/inbound/update/%d"},
	opDeleteInbound:       {"POST", "/panel/inbound/del/%d"},
	opGetInbound:          {"GET", "/panel/api/inbounds/get/%d"},
	opClientTraffic:       {"GET", "/panel/api/inbounds/getClientTraffics/%s"},
	opClientIPs:           {"POST", "/panel/api/inbounds/clientIps/%s"},
	opClearClientIPs:      {"POST", "/panel/api/inbounds/clearClientIps/%s"},
	opAddClient:           {"POST", "/panel/api/inbounds/addClient"},
	opDeleteClient:        {"POST", "/panel/api/inbounds/%d/delClient/%s"},
	opUpdateClient:        {"POST", "/panel/api/inbounds/updateClient/%s"},
	opResetClientTraffic:  {"POST", "/panel/api/inbounds/%d/resetClientTraffic/%s"},
	opDeleteDepletedUsers: {"POST", "/panel/api/inbounds/delDepletedClients/%d"},
	opOnlineClients:       {"POST", "/panel/api/inbounds/onlines"},
}

var alireza0Routes = map[operation]route{
	opLogin:  {"POST", "/login"},
	opLogout: {"GET", "/logout"},

	opServerStatus: {"POST", "/server/status"},
	opServerLog:    {"POST", "/server/logs/%d"},
	opServerConfig: {"POST", "/server/getConfigJson"},

	opSettings:     {"POST", "/xui/setting/all"},
	opRestartPanel: {"POST", "/xui/setting/restartPanel"},

	opListInbounds:        {"GET", "/xui/API/inbounds/"},
	opAddInbound:          {"POST", "/xui/API/inbounds/add"},
	opUpdateInbound:       {"POST", "/xui/API/inbounds/update/%d"},
	opDeleteInbound:       {"POST", "/xui/API/inbounds/del/%d"},
	opGetInbound:          {"GET", "/xui/API/inbounds/get/%d"},
	opClientTraffic:       {"GET", "/xui/API/inbounds/getClientTraffics/%s"},
	opClientIPs:           {"POST", "/xui/API/inbounds/clientIps/%s"},
	opClearClientIPs:      {"POST", "/xui/API/inbounds/clearClientIps/%s"},
	opAddClient:           {"POST", "/xui/API/inbounds/addClient"},
	opDeleteClient:        {"POST", "/xui/API/inbounds/%d/delClient/%s"},
	opUpdateClient:        {"POST", "/xui/API/inbounds/updateClient/%s"},
	opResetClientTraffic:  {"POST", "/xui/API/inbounds/%d/resetClientTraffic/%s"},
	opDeleteDepletedUsers: {"POST", "/xui/API/inbounds/delDepletedClients/%d"},
	opOnlineClients:       {"POST", "/xui/API/inbounds/onlines"},
}

var dialectRoutes = map[Dialect]map[operation]route{
	DialectVaxilu:         vaxiluRoutes,
	DialectNidukaAkalanka: nidukaAkalankaRoutes,
	DialectMHSanaei:       mhsanaeiRoutes,
	DialectAlireza0:       alireza0Routes,
}

// resolve returns the endpoint for an operation, or an
// UnsupportedOperationError when the dialect never exposed it.
func (d Dialect) resolve(op operation) (route, error) {
	r, ok := dialectRoutes[d][op]
	if !ok {
		return route{}, &UnsupportedOperationError{Dialect: d, Operation: string(op)}
	}
	return r, nil
}
