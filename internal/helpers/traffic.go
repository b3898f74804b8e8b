package helpers

import (
	"fmt"
	"strings"

	"github.com/awolverp/xuiclient/internal/constants"
	"github.com/awolverp/xuiclient/pkg/protocols"
)

// FormatTrafficReport formats a per-client network usage report
func FormatTrafficReport(inbounds []*protocols.Inbound) string {
	var sb strings.Builder
	sb.WriteString("Network Usage Report:\n")
	sb.WriteString("Email             | v (GB) | ^ (GB)\n")
	sb.WriteString("------------------|--------|--------\n")

	var totalUpload int64 = 0
	var totalDownload int64 = 0

	for _, inbound := range inbounds {
		if len(inbound.ClientStats) == 0 {
			continue
		}

		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Inbound: %s\n", inbound.Remark))

		inboundDownload, inboundUpload := CalculateInboundTraffic(inbound.ClientStats)
		totalDownload += inboundDownload
		totalUpload += inboundUpload

		for _, client := range inbound.ClientStats {
			sb.WriteString(FormatTableLine(client.Email, client.Down.Int64(), client.Up.Int64()))
		}

		sb.WriteString("-----------\n")
		sb.WriteString(FormatTableLine("Total:", inboundDownload, inboundUpload))
	}

	sb.WriteString("\n")
	sb.WriteString(FormatTableLine("Grand Total:", totalDownload, totalUpload))

	return sb.String()
}

// CalculateInboundTraffic calculates total traffic for an inbound (in bytes)
func CalculateInboundTraffic(clientStats []protocols.ClientStat) (downloadBytes int64, uploadBytes int64) {
	for _, client := range clientStats {
		downloadBytes += client.Down.Int64()
		uploadBytes += client.Up.Int64()
	}
	return
}

// FormatTableLine formats a single line of the traffic table
func FormatTableLine(email string, downBytes int64, upBytes int64) string {
	downGB := float64(downBytes) / constants.BytesInGB
	upGB := float64(upBytes) / constants.BytesInGB

	displayEmail := email
	if len(email) > constants.MaxEmailDisplayLength {
		displayEmail = email[:constants.MaxEmailSuffixLength] + "..."
	}

	return fmt.Sprintf("%-17s | %6.2f | %6.2f\n", displayEmail, downGB, upGB)
}
