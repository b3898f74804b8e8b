package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/awolverp/xuiclient/pkg/jsonutil"
	"github.com/awolverp/xuiclient/pkg/protocols"
)

func TestCalculateInboundTraffic(t *testing.T) {
	stats := []protocols.ClientStat{
		{Email: "a", Up: jsonutil.Int(100), Down: jsonutil.Int(200)},
		{Email: "b", Up: jsonutil.Int(50), Down: jsonutil.Int(75)},
	}

	down, up := CalculateInboundTraffic(stats)
	require.Equal(t, int64(275), down)
	require.Equal(t, int64(150), up)
}

func TestFormatTableLineTruncatesLongEmails(t *testing.T) {
	line := FormatTableLine("a-very-long-email-address@host", 0, 0)
	require.Contains(t, line, "a-very-long-em...")
}

func TestFormatTrafficReportSkipsEmptyInbounds(t *testing.T) {
	inbounds := []*protocols.Inbound{
		{Remark: "empty"},
		{
			Remark: "busy",
			ClientStats: []protocols.ClientStat{
				{Email: "user", Up: jsonutil.Int(1 << 30), Down: jsonutil.Int(2 << 30)},
			},
		},
	}

	report := FormatTrafficReport(inbounds)
	require.NotContains(t, report, "empty")
	require.Contains(t, report, "busy")
	require.Contains(t, report, "user")
	require.Contains(t, report, "Grand Total:")
	require.True(t, strings.Contains(report, "2.00") && strings.Contains(report, "1.00"))
}
