package tools

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

// zoneOffsets are fixed hour offsets from UTC. Unlisted zones fall back
// to UTC.
var zoneOffsets = map[string]int{
	"UTC": 0,
	"EST": -5,
	"PST": -8,
	"CET": 1,
	"JST": 9,
}

const timeLayout = "2006-01-02 15:04:05"

// GetTime reports the current time in one of a few fixed-offset zones.
func GetTime(now func() time.Time) registry.Tool {
	return registry.NewTool(
		mcp.NewTool("get_time",
			mcp.WithDescription("Get current time in various timezones"),
			mcp.WithString("timezone",
				mcp.Description("Timezone (e.g., UTC, EST, PST)"),
			),
		),
		registry.HandlerFunc(func(_ context.Context, args registry.Arguments) (messages.ToolResult, error) {
			zone, err := args.String("timezone", "UTC")
			if err != nil {
				return messages.ToolResult{}, err
			}

			offset := zoneOffsets[strings.ToUpper(zone)]
			t := now().UTC().Add(time.Duration(offset) * time.Hour)

			return messages.NewTextResult("Current time in " + zone + ": " + t.Format(timeLayout)), nil
		}),
	)
}
