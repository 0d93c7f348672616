package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

var conditions = []string{"Sunny", "Cloudy", "Rainy", "Partly Cloudy"}

// CheckWeather returns mock weather: a temperature between 10 and 30 °C
// and a random condition.
func CheckWeather(rng IntN) registry.Tool {
	return registry.NewTool(
		mcp.NewTool("check_weather",
			mcp.WithDescription("Get current weather (mock data)"),
			mcp.WithString("city",
				mcp.Required(),
				mcp.Description("City name"),
			),
		),
		registry.HandlerFunc(func(_ context.Context, args registry.Arguments) (messages.ToolResult, error) {
			city, err := args.String("city", "Unknown")
			if err != nil {
				return messages.ToolResult{}, err
			}

			temp := 10 + rng.IntN(21)
			condition := conditions[rng.IntN(len(conditions))]

			return messages.NewTextResult(fmt.Sprintf("Weather in %s: %d°C, %s", city, temp, condition)), nil
		}),
	)
}
