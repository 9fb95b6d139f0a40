package flags

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/urfave/cli/v3"

	"baerhub/internal/realtime"
	"baerhub/pkg/baerapi"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var APIURL = &cli.StringFlag{
	Name:    "api-url",
	Aliases: []string{"u"},
	Usage:   "The base URL of the baerhub API",
	Value:   baerapi.DefaultBaseURL,
	Sources: cli.EnvVars("BAERHUB_API_URL"),
}

var WSURL = &cli.StringFlag{
	Name:        "ws-url",
	Usage:       "The chat WebSocket endpoint",
	DefaultText: "derived from --api-url",
	Sources:     cli.EnvVars("BAERHUB_WS_URL"),
}

var DataDir = &cli.StringFlag{
	Name:    "data-dir",
	Aliases: []string{"d"},
	Usage:   "Where the session and preferences are kept",
	Value:   defaultDataDir(),
	Sources: cli.EnvVars("BAERHUB_DATA_DIR"),
}

// TODO: extract custom EnumFlag
var LogLevel = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "The level of the logs",
	Value:   "warn",
	Validator: func(value string) error {
		if !slices.Contains(validLogLevels, value) {
			return fmt.Errorf("invalid log level: %s, allowed values are: %s", value, validLogLevels)
		}
		return nil
	},
	Sources: cli.EnvVars("LOG_LEVEL"),
}

var MetricsAddr = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "Serve /metrics and /health on this address while chatting, e.g. :9090",
	Sources: cli.EnvVars("BAERHUB_METRICS_ADDR"),
}

var Room = &cli.StringFlag{
	Name:    "room",
	Aliases: []string{"r"},
	Usage:   "The room to join",
	Value:   "general",
	Sources: cli.EnvVars("BAERHUB_ROOM"),
}

var FallbackDelay = &cli.DurationFlag{
	Name:  "fallback-delay",
	Usage: "How long to show a closed chat before returning to the room list",
	Value: realtime.DefaultFallbackDelay,
}

var Yes = &cli.BoolFlag{
	Name:    "yes",
	Aliases: []string{"y"},
	Usage:   "Do not ask for confirmation",
}

var Password = &cli.StringFlag{
	Name:    "password",
	Aliases: []string{"p"},
	Usage:   "The password; prompted for when omitted",
	Sources: cli.EnvVars("BAERHUB_PASSWORD"),
}

var DisplayName = &cli.StringFlag{
	Name:  "display-name",
	Usage: "The name shown instead of the username",
}

var Description = &cli.StringFlag{
	Name:  "description",
	Usage: "What the room is about",
}

var More = &cli.BoolFlag{
	Name:  "more",
	Usage: "Also load the next older page",
}

var Raw = &cli.BoolFlag{
	Name:  "raw",
	Usage: "Dump the decoded posts instead of rendering them",
}

var Timeout = &cli.DurationFlag{
	Name:  "timeout",
	Usage: "Give up on the backend after this long",
	Value: 10 * time.Second,
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".baerhub"
	}
	return filepath.Join(dir, "baerhub")
}
