// Package matcher wraps the external fingerprint matcher process.
//
// The matcher is a black box with a file based contract: it is started with
// the image and model paths, writes recognition_result.json into a fixed
// report directory and exits 0. Because the report path is fixed, launches
// are serialised: at most one matcher process runs per Gateway.
package matcher

import (
	"os"
	"strings"
	"time"
)

// ReportFileName is the file the matcher writes into Config.ReportDir.
const ReportFileName = "recognition_result.json"

// Config holds configuration for the matcher gateway.
type Config struct {
	Command        string        // Executable, e.g. "python3"
	Args           []string      // Leading arguments, e.g. the script path
	WorkDir        string        // Working directory of the process (defaults to ReportDir)
	ReportDir      string        // Directory the matcher writes its report into
	TempDir        string        // Where staged images are written ("" uses os.TempDir)
	Env            []string      // Extra KEY=VALUE pairs appended to the inherited environment
	WaitDelay      time.Duration // Grace period for pipe draining after kill
	MaxStderrBytes int           // Upper bound of captured stderr
}

// LoadConfig loads matcher configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Command:        getenvDefault("MATCHER_COMMAND", "python3"),
		Args:           strings.Fields(getenvDefault("MATCHER_ARGS", "fingerprint_recognition.py")),
		WorkDir:        os.Getenv("MATCHER_WORK_DIR"),
		ReportDir:      getenvDefault("MATCHER_REPORT_DIR", "."),
		TempDir:        os.Getenv("MATCHER_TEMP_DIR"),
		WaitDelay:      2 * time.Second,
		MaxStderrBytes: 4096,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
