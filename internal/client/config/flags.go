package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophprint/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   backend base URL
//	-d string   local scanner service base URL
//	-s string   session store (sqlite | redis)
//	-i int      device check interval in seconds
//	-l string   log level
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with -c / -e.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-d", "-s", "-i", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendBaseURL, "b", cfg.BackendBaseURL, "backend base URL")
	fs.StringVar(&cfg.DeviceBaseURL, "d", cfg.DeviceBaseURL, "local scanner service base URL")
	fs.StringVar(&cfg.SessionStore, "s", cfg.SessionStore, "session store (sqlite | redis)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	deviceCheckInterval := fs.Int("i", int(cfg.DeviceCheckInterval.Seconds()), "device check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DeviceCheckInterval = time.Duration(*deviceCheckInterval) * time.Second
}
