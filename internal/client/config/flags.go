package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/davmarks/internal/flagx"
)

// parseFlags populates Config from the flags this package owns:
//
//	-d string   data directory
//	-i int      background sync interval (minutes)
//	-t int      request timeout (seconds)
//	-b string   browser convention: auto, chrome or firefox
//	-l string   log level
//
// Other flags are filtered out with flagx.FilterArgs first.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-i", "-t", "-b", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Minutes()), "sync interval (in minutes)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.Browser, "b", cfg.Browser, "browser root folder convention: auto, chrome, firefox")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.SyncInterval = time.Duration(*syncInterval) * time.Minute
		case "t":
			cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		}
	})
}
