package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/davmarks/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., ":8080")
//	-r string   directory to serve
//	-u string   Basic auth username
//	-p string   Basic auth password
//	-l string   log level
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-u", "-p", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.Root, "r", config.Root, "directory served over WebDAV")
	fs.StringVar(&config.Username, "u", config.Username, "basic auth username")
	fs.StringVar(&config.Password, "p", config.Password, "basic auth password")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
