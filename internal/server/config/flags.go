package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/accounts/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     gRPC bind address (e.g. ":50051")
//	-m string     metrics/health bind address, empty disables
//	-d string     database DSN, or memory://
//	-s string     token signing secret
//	-i int        instance id for generated user ids (0-1023)
//	-t duration   token validity (e.g. "168h")
//	-g string     default phone region (e.g. "US")
//	-l string     log level
//
// Only the flags above are taken from args (see flagx.FilterArgs), so the
// -c/-config file flag can share the same argument list.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-m", "-d", "-s", "-i", "-t", "-g", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address of the metrics and health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.IntVar(&config.InstanceID, "i", config.InstanceID, "instance id")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "token validity duration")
	fs.StringVar(&config.PhoneRegion, "g", config.PhoneRegion, "default phone region")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
