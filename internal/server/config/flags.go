package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/backoffice/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a    string  HTTP bind address (e.g. ":8080")
//	-d    string  PostgreSQL DSN, or "memory"
//	-s    string  token signing secret
//	-alg  string  signing algorithm (HS256, HS384, HS512)
//	-t    int     access token validity, minutes
//	-rl   float   login requests per second per client
//	-rb   int     login burst per client
//	-cors string  comma separated CORS origins
//
// os.Args is first filtered to these flags so -c/-config and anything owned
// by other components does not make parsing fail.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-alg", "-t", "-rl", "-rb", "-cors"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SigningAlgorithm, "alg", config.SigningAlgorithm, "token signing algorithm")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.Float64Var(&config.LoginRateLimit, "rl", config.LoginRateLimit, "login requests per second per client")
	fs.IntVar(&config.LoginRateBurst, "rb", config.LoginRateBurst, "login burst per client")

	cors := fs.String("cors", strings.Join(config.CORSAllowedOrigins, ","), "comma separated CORS origins")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -t only has minute precision; an unset flag must not truncate a
	// finer value loaded from the config file.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
	config.CORSAllowedOrigins = flagx.SplitList(*cors)
}
