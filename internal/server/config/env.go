package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/backoffice/internal/flagx"
)

// parseEnv overlays environment variables. Unparseable numbers panic, like
// a malformed config file does.
//
//	APP_ADDR                     HTTP bind address
//	POSTGRES_DSN                 database DSN
//	SECRET_KEY                   token signing secret
//	JWT_ALGORITHM                signing algorithm
//	ACCESS_TOKEN_EXPIRE_MINUTES  access token validity, minutes
//	LOGIN_RATE_LIMIT             login requests per second per client
//	LOGIN_RATE_BURST             login burst per client
//	CORS_ALLOWED_ORIGINS         comma separated origins
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("APP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("POSTGRES_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("JWT_ALGORITHM"); ok {
		config.SigningAlgorithm = v
	}
	if v, ok := os.LookupEnv("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		config.AccessTokenValidityDuration = time.Duration(mustAtoi("ACCESS_TOKEN_EXPIRE_MINUTES", v)) * time.Minute
	}
	if v, ok := os.LookupEnv("LOGIN_RATE_LIMIT"); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Errorf("LOGIN_RATE_LIMIT: %w", err))
		}
		config.LoginRateLimit = rps
	}
	if v, ok := os.LookupEnv("LOGIN_RATE_BURST"); ok {
		config.LoginRateBurst = mustAtoi("LOGIN_RATE_BURST", v)
	}
	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = flagx.SplitList(v)
	}
}

func mustAtoi(name, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	return n
}
