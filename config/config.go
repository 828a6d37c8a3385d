package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	DBUrl            string
	TokenSecret      string
	TokenTTL         time.Duration
	RefreshTTL       time.Duration
	AllowAdminSignup bool
	Debug            bool
}

// ParseFlags reads an optional .env file, then the command line.
// Environment variables (QSURVEY_*) provide defaults for the flags.
func ParseFlags() (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	return Parse(os.Args[1:], os.Getenv)
}

func Parse(args []string, getenv func(string) string) (cfg Config, err error) {
	fs := flag.NewFlagSet("quick-survey", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", envString(getenv, "QSURVEY_HOST", "0.0.0.0"), "listen host name")
	var port uint
	fs.UintVar(&port, "port", envUint(getenv, "QSURVEY_PORT", 80), "listen port number")
	fs.StringVar(&cfg.DBUrl, "db-url", envString(getenv, "QSURVEY_DB_URL", "qsurvey.sqlite"), "path to SQLite3 DB file")
	fs.StringVar(&cfg.TokenSecret, "token-secret", envString(getenv, "QSURVEY_TOKEN_SECRET", ""), "secret key for signing access tokens")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", envUint(getenv, "QSURVEY_TOKEN_TTL", 3600), "access token TTL in seconds")
	var refreshTTL uint
	fs.UintVar(&refreshTTL, "refresh-ttl", envUint(getenv, "QSURVEY_REFRESH_TTL", 7*24*3600), "refresh token TTL in seconds")
	fs.BoolVar(&cfg.AllowAdminSignup, "allow-admin-signup", envBool(getenv, "QSURVEY_ALLOW_ADMIN_SIGNUP"), "accept role=admin on registration")
	fs.BoolVar(&cfg.Debug, "debug", envBool(getenv, "QSURVEY_DEBUG"), "log at DEBUG level")

	if err = fs.Parse(args); err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.RefreshTTL = time.Duration(refreshTTL) * time.Second

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.TokenTTL <= 0:
		err = errors.New("parameter -token-ttl must be positive")
	case cfg.RefreshTTL <= 0:
		err = errors.New("parameter -refresh-ttl must be positive")
	}
	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envString(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func envUint(getenv func(string) string, key string, def uint) uint {
	n, err := strconv.ParseUint(getenv(key), 10, 32)
	if err != nil {
		return def
	}
	return uint(n)
}

func envBool(getenv func(string) string, key string) bool {
	b, _ := strconv.ParseBool(getenv(key))
	return b
}
