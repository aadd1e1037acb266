package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"vehicle-visualizer/protocol"
)

const (
	defaultUDPAddr   = "127.0.0.1:48110"
	defaultTokenFile = "mapbox_token"
)

var errTokenSource = errors.New("layer token source unavailable")

type config struct {
	httpPort  int
	bind      string
	udpAddr   string
	tokenFile string
	debug     bool
}

// loadDotEnv loads an optional .env file from the working directory.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseConfig parses the command line. Exactly one positional argument,
// the viewer HTTP port, is accepted.
func parseConfig(args []string) (config, error) {
	var cfg config
	fs := pflag.NewFlagSet("vehicle-visualizer", pflag.ContinueOnError)
	fs.StringVar(&cfg.udpAddr, "udp-addr", envOr("VISUALIZER_UDP_ADDR", defaultUDPAddr), "address the simulator sends datagrams to")
	fs.StringVar(&cfg.bind, "bind", envOr("VISUALIZER_BIND", ""), "host the viewer HTTP server binds to")
	fs.StringVar(&cfg.tokenFile, "token-file", envOr("VISUALIZER_TOKEN_FILE", defaultTokenFile), "file holding the map layer token")
	fs.BoolVar(&cfg.debug, "debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vehicle-visualizer [flags] <http-port>\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return cfg, fmt.Errorf("expected exactly one argument (the HTTP port), got %d", fs.NArg())
	}
	port, err := strconv.Atoi(fs.Arg(0))
	if err != nil || port < 1 || port > 65535 {
		return cfg, fmt.Errorf("invalid HTTP port %q", fs.Arg(0))
	}
	cfg.httpPort = port
	return cfg, nil
}

func (c config) httpAddr() string {
	return fmt.Sprintf("%s:%d", c.bind, c.httpPort)
}

// loadToken returns the first non-empty line of path, or "none" when the
// file has no such line. A missing file is an error.
func loadToken(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errTokenSource, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", errTokenSource, err)
	}
	return protocol.NoToken, nil
}
