// Command hmtoken mints API access tokens for the Homematic bridge.
//
// The signing secret and issuer are read from the bridge configuration, so
// GRAYLOGIC_HM_JWT_SECRET applies here as well:
//
//	hmtoken -subject installer -role operator -ttl 720h
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nerrad567/gray-logic-homematic/internal/auth"
	"github.com/nerrad567/gray-logic-homematic/internal/infrastructure/config"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, mints one token and writes it to out.
func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("hmtoken", flag.ContinueOnError)
	fs.SetOutput(out)

	configPath := fs.String("config", getConfigPath(), "path to the bridge configuration file")
	subject := fs.String("subject", "", "token subject, recorded as the command user")
	role := fs.String("role", string(auth.RoleViewer), "role: viewer, operator or admin")
	ttl := fs.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		return errors.New("-subject is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Security.JWT.Secret == "" {
		return errors.New("security.jwt.secret is not set (set GRAYLOGIC_HM_JWT_SECRET environment variable)")
	}

	token, err := auth.GenerateAccessToken(auth.TokenRequest{
		Subject: *subject,
		Role:    auth.Role(*role),
		Issuer:  cfg.Security.JWT.Issuer,
		TTL:     *ttl,
	}, cfg.Security.JWT.Secret)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_HM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_HM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
