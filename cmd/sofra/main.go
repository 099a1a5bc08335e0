package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecakir/sofra-cli/internal/cli"
	"github.com/ecakir/sofra-cli/internal/config"
	locationgateway "github.com/ecakir/sofra-cli/internal/gateway/location"
	sofragateway "github.com/ecakir/sofra-cli/internal/gateway/sofra"
	"github.com/ecakir/sofra-cli/internal/service/profile"
)

var version = "dev"

const (
	baseURLEnv = "SOFRA_BASE_URL"
	localeEnv  = "SOFRA_LOCALE"
	debugEnv   = "SOFRA_DEBUG"
)

func main() {
	store, err := config.NewStore()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := buildLogger()
	clientOpts := []sofragateway.Option{
		sofragateway.WithLogger(logger),
	}
	if baseURL := strings.TrimSpace(os.Getenv(baseURLEnv)); baseURL != "" {
		clientOpts = append(clientOpts, sofragateway.WithBaseURL(baseURL))
	}
	if locale := strings.TrimSpace(os.Getenv(localeEnv)); locale != "" {
		clientOpts = append(clientOpts, sofragateway.WithLocale(locale))
	}

	deps := cli.Dependencies{
		Sofra:    sofragateway.NewClient(clientOpts...),
		Profiles: profile.NewResolver(store),
		Location: locationgateway.NewClient(),
		Config:   store,
		Version:  version,
		Logger:   logger,
	}

	exitCode := cli.Execute(context.Background(), os.Args[1:], deps, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

func buildLogger() zerolog.Logger {
	if strings.TrimSpace(os.Getenv(debugEnv)) == "" {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.DebugLevel)
}
