package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

const (
	flagAPIURL     = "api-url"
	flagStore      = "store"
	flagDataFolder = "data-folder"
	flagRedisAddr  = "redis-addr"
	flagLogLevel   = "log-level"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	defaults := config.New()

	return &cli.Command{
		Name:  "admin",
		Usage: "Sign in to the backend API and send authenticated requests",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagAPIURL,
				Usage:   "Base URL of the backend API",
				Value:   defaults.GetAPIURL(),
				Sources: cli.EnvVars("API_URL"),
			},
			&cli.StringFlag{
				Name:    flagStore,
				Usage:   "Credential store backend: memory, file or redis",
				Value:   defaults.GetStoreBackend(),
				Sources: cli.EnvVars("STORE_BACKEND"),
			},
			&cli.StringFlag{
				Name:    flagDataFolder,
				Usage:   "Folder of the file credential store",
				Value:   defaults.GetDataFolder(),
				Sources: cli.EnvVars("FOLDER"),
			},
			&cli.StringFlag{
				Name:    flagRedisAddr,
				Usage:   "Redis address of the redis credential store",
				Value:   defaults.GetRedisAddr(),
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Usage:   "zerolog level",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogger(cmd.String(flagLogLevel))
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			displayAppname(defaults.GetAppName())
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			statusCommand(),
			getCommand(),
		},
	}
}

// settings is the environment config with the global flags applied on top.
type settings struct {
	config.Config
	apiURL     string
	store      string
	dataFolder string
	redisAddr  string
}

func newSettings(cmd *cli.Command) settings {
	return settings{
		Config:     config.New(),
		apiURL:     cmd.String(flagAPIURL),
		store:      cmd.String(flagStore),
		dataFolder: cmd.String(flagDataFolder),
		redisAddr:  cmd.String(flagRedisAddr),
	}
}

func (s settings) GetAPIURL() string       { return s.apiURL }
func (s settings) GetStoreBackend() string { return s.store }
func (s settings) GetDataFolder() string   { return s.dataFolder }
func (s settings) GetRedisAddr() string    { return s.redisAddr }

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
