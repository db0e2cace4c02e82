// qlstats - Quake Live stats feed subscriber
//
// qlstats subscribes to a Quake Live server's ZeroMQ stats publisher and
// prints every stats event as JSON. It reconnects on its own after drops and
// stops on authentication failures. Events can optionally be relayed to
// MQTT, counted in InfluxDB, and watched over a local HTTP/WebSocket API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/qlstats/internal/api"
	"github.com/nerrad567/qlstats/internal/display"
	"github.com/nerrad567/qlstats/internal/infrastructure/config"
	"github.com/nerrad567/qlstats/internal/infrastructure/influxdb"
	"github.com/nerrad567/qlstats/internal/infrastructure/logging"
	"github.com/nerrad567/qlstats/internal/infrastructure/mqtt"
	"github.com/nerrad567/qlstats/internal/infrastructure/zmq"
	"github.com/nerrad567/qlstats/internal/relay"
	"github.com/nerrad567/qlstats/internal/stats"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	// Cancel on Ctrl+C and SIGTERM so the supervisor can disconnect cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp(run).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// newApp builds the CLI. action receives the merged configuration.
func newApp(action func(ctx context.Context, cfg *config.Config) error) *cli.App {
	return &cli.App{
		Name:    "qlstats",
		Usage:   "Subscribe to a Quake Live ZeroMQ stats feed",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"QLSTATS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "host",
				Aliases: []string{"H"},
				Usage:   "stats endpoint, e.g. tcp://127.0.0.1:27960",
				EnvVars: []string{"QLSTATS_HOST"},
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "stats password (zmq_stats_password)",
				EnvVars: []string{"QLSTATS_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "identity",
				Aliases: []string{"i"},
				Usage:   "socket identity; generated when empty",
				EnvVars: []string{"QLSTATS_IDENTITY"},
			},
			&cli.BoolFlag{
				Name:    "pretty",
				Aliases: []string{"P"},
				Usage:   "pretty-print JSON events",
				EnvVars: []string{"QLSTATS_PRETTY"},
			},
			&cli.BoolFlag{
				Name:    "tui",
				Usage:   "interactive terminal view",
				EnvVars: []string{"QLSTATS_TUI"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"QLSTATS_LOG_LEVEL"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return action(c.Context, cfg)
		},
	}
}

// loadConfig loads the config file (if any) and applies command-line flags,
// which take precedence over file and environment values.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if c.IsSet("host") {
		cfg.ZMQ.Endpoint = c.String("host")
	}
	if c.IsSet("password") {
		cfg.ZMQ.Password = c.String("password")
	}
	if c.IsSet("identity") {
		cfg.ZMQ.Identity = c.String("identity")
	}
	if c.IsSet("pretty") {
		cfg.Display.PrettyPrint = c.Bool("pretty")
	}
	if c.IsSet("tui") && c.Bool("tui") {
		cfg.Display.Mode = config.DisplayModeTUI
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// loggingConfig keeps log output off the terminal while the TUI owns it.
func loggingConfig(cfg *config.Config) config.LoggingConfig {
	lc := cfg.Logging
	if cfg.Display.Mode == config.DisplayModeTUI && lc.Output != "file" {
		lc.Output = "discard"
	}
	return lc
}

// influxConfig tags every point with the stats endpoint unless the
// configuration already sets an "endpoint" tag.
func influxConfig(cfg *config.Config) config.InfluxDBConfig {
	ic := cfg.InfluxDB
	tags := make(map[string]string, len(ic.Tags)+1)
	for k, v := range ic.Tags {
		tags[k] = v
	}
	if _, ok := tags["endpoint"]; !ok {
		tags["endpoint"] = cfg.ZMQ.Endpoint
	}
	ic.Tags = tags
	return ic
}

// run wires the optional relays and the API, then runs the supervisor and
// the display sink until shutdown.
//
// Parameters:
//   - ctx: Context cancelled on interrupt signals
//   - cfg: Merged configuration
//
// Returns:
//   - error: nil on clean shutdown, or the startup/fatal transport error
func run(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(loggingConfig(cfg), version)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Close()
	log.Info("starting qlstats",
		"version", version,
		"commit", commit,
		"build_date", date,
		"endpoint", cfg.ZMQ.Endpoint,
	)

	tally := stats.NewTally()
	observers := []stats.Observer{tally}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttRelay := relay.NewMQTT(mqttClient, mqttClient.Topics(), byte(cfg.MQTT.QoS), log)
		observers = append(observers, mqttRelay)
		g.Go(func() error { return mqttRelay.Run(gctx) })
	} else {
		log.Info("MQTT relay disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, influxConfig(cfg))
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		observers = append(observers, relay.NewInflux(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// Start status API (optional)
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Logger:   log,
			Tally:    tally,
			Endpoint: cfg.ZMQ.Endpoint,
			Version:  version,
		}
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}
		if influxClient != nil {
			deps.InfluxDB = influxClient
		}
		srv, err := api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := srv.Start(gctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		observers = append(observers, srv)
	}

	disp := stats.NewDisplay(cfg.Display.Buffer)
	zmqLog := log.With("component", "zmq")
	supervisor, err := stats.NewSupervisor(stats.Deps{
		Endpoint: cfg.ZMQ.Endpoint,
		Password: cfg.ZMQ.Password,
		Identity: cfg.ZMQ.Identity,
		Pretty:   cfg.Display.PrettyPrint,
		NewConnection: func() (stats.Connection, error) {
			sub, err := zmq.New(zmq.Options{Logger: zmqLog})
			if err != nil {
				return nil, err
			}
			return sub, nil
		},
		Display:   disp,
		Observers: observers,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating supervisor: %w", err)
	}

	g.Go(func() error {
		// The relays stop with the supervisor.
		defer cancel()
		err := supervisor.Run(gctx)
		if errors.Is(err, stats.ErrDisplayClosed) {
			// The sink reports its own failure, or the user quit.
			return nil
		}
		return err
	})

	g.Go(func() error {
		defer disp.Detach()
		if cfg.Display.Mode == config.DisplayModeTUI {
			// Quitting the view stops everything. It listens on the signal
			// context so a fatal notice stays on screen until dismissed.
			defer cancel()
			return display.RunTUI(ctx, disp.Lines(), display.Options{
				Endpoint: cfg.ZMQ.Endpoint,
				MaxLines: cfg.Display.MaxLines,
				Status:   tally,
			})
		}
		return display.Print(disp.Lines(), os.Stdout)
	})

	err = g.Wait()
	log.Info("qlstats stopped", "error", err)
	return err
}

// healthCheck verifies the optional relay connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
