// Command lol-companion runs the champ-select overlay backend: it follows the
// local League client, reconciles draft state and serves it to overlays over
// REST and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/LoL-Companion/internal/advisory"
	"github.com/ramonehamilton/LoL-Companion/internal/api"
	"github.com/ramonehamilton/LoL-Companion/internal/champions"
	"github.com/ramonehamilton/LoL-Companion/internal/config"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/countdown"
	"github.com/ramonehamilton/LoL-Companion/internal/draft/identity"
	"github.com/ramonehamilton/LoL-Companion/internal/engine"
	"github.com/ramonehamilton/LoL-Companion/internal/events"
	"github.com/ramonehamilton/LoL-Companion/internal/lcu"
	"github.com/ramonehamilton/LoL-Companion/internal/logging"
	"github.com/ramonehamilton/LoL-Companion/internal/metrics"
	"github.com/ramonehamilton/LoL-Companion/internal/storage"
	"github.com/ramonehamilton/LoL-Companion/internal/supervisor"
	"github.com/ramonehamilton/LoL-Companion/internal/version"
)

var (
	configPath = flag.String("config", "", "Config file (default: ~/.lol-companion/config.toml)")
	port       = flag.Int("port", 0, "API server port (overrides config)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	writeCfg   = flag.Bool("write-config", false, "Write the effective configuration and exit")
	showVer    = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.GetVersion())
		return
	}

	if err := run(); err != nil {
		log.Error().Err(err).Msg("lol-companion stopped")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.API.Port = *port
	}
	if *debug {
		cfg.App.DebugMode = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(os.Stderr, cfg.App.LogLevel, cfg.App.DebugMode)

	if *writeCfg {
		if *configPath != "" {
			return cfg.SaveFile(*configPath)
		}
		return cfg.Save()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	store := lcu.NewCredentialStore(lcu.StoreConfig{
		LockfilePath:    cfg.LCU.LockfilePath,
		InstallDir:      cfg.LCU.InstallDir,
		ProcessFallback: true,
	})
	client := lcu.NewClient(store, lcu.ClientOptions{
		Timeout:           cfg.GetRequestTimeout(),
		RequestsPerSecond: cfg.LCU.RequestsPerSecond,
	})
	integration := lcu.NewIntegration(client, store, clock, lcu.Config{
		PollInterval:   cfg.GetPollInterval(),
		UseEventStream: cfg.LCU.UseEventStream,
		WatchLockfile:  true,
	})

	dispatcher := events.NewEventDispatcher()
	dispatcher.Register(events.NewLogObserver())

	ec := engineConfig(cfg)
	ec.Metrics = metrics.New(clock)
	eng := engine.New(integration, newAdvisor(cfg), dispatcher, clock, ec)

	services := &api.Services{
		Draft:    eng,
		Summoner: client,
		Metrics:  ec.Metrics,
	}

	catalog, closeCatalog := openCatalog(cfg, clock)
	defer closeCatalog()
	if catalog != nil {
		services.Champions = catalog
	}

	server := api.NewServer(&api.Config{
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
	}, services)
	dispatcher.Register(server.NewWebSocketObserver())

	log.Info().
		Str("version", version.GetVersion()).
		Int("port", cfg.API.Port).
		Bool("advisory", cfg.Advisory.URL != "").
		Str("auto_assign", cfg.Roles.AutoAssign).
		Msg("starting lol-companion")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })
	if catalog != nil {
		g.Go(func() error { return catalog.Run(gctx) })
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("lol-companion stopped")
	return nil
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadFile(*configPath)
	}
	return config.Load()
}

func newAdvisor(cfg *config.Config) advisory.Advisor {
	if cfg.Advisory.URL == "" {
		log.Info().Msg("no advisory service configured")
		return advisory.NoopAdvisor{}
	}
	clientCfg := advisory.DefaultClientConfig(cfg.Advisory.URL)
	clientCfg.Timeout = cfg.GetAdvisoryTimeout()
	return advisory.NewClient(clientCfg)
}

func engineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()
	ec.Tick = cfg.GetTick()

	ban, pick, planning, finalization, def := cfg.Ceilings()
	ec.Ceilings = countdown.Ceilings{
		Ban:          ban,
		Pick:         pick,
		Planning:     planning,
		Finalization: finalization,
		Default:      def,
	}

	ec.Advisory = advisory.Config{
		Debounce: cfg.GetDebounce(),
		Timeout:  cfg.GetAdvisoryTimeout(),
		TopK:     cfg.Advisory.TopK,
	}

	ec.Supervisor = supervisor.Config{
		ProbeInterval:     cfg.GetProbeInterval(),
		PhasePollInterval: cfg.GetPhasePollInterval(),
		ProbeTimeout:      cfg.GetProbeTimeout(),
		DraftPhases:       cfg.Supervisor.DraftPhases,
	}

	if policy, ok := identity.ParseAutoAssignPolicy(cfg.Roles.AutoAssign); ok {
		ec.AutoAssign = policy
	}
	return ec
}

// openCatalog opens the champion cache. The catalog is presentation data, so
// a failure only disables the champion routes.
func openCatalog(cfg *config.Config, clock clockwork.Clock) (*champions.Catalog, func()) {
	path, err := cfg.ChampionDBPath()
	if err != nil {
		log.Warn().Err(err).Msg("champion catalog disabled")
		return nil, func() {}
	}

	db, err := storage.Open(storage.DefaultConfig(path))
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("champion catalog disabled")
		return nil, func() {}
	}

	source := champions.NewDataDragon(champions.DataDragonOptions{Locale: cfg.Champions.Locale})
	catalog := champions.NewCatalog(db, source, clock, cfg.GetRefreshInterval())

	return catalog, func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close champion database")
		}
	}
}
