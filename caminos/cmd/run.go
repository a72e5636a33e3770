package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/nakacristo/caminos-lib-sub002/config"
	"github.com/nakacristo/caminos-lib-sub002/datarecording"
	"github.com/nakacristo/caminos-lib-sub002/monitoring"
	"github.com/nakacristo/caminos-lib-sub002/noc/messaging"
	"github.com/nakacristo/caminos-lib-sub002/noc/traffic"
	"github.com/nakacristo/caminos-lib-sub002/sim"
	"github.com/nakacristo/caminos-lib-sub002/simulation"
	"github.com/nakacristo/caminos-lib-sub002/tracing"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Environment variables that override the configuration.
const (
	EnvSeed   = "CAMINOS_SEED"
	EnvOutput = "CAMINOS_OUTPUT"
)

var (
	seed        int64
	parallelism int
	record      bool
	output      string
	timeout     time.Duration
	monitor     bool
	monitorPort int
	openBrowser bool
)

var runCmd = &cobra.Command{
	Use:   "run [config.yaml]",
	Short: "Run a simulation.",
	Long: `Run a simulation described by a YAML file, or the default ` +
		`configuration when no file is given. ` + EnvSeed + ` overrides the ` +
		`random seed and ` + EnvOutput + ` names the packet database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimulation,
}

func init() {
	f := runCmd.Flags()
	f.Int64Var(&seed, "seed", 0, "Random seed, overrides the file and "+EnvSeed+".")
	f.IntVar(&parallelism, "parallelism", 0,
		"Number of router workers, overrides the file when positive.")
	f.BoolVar(&record, "record", false,
		"Record every completed packet into a SQLite database.")
	f.StringVar(&output, "output", "",
		"Name of the packet database, without the .sqlite3 extension.")
	f.DurationVar(&timeout, "timeout", 0,
		"Cancel the run after this wall-clock duration.")
	f.BoolVar(&monitor, "monitor", false, "Serve the monitoring page.")
	f.IntVar(&monitorPort, "monitor-port", 0,
		"Port of the monitoring page, random when unset.")
	f.BoolVar(&openBrowser, "open-browser", false,
		"Open the monitoring page in a browser.")

	rootCmd.AddCommand(runCmd)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	if len(args) == 1 {
		var err error

		cfg, err = config.Load(args[0])
		if err != nil {
			return err
		}
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return err
	}

	if cmd.Flags().Changed("seed") {
		cfg.RandomSeed = seed
	}

	dbName := output
	if dbName == "" {
		dbName = os.Getenv(EnvOutput)
	}

	s, err := simulation.MakeBuilder().
		WithConfig(cfg).
		WithParallelism(parallelism).
		Build()
	if err != nil {
		return err
	}

	warmup, windowEnd := measurementWindow(cfg)
	packets := tracing.NewPacketTracer(warmup, windowEnd)
	tracing.CollectTrace(s, packets)

	injected := &messaging.TrafficCounter{Pos: traffic.HookPosFlitInject}
	ejected := &messaging.TrafficCounter{Pos: traffic.HookPosFlitEject}
	s.AcceptHook(injected)
	s.AcceptHook(ejected)

	var dbTracer *tracing.DBTracer
	if record || dbName != "" {
		recorder := datarecording.New(dbName)
		defer recorder.Close()

		dbTracer = tracing.NewDBTracer(recorder)
		tracing.CollectTrace(s, dbTracer)
	}

	if monitor {
		if err := startMonitor(s); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.WithFields(log.Fields{
		"run":      s.ID(),
		"seed":     cfg.RandomSeed,
		"routers":  len(s.Routers()),
		"servers":  len(s.Servers()),
		"diameter": s.Topology().Diameter(),
	}).Info("simulation started")

	start := time.Now()
	res, runErr := s.Run(ctx)

	packets.Terminate()
	if dbTracer != nil {
		dbTracer.Terminate()
	}

	log.WithFields(log.Fields{
		"run":     res.RunID,
		"cycles":  res.Cycles,
		"reason":  res.Reason,
		"elapsed": time.Since(start),
	}).Info("simulation stopped")

	log.WithFields(log.Fields{
		"injected_packets": injected.NumPackets,
		"ejected_packets":  ejected.NumPackets,
		"in_flight_flits":  injected.NumFlits - ejected.NumFlits,
	}).Debug("server traffic")

	var measured sim.Cycle
	if res.Cycles > warmup {
		measured = res.Cycles - warmup
	}

	printResult(cmd.OutOrStdout(), res)
	printSummary(cmd.OutOrStdout(),
		packets.Summary(len(s.Servers()), measured))

	return runErr
}

// applyEnv applies the environment overrides to the configuration.
func applyEnv(cfg *config.Config, getenv func(string) string) error {
	if v := getenv(EnvSeed); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}

		cfg.RandomSeed = n
	}

	return nil
}

// measurementWindow returns the creation cycles of the measured packets. An
// unlimited run leaves the window open.
func measurementWindow(cfg *config.Config) (start, end sim.Cycle) {
	start = sim.Cycle(cfg.Warmup)
	if cfg.Measured > 0 {
		end = cfg.TotalCycles()
	}

	return start, end
}

// startMonitor serves the monitoring page. Besides the cycle bar, a packet
// bar counts packets in flight and delivered.
func startMonitor(s *simulation.Simulation) error {
	m := monitoring.NewMonitor().
		WithBrowser(openBrowser)
	if monitorPort > 0 {
		m = m.WithPortNumber(monitorPort)
	}

	m.RegisterRun(s, uint64(s.Config().TotalCycles()))

	for _, r := range s.Routers() {
		m.RegisterComponent(r)
	}

	packets := m.CreateProgressBar("Packets", 0)
	s.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		switch ctx.Pos {
		case traffic.HookPosFlitInject:
			if ctx.Item.(*messaging.Flit).IsHead() {
				packets.IncrementInProgress(1)
			}
		case traffic.HookPosPacketCompleted:
			packets.MoveInProgressToFinished(1)
		}
	}))

	_, err := m.StartServer()

	return err
}
