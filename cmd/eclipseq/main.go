// eclipseq - Eclipse Photography Sequencer
//
// This is the main entry point for the eclipseq command. It compiles
// declarative eclipse scripts into flat, time-ordered command lists and
// executes those lists against a camera at the right wall-clock moments:
//
//	eclipseq compile -t totality.tim -o sequence.csv script.sem
//	eclipseq run sequence.csv
//	eclipseq run -t "2026/08/12 17:45:00.0" --no-camera sequence.csv
//	eclipseq cameras
//
// Compilation and execution are deliberately separate steps so the
// command list can be reviewed, and rehearsed with a simulated clock,
// days before the eclipse.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ecliptic-labs/eclipseq/migrations"

	"github.com/ecliptic-labs/eclipseq/internal/camera"
	"github.com/ecliptic-labs/eclipseq/internal/history"
	"github.com/ecliptic-labs/eclipseq/internal/infrastructure/config"
	"github.com/ecliptic-labs/eclipseq/internal/infrastructure/database"
	"github.com/ecliptic-labs/eclipseq/internal/infrastructure/influxdb"
	"github.com/ecliptic-labs/eclipseq/internal/infrastructure/logging"
	"github.com/ecliptic-labs/eclipseq/internal/infrastructure/mqtt"
	"github.com/ecliptic-labs/eclipseq/internal/monitor"
	"github.com/ecliptic-labs/eclipseq/internal/script"
	"github.com/ecliptic-labs/eclipseq/internal/sequence"
	"github.com/ecliptic-labs/eclipseq/internal/sequencer"
	"github.com/ecliptic-labs/eclipseq/internal/timing"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

const usage = `eclipseq - eclipse photography sequencer

Usage:
  eclipseq compile -t <circumstances> [-o <out.csv>] <script>
  eclipseq run [-t "<Y/M/D H:M:S.t>"] [--no-camera] [--no-sound] <sequence.csv>
  eclipseq cameras
  eclipseq version

Commands:
  compile   Resolve a script against a circumstances table into a CSV
            command list (stdout unless -o is given).
  run       Execute a compiled command list at wall-clock times. With
            -t the clock is simulated from the given reference instant.
  cameras   List cameras gphoto2 can see.
  version   Print version information.
`

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(os.Args[2:])
	case "run":
		err = runSequence(ctx, os.Args[2:])
	case "cameras":
		err = runCameras(ctx, os.Args[2:])
	case "version":
		fmt.Printf("eclipseq %s (commit %s, built %s)\n", version, commit, date)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "eclipseq: unknown command %q\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runCompile parses a script, resolves it against the circumstances
// table, and writes the flat command list as CSV.
//
// Parameters:
//   - args: Arguments after the "compile" subcommand
//
// Returns:
//   - error: Parse or resolution failure with file:line location
func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	tablePath := fs.String("t", "", "circumstances table file (required)")
	outPath := fs.String("o", "", "output CSV file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tablePath == "" || fs.NArg() != 1 {
		fs.Usage()
		return errors.New("compile requires -t <circumstances> and one script file")
	}
	scriptPath := fs.Arg(0)

	table, err := loadTable(*tablePath)
	if err != nil {
		return err
	}

	cmds, err := loadScript(scriptPath, table)
	if err != nil {
		return err
	}

	// Write to a temp-free destination only after resolution succeeded,
	// so a failed compile never leaves a partial artifact behind.
	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, createErr := os.Create(*outPath)
		if createErr != nil {
			return fmt.Errorf("creating %s: %w", *outPath, createErr)
		}
		defer f.Close()
		out = f
	}

	if err := cmds.Write(out); err != nil {
		return fmt.Errorf("writing command list: %w", err)
	}

	if *outPath != "" {
		fmt.Fprintf(os.Stderr, "compiled %d commands to %s\n", len(cmds), *outPath)
	}
	return nil
}

// loadTable reads and parses a circumstances table file.
func loadTable(path string) (*timing.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening circumstances table: %w", err)
	}
	defer f.Close()

	table, err := timing.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// loadScript parses a script file and unrolls it against the table.
func loadScript(path string, table *timing.Table) (sequence.Commands, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening script: %w", err)
	}
	defer f.Close()

	stmts, err := script.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cmds, err := script.Unroll(stmts, table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cmds, nil
}

// runSequence executes a compiled command list.
//
// Infrastructure extras (history database, MQTT, InfluxDB, monitor) are
// attached when configured but never block the run: on the day of the
// eclipse a dead broker must not stop the camera. Only a load or clock
// failure before the run starts produces a non-zero exit.
//
// Parameters:
//   - ctx: Context cancelled by SIGINT/SIGTERM
//   - args: Arguments after the "run" subcommand
//
// Returns:
//   - error: Load/clock failure, or nil once the run has completed
func runSequence(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	reference := fs.String("t", "", `simulated clock reference "Y/M/D H:M:S.t" (default real clock)`)
	noCamera := fs.Bool("no-camera", false, "dry run: log captures instead of driving the camera")
	noSound := fs.Bool("no-sound", false, "suppress PLAY commands")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("run requires one compiled sequence file")
	}
	seqPath := fs.Arg(0)

	log, cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info("starting eclipseq run",
		"version", version,
		"sequence", seqPath,
	)

	// Load the command list first: a bad artifact should fail before
	// any hardware or network is touched.
	f, err := os.Open(seqPath)
	if err != nil {
		return fmt.Errorf("opening sequence: %w", err)
	}
	cmds, err := sequence.Read(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", seqPath, err)
	}
	log.Info("sequence loaded", "commands", len(cmds))

	// Clock: real by default, simulated from the reference instant for
	// rehearsals.
	var clock sequencer.Clock = sequencer.RealClock{}
	if *reference != "" {
		sim, clockErr := sequencer.NewSimulatedClockFrom(*reference)
		if clockErr != nil {
			return fmt.Errorf("simulated clock: %w", clockErr)
		}
		clock = sim
		fmt.Printf("SIMULATED CLOCK: now = %s (offset %s)\n",
			sim.Now().Format("2006/01/02 15:04:05.0"), sim.Offset().Round(time.Second))
	}

	// Camera driver.
	var cam camera.Camera
	if *noCamera || cfg.Camera.Driver == "null" {
		cam = camera.NewNull(log)
		log.Info("camera disabled, using null driver")
	} else {
		gp, openErr := camera.OpenGPhoto2(ctx, camera.GPhoto2Config{
			Binary: cfg.Camera.Binary,
			Model:  cfg.Camera.Model,
			Port:   cfg.Camera.Port,
		}, log)
		if openErr != nil {
			return fmt.Errorf("opening camera: %w", openErr)
		}
		defer func() {
			if closeErr := gp.Close(); closeErr != nil {
				log.Error("error closing camera", "error", closeErr)
			}
		}()
		cam = gp
	}

	opts := sequencer.Options{
		Script:        seqPath,
		LateTolerance: cfg.LateTolerance(),
	}

	// Sound player.
	if !*noSound && cfg.Camera.Player != "" {
		opts.Player = camera.NewExecPlayer(cfg.Camera.Player, log)
	}

	// Run history database.
	var repo *history.Repository
	if cfg.Database.Path != "" {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if dbErr != nil {
			log.Warn("run history unavailable", "error", dbErr)
		} else {
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					log.Error("error closing database", "error", closeErr)
				}
			}()
			if migrateErr := db.Migrate(ctx); migrateErr != nil {
				log.Warn("run history unavailable", "error", migrateErr)
			} else {
				repo = history.NewRepository(db.DB)
				opts.Repo = repo
				log.Info("run history enabled", "path", db.Path())
			}
		}
	}

	// MQTT progress publishing.
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			log.Warn("MQTT unavailable", "error", mqttErr)
		} else {
			defer func() {
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
			mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
			opts.MQTT = mqttClient
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			)
		}
	}

	// InfluxDB dispatch-latency telemetry.
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			log.Warn("InfluxDB unavailable", "error", influxErr)
		} else {
			defer func() {
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			opts.Latency = influxClient
			log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL)
		}
	}

	// Progress monitor HTTP/WebSocket server.
	if cfg.Monitor.Enabled {
		srv, srvErr := monitor.New(monitor.Deps{
			Config:  cfg.Monitor,
			WS:      cfg.WebSocket,
			Logger:  log,
			History: repoOrNil(repo),
			Version: version,
		})
		if srvErr != nil {
			log.Warn("monitor unavailable", "error", srvErr)
		} else {
			opts.Hub = srv.WSHub()
			if startErr := srv.Start(ctx); startErr != nil {
				log.Warn("monitor unavailable", "error", startErr)
			} else {
				defer func() {
					if closeErr := srv.Close(); closeErr != nil {
						log.Error("error closing monitor", "error", closeErr)
					}
				}()
			}
		}
	}

	runner := sequencer.NewRunner(clock, cam, log, opts)
	run, err := runner.Run(ctx, cmds)
	if err != nil {
		return err
	}

	printSummary(run)
	return nil
}

// repoOrNil converts a possibly-nil concrete repository into the
// monitor's store interface without producing a non-nil interface
// wrapping a nil pointer.
func repoOrNil(repo *history.Repository) monitor.RunStore {
	if repo == nil {
		return nil
	}
	return repo
}

// printSummary writes the end-of-run report to stdout.
func printSummary(run *sequencer.Run) {
	fmt.Printf("\nrun %s %s: %d/%d dispatched", run.ID, run.Status, run.Done, run.Total)
	if run.Failed > 0 {
		fmt.Printf(", %d failed", run.Failed)
	}
	if run.Late > 0 {
		fmt.Printf(", %d late", run.Late)
	}
	if run.Skipped > 0 {
		fmt.Printf(", %d skipped", run.Skipped)
	}
	fmt.Println()
}

// runCameras lists cameras detected by gphoto2.
func runCameras(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cameras", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cameras, err := camera.List(ctx, cfg.Camera.Binary)
	if err != nil {
		return fmt.Errorf("detecting cameras: %w", err)
	}
	if len(cameras) == 0 {
		fmt.Println("no cameras detected")
		return nil
	}
	for _, c := range cameras {
		fmt.Println(c)
	}
	return nil
}

// loadConfig loads configuration and builds the configured logger.
//
// ECLIPSEQ_CONFIG overrides the default path. A missing default config
// file is not an error: the tool runs on built-in defaults so compile
// and dry runs work out of the box.
func loadConfig() (*logging.Logger, *config.Config, error) {
	path := os.Getenv("ECLIPSEQ_CONFIG")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	}

	return logging.New(cfg.Logging, version), cfg, nil
}
