// Package cmd provides the command-line interface for wavesim.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/wavesim/config"
	"github.com/sarchlab/wavesim/logging"
	"github.com/sarchlab/wavesim/sim"
	"github.com/sarchlab/wavesim/simulation"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"go.uber.org/zap"
)

var opts = config.DefaultOptions()

// rootCmd runs the simulation when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wavesim",
	Short: "Run the three node OCB wifi and CSMA traffic scenario.",
	Long: `wavesim builds three nodes on an OCB wifi channel and a CSMA bus, ` +
		`starts a packet sink on every node, and prints one line for every ` +
		`packet a sink receives. Every flag can also be set with a ` +
		`WAVESIM_<FLAG> environment variable or in a .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.OutOrStdout(), opts)
	},
}

func registerFlags(cmd *cobra.Command, o *config.Options) {
	f := cmd.Flags()

	f.StringVar(&o.PhyMode, "phyMode", o.PhyMode, "Wifi Phy mode")
	f.UintVar(&o.PacketSize, "packetSize", o.PacketSize,
		"size of application packet sent")
	f.UintVar(&o.NumPackets, "numPackets", o.NumPackets,
		"number of packets generated")
	f.Float64Var(&o.Interval, "interval", o.Interval,
		"interval (seconds) between packets")
	f.BoolVar(&o.Verbose, "verbose", o.Verbose, "turn on all log components")
	f.Float64Var(&o.Txp, "txp", o.Txp, "transmit power (dBm)")
	f.Float64Var(&o.Distance, "distance", o.Distance,
		"distance (m) between node 0 and node 1")
	f.Float64Var(&o.IntervalTime, "intervalTime", o.IntervalTime,
		"delay (seconds) of the auxiliary flow after 1 s")

	f.BoolVar(&o.Traffic, "traffic", o.Traffic,
		"broadcast numPackets packets from node 0 starting at 1 s")
	f.BoolVar(&o.Aux, "aux", o.Aux,
		"send \"test\" from node 2 to node 1 at 1 + intervalTime")
	f.StringVar(&o.Scenario, "scenario", o.Scenario,
		"YAML file that overrides positions, flows, and horizon")
	f.Float64Var(&o.Horizon, "horizon", o.Horizon,
		"virtual time (seconds) the simulation stops at")
	f.StringVar(&o.Record, "record", o.Record,
		"record frames into <name>.sqlite3")
	f.BoolVar(&o.Monitor, "monitor", o.Monitor, "start the monitoring server")
	f.IntVar(&o.MonitorPort, "monitor-port", o.MonitorPort,
		"port of the monitoring server, 0 picks a free port")
	f.BoolVar(&o.OpenBrowser, "open-browser", o.OpenBrowser,
		"open the monitor in a browser, implies --monitor")
	f.BoolVar(&o.ParallelIDs, "parallel-ids", o.ParallelIDs,
		"generate IDs with xid")
}

func run(out io.Writer, o config.Options) error {
	logger := logging.New(o.Verbose)
	defer func() { _ = logger.Sync() }()

	if o.ParallelIDs {
		sim.UseParallelIDGenerator()
	}

	scenario := config.DefaultScenario(o)
	if o.Scenario != "" {
		var err error

		scenario, err = config.LoadScenarioFile(o.Scenario, scenario)
		if err != nil {
			logger.Error("loading scenario", zap.Error(err))
			return err
		}
	}

	b := simulation.MakeBuilder().
		WithLogger(logger).
		WithOutput(out).
		WithPhyMode(o.PhyMode).
		WithTxPowerDbm(o.Txp).
		WithScenario(scenario)

	if o.Verbose {
		b = b.WithEventLogging()
	}

	if o.Record != "" {
		b = b.WithRecording(o.Record)
	}

	if o.Monitor || o.OpenBrowser {
		b = b.WithMonitoring(o.MonitorPort)
	}

	s, err := b.Build()
	if err != nil {
		logger.Error("building simulation", zap.Error(err))
		return err
	}
	defer s.Terminate()

	if o.OpenBrowser {
		if err := s.Monitor().OpenBrowser(); err != nil {
			logger.Warn("opening browser", zap.Error(err))
		}
	}

	if err := s.Run(); err != nil {
		logger.Error("simulation aborted", zap.Error(err))
		return err
	}

	return nil
}

func loadOptions(o *config.Options) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	return o.ApplyEnv(nil)
}

// Execute reads the environment, registers the flags with the values found
// there as defaults, and runs the command. It exits the program.
func Execute() {
	if err := loadOptions(&opts); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		atexit.Exit(1)
	}

	registerFlags(rootCmd, &opts)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
