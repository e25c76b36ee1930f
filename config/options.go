// Package config holds the run options of wavesim and the scenario files that
// override the default topology and flows.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is put in front of every environment variable name.
const EnvPrefix = "WAVESIM_"

// Options are the command line options. The env tag, after EnvPrefix, names
// the environment variable that provides the default of the flag.
type Options struct {
	PhyMode      string  `env:"PHY_MODE"`
	PacketSize   uint    `env:"PACKET_SIZE"`
	NumPackets   uint    `env:"NUM_PACKETS"`
	Interval     float64 `env:"INTERVAL"`
	Verbose      bool    `env:"VERBOSE"`
	Txp          float64 `env:"TXP"`
	Distance     float64 `env:"DISTANCE"`
	IntervalTime float64 `env:"INTERVAL_TIME"`

	Traffic     bool    `env:"TRAFFIC"`
	Aux         bool    `env:"AUX"`
	Scenario    string  `env:"SCENARIO"`
	Horizon     float64 `env:"HORIZON"`
	Record      string  `env:"RECORD"`
	Monitor     bool    `env:"MONITOR"`
	MonitorPort int     `env:"MONITOR_PORT"`
	OpenBrowser bool    `env:"OPEN_BROWSER"`
	ParallelIDs bool    `env:"PARALLEL_IDS"`
}

// DefaultOptions returns the options a run uses when nothing is set.
func DefaultOptions() Options {
	return Options{
		PhyMode:      "OfdmRate6MbpsBW10MHz",
		PacketSize:   1000,
		NumPackets:   20,
		Interval:     1.0,
		Txp:          29,
		Distance:     29,
		IntervalTime: 0.1,
		Horizon:      110,
	}
}

// LoadDotEnv loads the given .env files into the process environment.
// Variables that are already set are not overridden. Missing files are
// skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return nil
}

// ApplyEnv overrides the options with the variables found in environ. A nil
// environ reads the process environment. Unset variables keep their values.
func (o *Options) ApplyEnv(environ map[string]string) error {
	err := env.ParseWithOptions(o, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	return nil
}
