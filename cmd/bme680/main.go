// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bme680 reads a Bosch BME680 environmental sensor.
package main

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/sonixh/envsense/bme680"
	"github.com/sonixh/envsense/internal/embdbus"
)

var (
	flagBus      string
	flagAddr     uint16
	flagBackend  string
	flagLogLevel string

	flagOsrsT      uint8
	flagOsrsP      uint8
	flagOsrsH      uint8
	flagFilter     uint8
	flagProfile    uint8
	flagHeaterTemp int
	flagHeaterDur  time.Duration
	flagNoHeater   bool
	flagNoGas      bool
	flagTempOffset float64
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bme680",
		Short: "Read a BME680 temperature, pressure, humidity and gas sensor",
		Long: `bme680 talks to a Bosch BME680 over I²C, either through periph.io host
drivers or through embd.

Gas resistance readings feed a running baseline of the last 50 readings,
from which an indoor air quality score is derived. It is 100 for 40%
humidity and a gas resistance at or above the baseline, and is not bounded
for humidity readings outside of 0-100%. Let the sensor run for a few
minutes before trusting the score.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
				return errors.Wrap(err, "--log-level")
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&flagBus, "bus", "", "I²C bus name (periph) or number (embd); empty selects the first bus")
	f.Uint16Var(&flagAddr, "addr", 0x76, "I²C address, 0x76 or 0x77")
	f.StringVar(&flagBackend, "backend", "periph", "bus backend: periph or embd")
	f.StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn or error")

	d := bme680.DefaultOpts
	f.Uint8Var(&flagOsrsT, "osrs-t", uint8(d.Temperature), "temperature oversampling: 0, 1, 2, 4, 8 or 16")
	f.Uint8Var(&flagOsrsP, "osrs-p", uint8(d.Pressure), "pressure oversampling: 0, 1, 2, 4, 8 or 16")
	f.Uint8Var(&flagOsrsH, "osrs-h", uint8(d.Humidity), "humidity oversampling: 0, 1, 2, 4, 8 or 16")
	f.Uint8Var(&flagFilter, "filter", uint8(d.Filter), "IIR filter coefficient: 0, 1, 3, 7, 15, 31, 63 or 127")
	f.Uint8Var(&flagProfile, "heater-profile", uint8(d.HeaterProfile), "heater profile, 0 to 9")
	f.IntVar(&flagHeaterTemp, "heater-temp", d.HeaterTemperature, "heater target temperature in °C, 200 to 400")
	f.DurationVar(&flagHeaterDur, "heater-duration", d.HeaterDuration, "heater duration, 1ms to 4032ms")
	f.BoolVar(&flagNoHeater, "no-heater", false, "turn the gas heater off")
	f.BoolVar(&flagNoGas, "no-gas", false, "disable gas measurements")
	f.Float64Var(&flagTempOffset, "temp-offset", 0, "temperature offset in °C")

	rootCmd.AddCommand(newReadCmd(), newWatchCmd(), newConfigCmd())
	return rootCmd
}

func opts() *bme680.Opts {
	return &bme680.Opts{
		Temperature:       bme680.Oversampling(flagOsrsT),
		Pressure:          bme680.Oversampling(flagOsrsP),
		Humidity:          bme680.Oversampling(flagOsrsH),
		Filter:            bme680.Filter(flagFilter),
		HeaterProfile:     bme680.HeaterProfile(flagProfile),
		HeaterTemperature: flagHeaterTemp,
		HeaterDuration:    flagHeaterDur,
		HeaterDisabled:    flagNoHeater,
		GasDisabled:       flagNoGas,
		TemperatureOffset: physic.Temperature(flagTempOffset * float64(physic.Kelvin)),
	}
}

// openBus opens the I²C bus selected by --backend and --bus.
func openBus() (i2c.BusCloser, error) {
	switch flagBackend {
	case "periph":
		if _, err := host.Init(); err != nil {
			return nil, errors.Wrap(err, "periph host init")
		}
		b, err := i2creg.Open(flagBus)
		return b, errors.Wrapf(err, "open I²C bus %q", flagBus)
	case "embd":
		n := uint64(1)
		if flagBus != "" {
			var err error
			if n, err = strconv.ParseUint(flagBus, 10, 8); err != nil {
				return nil, errors.Wrap(err, "--bus must be a bus number with embd")
			}
		}
		return embdbus.Open(byte(n))
	default:
		return nil, errors.Errorf("unknown backend %q", flagBackend)
	}
}

// openDev opens the bus and initializes the sensor. Closing the device
// closes the bus.
func openDev() (*bme680.Dev, error) {
	b, err := openBus()
	if err != nil {
		return nil, err
	}
	logger.Debug("bus opened", "backend", flagBackend, "bus", b.String())
	d, err := bme680.NewI2C(b, flagAddr, opts())
	if err != nil {
		if cerr := b.Close(); cerr != nil {
			logger.Warn("closing bus", "error", cerr)
		}
		return nil, errors.Wrapf(err, "bme680 at 0x%02X on %s", flagAddr, b)
	}
	logger.Debug("device initialized", "dev", d.String(), "cycle", d.MeasurementDuration())
	return d, nil
}

func closeDev(d *bme680.Dev) {
	if err := d.Close(); err != nil {
		logger.Warn("closing device", "error", err)
	}
}
