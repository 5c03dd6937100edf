// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/physic"

	"github.com/sonixh/envsense/bme680"
)

var flagSamples int

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Take a measurement and print it",
		Args:  cobra.NoArgs,
		RunE:  runRead,
	}
	cmd.Flags().IntVarP(&flagSamples, "samples", "n", 1, "number of measurements taken, only the last one is printed")
	return cmd
}

func runRead(cmd *cobra.Command, args []string) error {
	if flagSamples < 1 {
		return errors.Errorf("--samples must be at least 1, got %d", flagSamples)
	}
	d, err := openDev()
	if err != nil {
		return err
	}
	defer closeDev(d)

	var r bme680.Reading
	for i := 0; i < flagSamples; i++ {
		if r, err = d.Measure(); err != nil {
			return errors.Wrap(err, "measure")
		}
		if r.Stale {
			logger.Warn("no new data, reusing the previous reading", "sample", i)
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), readingPanel(r, d.GasBaseline()))
	return nil
}

func readingPanel(r bme680.Reading, baseline physic.ElectricResistance) string {
	rows := []row{
		plain("Temperature", r.Temperature.String()),
		plain("Pressure", r.Pressure.String()),
		plain("Humidity", r.Humidity.String()),
		plain("Gas resistance", r.GasResistance.String()),
		plain("Gas baseline", baseline.String()),
		{label: "Air quality", value: strconv.FormatFloat(r.AirQuality, 'f', 1, 64), style: airQualityStyle(r.AirQuality)},
		plain("Gas valid", strconv.FormatBool(r.GasValid)),
		plain("Heater stable", strconv.FormatBool(r.HeaterStable)),
	}
	if r.Stale {
		rows = append(rows, row{label: "Stale", value: "true", style: styleValue.Foreground(colorPoor)})
	}
	return panel(fmt.Sprintf("BME680 #%d", r.MeasureIndex), rows)
}
