// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sonixh/envsense/bme680"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Configure the sensor and print the resulting settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDev()
			if err != nil {
				return err
			}
			defer closeDev(d)
			fmt.Fprintln(cmd.OutOrStdout(), configPanel(d))
			return nil
		},
	}
}

func configPanel(d *bme680.Dev) string {
	h := d.HeaterProfile()
	return panel(d.String(), []row{
		plain("Power mode", d.PowerMode().String()),
		plain("Temperature", d.TemperatureOversampling().String()),
		plain("Pressure", d.PressureOversampling().String()),
		plain("Humidity", d.HumidityOversampling().String()),
		plain("Filter", d.Filter().String()),
		plain("Heater", strconv.FormatBool(d.HeaterEnabled())),
		plain("Gas", strconv.FormatBool(d.GasMeasurementEnabled())),
		plain("Heater profile", h.String()),
		plain("Heater target", strconv.Itoa(d.HeaterTemperature(h))+"°C"),
		plain("Heating time", d.HeaterDuration(h).String()),
		plain("Cycle", d.MeasurementDuration().String()),
		plain("Temp. offset", d.TemperatureOffset().String()),
	})
}
