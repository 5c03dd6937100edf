// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bme680 controls a Bosch BME680 temperature, pressure, humidity and
// gas sensor over I²C.
//
// The bme680.Dev type implements the physic.SenseEnv interface. In addition
// to the physic.Env values, each measurement cycle reports the compensated gas
// resistance and an indoor air quality score derived from it.
//
// # Air quality
//
// The score combines the distance of the relative humidity from 40% (weighted
// 25%) and the ratio of the gas resistance to a running baseline (weighted
// 75%). The baseline is the mean of the last 50 gas resistance readings and
// starts zero-filled, so the score is only meaningful after a burn-in of 50
// measurements.
//
// # Stale measurements
//
// A measurement cycle that does not report new data after 10 polls
// is not an error: Measure returns the previous reading with Stale set, while
// Sense and the single value accessors return ErrStale alongside it.
//
// # More details
//
// See https://periph.io/device/bmxx80/ for more details about the device
// family.
//
// # Datasheet
//
// The URLs tend to rot, visit https://www.bosch-sensortec.com if they become
// invalid.
//
// https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bme680-ds001.pdf
//
// C Reference code can be found from Bosch at
// https://github.com/boschsensortec/BME68x_SensorAPI
package bme680
