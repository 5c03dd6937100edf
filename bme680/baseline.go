// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

// GasBurnIn is the number of gas resistance readings averaged into the
// baseline.
const GasBurnIn = 50

const (
	// humidityBaseline is an optimal indoor humidity in %RH.
	humidityBaseline = 40.0
	// humidityWeighting is the share of humidity in the air quality score,
	// gas takes the rest.
	humidityWeighting = 0.25
)

// GasBaseline is a running average over the last GasBurnIn gas resistance
// readings, in Ω.
//
// The window starts filled with zeros. The zero value is ready to use.
type GasBaseline struct {
	buf [GasBurnIn]uint32
	pos int
	sum int64
}

// Add replaces the oldest reading with v.
func (g *GasBaseline) Add(v uint32) {
	g.sum += int64(v) - int64(g.buf[g.pos])
	g.buf[g.pos] = v
	g.pos = (g.pos + 1) % GasBurnIn
}

// Baseline returns the mean of the window.
func (g *GasBaseline) Baseline() float64 {
	return float64(g.sum) / GasBurnIn
}

// AirQuality returns the indoor air quality score for a gas resistance in Ω
// and a relative humidity in %, given the gas baseline in Ω.
//
// A humidity of 40% scores 25 and a gas resistance at or above the baseline
// scores 75. The sum is not bounded to [0, 100] for humidity outside of
// [0, 100]%.
func AirQuality(gas uint32, humidity, baseline float64) float64 {
	return humidityScore(humidity) + gasScore(gas, baseline)
}

func humidityScore(humidity float64) float64 {
	offset := humidity - humidityBaseline
	if offset > 0 {
		return (100 - humidityBaseline - offset) / (100 - humidityBaseline) * (humidityWeighting * 100)
	}
	return (humidityBaseline + offset) / humidityBaseline * (humidityWeighting * 100)
}

func gasScore(gas uint32, baseline float64) float64 {
	if baseline-float64(gas) > 0 {
		return float64(gas) / baseline * (100 - humidityWeighting*100)
	}
	return 100 - humidityWeighting*100
}
