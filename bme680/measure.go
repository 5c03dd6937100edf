// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

const (
	pollPeriod   = 10 * time.Millisecond
	resetPeriod  = 10 * time.Millisecond
	maxDataPolls = 10
	maxModePolls = 50
)

// Reading is the result of one forced mode measurement cycle.
type Reading struct {
	physic.Env
	GasResistance physic.ElectricResistance
	// AirQuality is the indoor air quality score, see AirQuality.
	AirQuality float64

	GasValid     bool
	HeaterStable bool
	// GasIndex is the heater profile used for the gas conversion.
	GasIndex     uint8
	MeasureIndex uint8

	// Stale is set when the device did not report new data in time. All the
	// other fields are then those of the previous reading.
	Stale bool
}

// rawFields is the decoded content of the field_0 register block.
type rawFields struct {
	newData    bool
	gasIndex   uint8
	measIndex  uint8
	press      int32
	temp       int32
	hum        int32
	gas        uint16
	gasRange   uint8
	gasValid   bool
	heatStable bool
}

func decodeFields(b []byte) rawFields {
	return rawFields{
		// The bit is set during the conversion and cleared once new data is
		// available.
		newData:   b[0]&maskNewData == 0,
		gasIndex:  b[0] & maskGasIndex,
		measIndex: b[1],
		// These values are 20 bits as per doc.
		press: int32(b[2])<<12 | int32(b[3])<<4 | int32(b[4])>>4,
		temp:  int32(b[5])<<12 | int32(b[6])<<4 | int32(b[7])>>4,
		// This value is 16 bits as per doc.
		hum: int32(b[8])<<8 | int32(b[9]),
		// And this one 10 bits.
		gas:        uint16(b[13])<<2 | uint16(b[14])>>6,
		gasRange:   b[14] & maskGasRange,
		gasValid:   b[14]&maskGasValid != 0,
		heatStable: b[14]&maskHeatStable != 0,
	}
}

// measure triggers a forced mode cycle and polls for its result.
//
// It must be called with d.mu lock held.
func (d *Dev) measure() (Reading, error) {
	if err := d.setPowerMode(Forced); err != nil {
		return Reading{}, err
	}
	var buf [fieldLength]byte
	for i := 0; i < maxDataPolls; i++ {
		if i != 0 {
			doSleep(pollPeriod)
		}
		if err := d.readReg(regField0, buf[:]); err != nil {
			return Reading{}, err
		}
		if f := decodeFields(buf[:]); f.newData {
			d.last = d.compensate(f)
			return d.last, nil
		}
	}
	r := d.last
	r.Stale = true
	return r, nil
}

// compensate converts the raw values. Temperature is done first since
// pressure and humidity depend on tFine.
//
// It must be called with d.mu lock held.
func (d *Dev) compensate(f rawFields) Reading {
	t, tFine := d.c.compensateTemp(f.temp, d.s.offsetTFine)
	p := d.c.compensatePressure(f.press, tFine)
	h := d.c.compensateHumidity(f.hum, tFine)
	g := d.c.compensateGas(f.gas, f.gasRange)

	d.ambient = t / 100
	d.baseline.Add(g)

	r := Reading{
		GasResistance: physic.ElectricResistance(g) * physic.Ohm,
		AirQuality:    AirQuality(g, float64(h)/1000, d.baseline.Baseline()),
		GasValid:      f.gasValid,
		HeaterStable:  f.heatStable,
		GasIndex:      f.gasIndex,
		MeasureIndex:  f.measIndex,
	}
	// Convert CentiCelsius to Kelvin.
	r.Temperature = physic.Temperature(t)*10*physic.MilliCelsius + physic.ZeroCelsius
	r.Pressure = physic.Pressure(p) * physic.Pascal
	// Convert thousandth of %RH.
	r.Humidity = physic.RelativeHumidity(h) * 10 * physic.MicroRH
	return r
}
