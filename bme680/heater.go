// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"fmt"
	"time"
)

const (
	minHeaterTemp     = 200
	maxHeaterTemp     = 400
	minHeaterDuration = time.Millisecond
	maxHeaterDuration = 4032 * time.Millisecond

	// defaultAmbient is used until the first temperature was measured.
	defaultAmbient = 25
)

// SetHeaterTemperature programs the target temperature in °C of profile. The
// value is clamped to [200, 400].
//
// The conversion depends on the ambient temperature, so it is best done after
// a first measurement. When programming a profile other than the selected
// one, select it with SetHeaterProfile.
func (d *Dev) SetHeaterTemperature(h HeaterProfile, celsius int) error {
	if !h.valid() {
		return fmt.Errorf("bme680: invalid heater profile %d", h)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.setHeaterTemperature(h, celsius)
}

// setHeaterTemperature must be called with d.mu lock held.
func (d *Dev) setHeaterTemperature(h HeaterProfile, celsius int) error {
	v := d.c.heaterResistance(celsius, d.ambient)
	if err := d.writeReg(regResHeat0+uint8(h), v); err != nil {
		return err
	}
	d.s.heaterTemp[h] = clampHeaterTemp(celsius)
	return nil
}

// HeaterTemperature returns the target temperature of profile in °C.
func (d *Dev) HeaterTemperature(h HeaterProfile) int {
	if !h.valid() {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.heaterTemp[h]
}

// SetHeaterDuration programs the heating duration of profile, between 1ms and
// 4032ms. The time taken by the temperature, pressure and humidity
// conversions is deducted from it, so it depends on the oversampling
// settings.
//
// Approximately 20-30ms are necessary for the heater to reach the intended
// target temperature.
func (d *Dev) SetHeaterDuration(h HeaterProfile, dur time.Duration) error {
	if !h.valid() {
		return fmt.Errorf("bme680: invalid heater profile %d", h)
	}
	if err := checkHeaterDuration(dur); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.setHeaterDuration(h, dur)
}

// setHeaterDuration must be called with d.mu lock held.
func (d *Dev) setHeaterDuration(h HeaterProfile, dur time.Duration) error {
	// The conversions may take all of the requested time.
	heat := max(dur-d.tphDuration(), 0)
	if err := d.writeReg(regGasWait0+uint8(h), encodeGasWait(heat)); err != nil {
		return err
	}
	d.s.heaterDur[h] = heat
	return nil
}

// HeaterDuration returns the heating time of profile, after the conversion
// time was deducted.
func (d *Dev) HeaterDuration(h HeaterProfile) time.Duration {
	if !h.valid() {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.heaterDur[h]
}

// MeasurementDuration returns the duration of a complete forced mode cycle
// with the current settings, including the heating time of the selected
// profile when gas measurements are enabled.
func (d *Dev) MeasurementDuration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measurementDuration()
}

// measurementDuration must be called with d.mu lock held.
func (d *Dev) measurementDuration() time.Duration {
	dur := d.tphDuration()
	if d.s.gasOn {
		dur += d.s.heaterDur[d.s.profile]
	}
	return dur
}

// tphDuration returns the time taken by the temperature, pressure and
// humidity conversions, including the gas conversion and the wake up time.
//
// It must be called with d.mu lock held.
func (d *Dev) tphDuration() time.Duration {
	return time.Duration(tphDurationMS(d.s.osrsT, d.s.osrsP, d.s.osrsH)) * time.Millisecond
}

// tphDurationMS returns the conversion time in ms.
func tphDurationMS(t, p, h Oversampling) int {
	cycles := t.cycles() + p.cycles() + h.cycles()
	us := cycles * 1963
	us += 477 * 4 // TPH switching
	us += 477 * 5 // gas measurement
	us += 500     // round to the closest ms
	us += 1000    // wake up
	return us / 1000
}

func checkHeaterDuration(dur time.Duration) error {
	if dur < minHeaterDuration || dur > maxHeaterDuration {
		return fmt.Errorf("bme680: heater duration %s out of range [%s, %s]", dur, minHeaterDuration, maxHeaterDuration)
	}
	return nil
}

// encodeGasWait encodes a duration in the gas_wait_x format: 6 bits of value
// and 2 bits of multiplication factor (1, 4, 16 or 64).
func encodeGasWait(dur time.Duration) uint8 {
	ms := int(dur / time.Millisecond)
	if ms <= 0 {
		return 0
	}
	if ms >= 0xFC0 {
		return 0xFF
	}
	factor := uint8(0)
	for ms > 0x3F {
		ms /= 4
		factor++
	}
	return uint8(ms) + factor*64
}

func clampHeaterTemp(celsius int) int {
	return min(max(celsius, minHeaterTemp), maxHeaterTemp)
}

// heaterResistance returns the res_heat_x register value for a target
// temperature in °C, given the ambient temperature in °C.
func (c *calibration) heaterResistance(celsius int, ambient int32) uint8 {
	temp := int32(clampHeaterTemp(celsius))
	var1 := ((int64(ambient) * int64(c.gh[2])) / 1000) * 256
	var2 := (c.gh[0] + 784) * (((((c.gh[1] + 154009) * temp * 5) / 100) + 3276800) / 10)
	var3 := var1 + int64(var2/2)
	var4 := var3 / int64(c.resHeatRange+4)
	var5 := 131*c.resHeatVal + 65536
	resX100 := ((var4 / int64(var5)) - 250) * 34
	return uint8((resX100 + 50) / 100)
}
