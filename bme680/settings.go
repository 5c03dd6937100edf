// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"fmt"
	"strconv"
	"time"

	"periph.io/x/conn/v3/physic"
)

// PowerMode is the sensor operating mode.
type PowerMode uint8

// Possible power modes.
const (
	Sleep PowerMode = iota
	Forced
)

var powerModeCodes = map[PowerMode]uint8{
	Sleep:  0,
	Forced: 1,
}

func (p PowerMode) String() string {
	switch p {
	case Sleep:
		return "Sleep"
	case Forced:
		return "Forced"
	default:
		return "PowerMode(" + strconv.Itoa(int(p)) + ")"
	}
}

// Oversampling affects how much time is taken to measure each of temperature,
// pressure and humidity.
//
// The value is the number of samples taken, which is also the number of
// measurement cycles used to compute the conversion time.
//
// Each step of oversampling adds about 2ms to the latency, causing a slower
// response time to fast transients.
type Oversampling uint8

// Possible oversampling values.
const (
	Off  Oversampling = 0
	O1x  Oversampling = 1
	O2x  Oversampling = 2
	O4x  Oversampling = 4
	O8x  Oversampling = 8
	O16x Oversampling = 16
)

var oversamplingCodes = map[Oversampling]uint8{
	Off:  0,
	O1x:  1,
	O2x:  2,
	O4x:  3,
	O8x:  4,
	O16x: 5,
}

func (o Oversampling) String() string {
	if _, ok := oversamplingCodes[o]; !ok {
		return "Oversampling(" + strconv.Itoa(int(o)) + ")"
	}
	if o == Off {
		return "Off"
	}
	return strconv.Itoa(int(o)) + "x"
}

// cycles returns the number of measurement cycles.
func (o Oversampling) cycles() int {
	return int(o)
}

// Filter specifies the internal IIR filter to get steadier measurements
// for temperature and pressure.
//
// Enabling the IIR filter does not slow down the time a reading takes, but
// will slow down the response to changes in temperature and pressure.
type Filter uint8

// Possible filtering values. The value is the filter coefficient.
const (
	NoFilter Filter = 0
	F1       Filter = 1
	F3       Filter = 3
	F7       Filter = 7
	F15      Filter = 15
	F31      Filter = 31
	F63      Filter = 63
	F127     Filter = 127
)

var filterCodes = map[Filter]uint8{
	NoFilter: 0,
	F1:       1,
	F3:       2,
	F7:       3,
	F15:      4,
	F31:      5,
	F63:      6,
	F127:     7,
}

func (f Filter) String() string {
	if _, ok := filterCodes[f]; !ok {
		return "Filter(" + strconv.Itoa(int(f)) + ")"
	}
	if f == NoFilter {
		return "NoFilter"
	}
	return "F" + strconv.Itoa(int(f))
}

// HeaterProfile selects one of the 10 heater set points. Each stores its own
// target temperature and heating duration.
type HeaterProfile uint8

// Possible heater profiles.
const (
	Profile0 HeaterProfile = iota
	Profile1
	Profile2
	Profile3
	Profile4
	Profile5
	Profile6
	Profile7
	Profile8
	Profile9

	numProfiles = 10
)

func (h HeaterProfile) String() string {
	return "Profile" + strconv.Itoa(int(h))
}

func (h HeaterProfile) valid() bool {
	return h < numProfiles
}

// decode looks up the logical value registered for a register code.
func decode[T comparable](codes map[T]uint8, code uint8) (T, bool) {
	for v, c := range codes {
		if c == code {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Opts defines the options for the device.
//
// Recommended sensor settings for indoor air quality monitoring are
// temperature 2x, pressure 16x, humidity 1x with F3 filtering and a 320°C
// heater for 150ms.
type Opts struct {
	Temperature Oversampling
	Pressure    Oversampling
	Humidity    Oversampling
	Filter      Filter

	// HeaterProfile is selected for gas measurements. Its temperature and
	// duration are programmed from HeaterTemperature and HeaterDuration.
	HeaterProfile HeaterProfile
	// HeaterTemperature is the target in °C, clamped to [200, 400].
	HeaterTemperature int
	// HeaterDuration is between 1ms and 4032ms. A zero value leaves the
	// profile unprogrammed.
	HeaterDuration    time.Duration
	HeaterDisabled    bool
	GasDisabled       bool
	TemperatureOffset physic.Temperature
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Temperature:       O1x,
	Pressure:          O1x,
	Humidity:          O1x,
	Filter:            NoFilter,
	HeaterProfile:     Profile0,
	HeaterTemperature: 320,
	HeaterDuration:    150 * time.Millisecond,
}

func (o *Opts) validate() error {
	for _, v := range []Oversampling{o.Temperature, o.Pressure, o.Humidity} {
		if _, ok := oversamplingCodes[v]; !ok {
			return fmt.Errorf("bme680: invalid oversampling %d", v)
		}
	}
	if _, ok := filterCodes[o.Filter]; !ok {
		return fmt.Errorf("bme680: invalid filter %d", o.Filter)
	}
	if !o.HeaterProfile.valid() {
		return fmt.Errorf("bme680: invalid heater profile %d", o.HeaterProfile)
	}
	if o.HeaterDuration != 0 {
		if err := checkHeaterDuration(o.HeaterDuration); err != nil {
			return err
		}
	}
	return nil
}

// settings is the shadow of the configuration registers. It is only modified
// after the corresponding register write succeeded.
type settings struct {
	mode          PowerMode
	osrsT         Oversampling
	osrsP         Oversampling
	osrsH         Oversampling
	filter        Filter
	profile       HeaterProfile
	heaterOn      bool
	gasOn         bool
	heaterTemp    [numProfiles]int
	heaterDur     [numProfiles]time.Duration
	offsetTFine   int32
	offsetCelsius physic.Temperature
}

// SetTemperatureOversampling programs the temperature oversampling.
func (d *Dev) SetTemperatureOversampling(o Oversampling) error {
	return d.setOversampling(fieldOSRSTemp, o, &d.s.osrsT)
}

// SetPressureOversampling programs the pressure oversampling.
func (d *Dev) SetPressureOversampling(o Oversampling) error {
	return d.setOversampling(fieldOSRSPress, o, &d.s.osrsP)
}

// SetHumidityOversampling programs the humidity oversampling.
func (d *Dev) SetHumidityOversampling(o Oversampling) error {
	return d.setOversampling(fieldOSRSHum, o, &d.s.osrsH)
}

func (d *Dev) setOversampling(f field, o Oversampling, shadow *Oversampling) error {
	code, ok := oversamplingCodes[o]
	if !ok {
		return fmt.Errorf("bme680: invalid oversampling %d", o)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.setField(f, code); err != nil {
		return err
	}
	*shadow = o
	return nil
}

// TemperatureOversampling returns the last programmed temperature
// oversampling.
func (d *Dev) TemperatureOversampling() Oversampling {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.osrsT
}

// PressureOversampling returns the last programmed pressure oversampling.
func (d *Dev) PressureOversampling() Oversampling {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.osrsP
}

// HumidityOversampling returns the last programmed humidity oversampling.
func (d *Dev) HumidityOversampling() Oversampling {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.osrsH
}

// SetFilter programs the IIR filter.
func (d *Dev) SetFilter(f Filter) error {
	code, ok := filterCodes[f]
	if !ok {
		return fmt.Errorf("bme680: invalid filter %d", f)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.setField(fieldFilter, code); err != nil {
		return err
	}
	d.s.filter = f
	return nil
}

// Filter returns the last programmed IIR filter.
func (d *Dev) Filter() Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.filter
}

// SetHeaterEnabled turns the current injected to the gas heater on or off.
func (d *Dev) SetHeaterEnabled(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	// heat_off: setting the bit turns the heater off.
	var v uint8 = 1
	if on {
		v = 0
	}
	if err := d.setField(fieldHeatOff, v); err != nil {
		return err
	}
	d.s.heaterOn = on
	return nil
}

// HeaterEnabled reports whether the gas heater is on.
func (d *Dev) HeaterEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.heaterOn
}

// SetGasMeasurementEnabled enables gas conversions. They only start in
// forced mode.
func (d *Dev) SetGasMeasurementEnabled(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	var v uint8
	if on {
		v = 1
	}
	if err := d.setField(fieldRunGas, v); err != nil {
		return err
	}
	d.s.gasOn = on
	return nil
}

// GasMeasurementEnabled reports whether gas conversions are enabled.
func (d *Dev) GasMeasurementEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.gasOn
}

// SetHeaterProfile selects which of the 10 heater set points is used for the
// next gas conversion.
func (d *Dev) SetHeaterProfile(h HeaterProfile) error {
	if !h.valid() {
		return fmt.Errorf("bme680: invalid heater profile %d", h)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.setField(fieldNbConv, uint8(h)); err != nil {
		return err
	}
	d.s.profile = h
	return nil
}

// HeaterProfile returns the selected heater profile.
func (d *Dev) HeaterProfile() HeaterProfile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.profile
}

// SetTemperatureOffset adds delta to every temperature reading. Since the
// offset is applied to the fine temperature, pressure and humidity are
// compensated with the corrected temperature too.
//
// delta is used with a resolution of 0.01°C.
func (d *Dev) SetTemperatureOffset(delta physic.Temperature) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.s.offsetTFine = temperatureOffset(delta)
	d.s.offsetCelsius = delta
	return nil
}

// TemperatureOffset returns the offset set with SetTemperatureOffset.
func (d *Dev) TemperatureOffset() physic.Temperature {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.offsetCelsius
}

// temperatureOffset converts a temperature delta to the fine temperature
// scale: ((|centi°C|<<8)-128)/5 with the sign of delta.
func temperatureOffset(delta physic.Temperature) int32 {
	centi := int64(delta / (10 * physic.MilliKelvin))
	if centi == 0 {
		return 0
	}
	neg := centi < 0
	if neg {
		centi = -centi
	}
	v := int32(((centi << 8) - 128) / 5)
	if neg {
		return -v
	}
	return v
}

// SetPowerMode programs the power mode and waits until the device reports it.
//
// The register is polled every 10ms; ErrModeTimeout is returned if the mode
// is not reported after maxModePolls attempts.
func (d *Dev) SetPowerMode(m PowerMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.setPowerMode(m)
}

// PowerMode returns the last power mode set.
func (d *Dev) PowerMode() PowerMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.s.mode
}

// setPowerMode must be called with d.mu lock held.
func (d *Dev) setPowerMode(m PowerMode) error {
	code, ok := powerModeCodes[m]
	if !ok {
		return fmt.Errorf("bme680: invalid power mode %d", m)
	}
	if err := d.setField(fieldMode, code); err != nil {
		return err
	}
	d.s.mode = m
	for i := 0; i < maxModePolls; i++ {
		v, err := d.readByte(fieldMode.reg)
		if err != nil {
			return err
		}
		if got, ok := decode(powerModeCodes, fieldMode.get(v)); ok && got == m {
			return nil
		}
		doSleep(pollPeriod)
	}
	return fmt.Errorf("%w: wanted %s", ErrModeTimeout, m)
}
