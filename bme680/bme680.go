// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

var (
	// ErrChipID is returned by NewI2C when the device at the address is not a
	// BME680.
	ErrChipID = errors.New("bme680: unexpected chip id")
	// ErrStale is returned when a measurement cycle did not report new data.
	// The returned values are those of the previous measurement.
	ErrStale = errors.New("bme680: measurement timed out, reading is stale")
	// ErrModeTimeout is returned when the device does not report the
	// requested power mode.
	ErrModeTimeout = errors.New("bme680: power mode not acknowledged")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("bme680: device closed")
)

// NewI2C returns an object that communicates over I²C to BME680 environmental
// sensor.
//
// The address must be 0x76 or 0x77. The value depends on the SDO pin.
//
// The device is soft reset, its calibration is read and it is configured
// according to opts. If the bus implements io.Closer, Close closes it.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	switch addr {
	case 0x76, 0x77:
	default:
		return nil, errors.New("bme680: given address not supported by device")
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, ambient: defaultAmbient}
	if c, ok := b.(io.Closer); ok {
		d.closer = c
	}
	if err := d.makeDev(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// Dev is a handle to an initialized BME680 device.
type Dev struct {
	d      conn.Conn
	closer io.Closer

	mu       sync.Mutex
	c        calibration
	s        settings
	ambient  int32
	baseline GasBaseline
	last     Reading
	closed   bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

func (d *Dev) String() string {
	return fmt.Sprintf("BME680{%s}", d.d)
}

// Measure triggers a forced mode measurement cycle and returns its result.
//
// When the device does not report new data within 100ms, the previous reading
// is returned with Stale set and a nil error.
func (d *Dev) Measure() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Reading{}, ErrClosed
	}
	return d.measure()
}

// Sense requests a one time measurement as °C, kPa and % of relative humidity.
//
// It returns ErrStale along the previous values when the measurement timed
// out.
func (d *Dev) Sense(e *physic.Env) error {
	r, err := d.Measure()
	if err != nil {
		return err
	}
	*e = r.Env
	if r.Stale {
		return ErrStale
	}
	return nil
}

// SenseContinuous returns measurements as °C, kPa and % of relative humidity
// on a continuous basis.
//
// The application must call Halt() to stop the sensing when done to stop the
// sensor and close the channel.
//
// It's the responsibility of the caller to retrieve the values from the
// channel as fast as possible, otherwise the interval may not be respected.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	d.stopSensing()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if cycle := d.measurementDuration(); interval < cycle {
		return nil, fmt.Errorf("bme680: interval %s is shorter than a measurement cycle (%s)", interval, cycle)
	}
	sensing := make(chan physic.Env)
	d.stop = make(chan struct{})
	d.wg.Add(1)
	go func(stop <-chan struct{}) {
		defer d.wg.Done()
		defer close(sensing)
		d.sensingContinuous(interval, sensing, stop)
	}(d.stop)
	return sensing, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Pressure = physic.Pascal
	e.Humidity = 10 * physic.MicroRH
}

// Temperature triggers a measurement and returns the temperature.
func (d *Dev) Temperature() (physic.Temperature, error) {
	r, err := d.reading()
	return r.Temperature, err
}

// Pressure triggers a measurement and returns the pressure.
func (d *Dev) Pressure() (physic.Pressure, error) {
	r, err := d.reading()
	return r.Pressure, err
}

// Humidity triggers a measurement and returns the relative humidity.
func (d *Dev) Humidity() (physic.RelativeHumidity, error) {
	r, err := d.reading()
	return r.Humidity, err
}

// GasResistance triggers a measurement and returns the gas resistance.
func (d *Dev) GasResistance() (physic.ElectricResistance, error) {
	r, err := d.reading()
	return r.GasResistance, err
}

// AirQuality triggers a measurement and returns the air quality score.
func (d *Dev) AirQuality() (float64, error) {
	r, err := d.reading()
	return r.AirQuality, err
}

// GasBaseline returns the current gas resistance baseline.
func (d *Dev) GasBaseline() physic.ElectricResistance {
	d.mu.Lock()
	defer d.mu.Unlock()
	return physic.ElectricResistance(d.baseline.Baseline() * float64(physic.Ohm))
}

// Halt stops the BME680 from acquiring measurements as initiated by
// SenseContinuous() and puts it to sleep.
//
// It is recommended to call this function before terminating the process to
// reduce idle power usage and a goroutine leak.
func (d *Dev) Halt() error {
	d.stopSensing()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.setPowerMode(Sleep)
}

// Close halts the device and releases the bus when it is owned by the device.
// The Dev must not be used afterward.
func (d *Dev) Close() error {
	err := d.Halt()
	if errors.Is(err, ErrClosed) {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.s = settings{}
	d.last = Reading{}
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
		d.closer = nil
	}
	return err
}

func (d *Dev) makeDev(opts *Opts) error {
	if err := opts.validate(); err != nil {
		return err
	}
	d.mu.Lock()
	id, err := d.readByte(regChipID)
	if err == nil && id != chipID {
		err = fmt.Errorf("%w: 0x%02X", ErrChipID, id)
	}
	if err == nil {
		err = d.writeReg(regSoftReset, cmdSoftReset)
	}
	if err == nil {
		doSleep(resetPeriod)
		err = d.setPowerMode(Sleep)
	}
	if err == nil {
		d.c, err = d.readCalibration()
	}
	d.mu.Unlock()
	if err != nil {
		return err
	}

	// Humidity oversampling must be set before the temperature and pressure
	// ones for the change to be effective.
	if err := d.SetHumidityOversampling(opts.Humidity); err != nil {
		return err
	}
	if err := d.SetTemperatureOversampling(opts.Temperature); err != nil {
		return err
	}
	if err := d.SetPressureOversampling(opts.Pressure); err != nil {
		return err
	}
	if err := d.SetFilter(opts.Filter); err != nil {
		return err
	}
	if err := d.SetHeaterEnabled(!opts.HeaterDisabled); err != nil {
		return err
	}
	if err := d.SetGasMeasurementEnabled(!opts.GasDisabled); err != nil {
		return err
	}
	if opts.HeaterDuration != 0 {
		if err := d.SetHeaterTemperature(opts.HeaterProfile, opts.HeaterTemperature); err != nil {
			return err
		}
		if err := d.SetHeaterDuration(opts.HeaterProfile, opts.HeaterDuration); err != nil {
			return err
		}
	}
	if err := d.SetHeaterProfile(opts.HeaterProfile); err != nil {
		return err
	}
	return d.SetTemperatureOffset(opts.TemperatureOffset)
}

func (d *Dev) reading() (Reading, error) {
	r, err := d.Measure()
	if err == nil && r.Stale {
		err = ErrStale
	}
	return r, err
}

// stopSensing stops the goroutine started by SenseContinuous, if any.
func (d *Dev) stopSensing() {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}
}

func (d *Dev) sensingContinuous(interval time.Duration, sensing chan<- physic.Env, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		var e physic.Env
		if err := d.Sense(&e); err != nil && !errors.Is(err, ErrStale) {
			return
		}
		select {
		case sensing <- e:
		case <-stop:
			return
		}
		select {
		case <-stop:
			return
		case <-t.C:
		}
	}
}

var doSleep = time.Sleep

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
