// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package telemetry exports BME680 readings to Redis.
//
// Each reading is stored in a hash. The name of every field whose value
// changed since the previous reading is then published on a channel named
// after the hash key, so subscribers only fetch what they need.
package telemetry

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"periph.io/x/conn/v3/physic"

	"github.com/sonixh/envsense/bme680"
)

// Hash field names.
const (
	FieldTemperature   = "temperature"
	FieldPressure      = "pressure"
	FieldHumidity      = "humidity"
	FieldGasResistance = "gas-resistance"
	FieldAirQuality    = "air-quality"
	FieldGasBaseline   = "gas-baseline"
	FieldGasValid      = "gas-valid"
	FieldHeaterStable  = "heater-stable"
	FieldStale         = "stale"
)

// Publisher writes readings to a Redis hash.
type Publisher struct {
	c    redis.Cmdable
	key  string
	log  *slog.Logger
	last map[string]string
}

// New returns a Publisher storing readings under key.
func New(c redis.Cmdable, key string, log *slog.Logger) *Publisher {
	return &Publisher{c: c, key: key, log: log}
}

// Fields formats a reading as hash fields.
//
// Temperature is in °C, pressure in hPa, humidity in %RH and gas resistance
// in Ω.
func Fields(r bme680.Reading, baseline physic.ElectricResistance) map[string]string {
	return map[string]string{
		FieldTemperature:   strconv.FormatFloat(float64(r.Temperature-physic.ZeroCelsius)/float64(physic.Celsius), 'f', 2, 64),
		FieldPressure:      strconv.FormatFloat(float64(r.Pressure)/float64(physic.Pascal)/100, 'f', 2, 64),
		FieldHumidity:      strconv.FormatFloat(float64(r.Humidity)/float64(physic.PercentRH), 'f', 3, 64),
		FieldGasResistance: strconv.FormatInt(int64(r.GasResistance/physic.Ohm), 10),
		FieldAirQuality:    strconv.FormatFloat(r.AirQuality, 'f', 1, 64),
		FieldGasBaseline:   strconv.FormatInt(int64(baseline/physic.Ohm), 10),
		FieldGasValid:      strconv.FormatBool(r.GasValid),
		FieldHeaterStable:  strconv.FormatBool(r.HeaterStable),
		FieldStale:         strconv.FormatBool(r.Stale),
	}
}

// Publish stores r and notifies the changed fields.
func (p *Publisher) Publish(ctx context.Context, r bme680.Reading, baseline physic.ElectricResistance) error {
	fields := Fields(r, baseline)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]interface{}, 0, 2*len(names))
	for _, name := range names {
		values = append(values, name, fields[name])
	}
	if err := p.c.HSet(ctx, p.key, values...).Err(); err != nil {
		return errors.Wrapf(err, "telemetry: update %s", p.key)
	}
	for _, name := range names {
		if old, ok := p.last[name]; ok && old == fields[name] {
			continue
		}
		if err := p.c.Publish(ctx, p.key, name).Err(); err != nil {
			return errors.Wrapf(err, "telemetry: publish %s to %s", name, p.key)
		}
		p.log.Debug("published", "key", p.key, "field", name, "value", fields[name])
	}
	p.last = fields
	return nil
}
