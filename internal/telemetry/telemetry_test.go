// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"periph.io/x/conn/v3/physic"

	"github.com/sonixh/envsense/bme680"
)

// fakeRedis records HSet and Publish. Other methods panic.
type fakeRedis struct {
	redis.Cmdable
	hash      map[string]string
	published []string
	err       error
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "hset", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	if f.hash == nil {
		f.hash = map[string]string{}
	}
	for i := 0; i < len(values); i += 2 {
		f.hash[values[i].(string)] = values[i+1].(string)
	}
	cmd.SetVal(int64(len(values) / 2))
	return cmd
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	f.published = append(f.published, channel+" "+message.(string))
	cmd.SetVal(1)
	return cmd
}

func testReading() bme680.Reading {
	r := bme680.Reading{
		GasResistance: 499500 * physic.Ohm,
		AirQuality:    99.615625,
		GasValid:      true,
		HeaterStable:  true,
	}
	r.Temperature = 2623*10*physic.MilliCelsius + physic.ZeroCelsius
	r.Pressure = 92304 * physic.Pascal
	r.Humidity = 39385 * 10 * physic.MicroRH
	return r
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFields(t *testing.T) {
	want := map[string]string{
		FieldTemperature:   "26.23",
		FieldPressure:      "923.04",
		FieldHumidity:      "39.385",
		FieldGasResistance: "499500",
		FieldAirQuality:    "99.6",
		FieldGasBaseline:   "9990",
		FieldGasValid:      "true",
		FieldHeaterStable:  "true",
		FieldStale:         "false",
	}
	if got := Fields(testReading(), 9990*physic.Ohm); !reflect.DeepEqual(got, want) {
		t.Fatalf("\n%v\n%v", got, want)
	}
}

func TestPublisher_Publish(t *testing.T) {
	f := &fakeRedis{}
	p := New(f, "bme680", discard())
	ctx := context.Background()
	r := testReading()
	if err := p.Publish(ctx, r, 9990*physic.Ohm); err != nil {
		t.Fatal(err)
	}
	if len(f.hash) != 9 || len(f.published) != 9 {
		t.Fatalf("%v\n%v", f.hash, f.published)
	}
	if f.published[0] != "bme680 air-quality" {
		t.Fatal(f.published)
	}

	f.published = nil
	r.Temperature += physic.Kelvin
	if err := p.Publish(ctx, r, 9990*physic.Ohm); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f.published, []string{"bme680 temperature"}) {
		t.Fatal(f.published)
	}
	if f.hash[FieldTemperature] != "27.23" {
		t.Fatal(f.hash[FieldTemperature])
	}

	f.published = nil
	if err := p.Publish(ctx, r, 9990*physic.Ohm); err != nil {
		t.Fatal(err)
	}
	if len(f.published) != 0 {
		t.Fatal(f.published)
	}
}

func TestPublisher_Publish_error(t *testing.T) {
	cause := errors.New("connection refused")
	f := &fakeRedis{err: cause}
	p := New(f, "bme680", discard())
	if err := p.Publish(context.Background(), testReading(), 0); errors.Cause(err) != cause {
		t.Fatal(err)
	}
	if len(f.published) != 0 {
		t.Fatal(f.published)
	}
}
