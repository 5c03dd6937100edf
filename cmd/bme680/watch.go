// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/sonixh/envsense/bme680"
	"github.com/sonixh/envsense/internal/telemetry"
)

var (
	flagInterval time.Duration
	flagCount    int
	flagRedis    string
	flagRedisKey string
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Measure periodically, optionally exporting to Redis",
		Long: `watch takes a measurement every interval and logs it.

With --redis, every reading is stored in a Redis hash and the names of the
fields that changed are published on the channel of the same name.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	f := cmd.Flags()
	f.DurationVarP(&flagInterval, "interval", "i", 3*time.Second, "time between measurements")
	f.IntVarP(&flagCount, "count", "c", 0, "stop after this many measurements, 0 runs until interrupted")
	f.StringVar(&flagRedis, "redis", "", "Redis server address, e.g. 127.0.0.1:6379")
	f.StringVar(&flagRedisKey, "redis-key", "bme680", "Redis hash key and channel")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDev()
	if err != nil {
		return err
	}
	defer closeDev(d)
	if cycle := d.MeasurementDuration(); flagInterval < cycle {
		return errors.Errorf("--interval %s is shorter than a measurement cycle (%s)", flagInterval, cycle)
	}

	var pub *telemetry.Publisher
	if flagRedis != "" {
		client := redis.NewClient(&redis.Options{Addr: flagRedis})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Wrapf(err, "redis %s", flagRedis)
		}
		pub = telemetry.New(client, flagRedisKey, logger)
		logger.Info("exporting to redis", "addr", flagRedis, "key", flagRedisKey)
	}
	return watch(ctx, d, pub)
}

func watch(ctx context.Context, d *bme680.Dev, pub *telemetry.Publisher) error {
	t := time.NewTicker(flagInterval)
	defer t.Stop()
	for n := 0; flagCount == 0 || n < flagCount; n++ {
		r, err := d.Measure()
		if err != nil {
			return errors.Wrap(err, "measure")
		}
		baseline := d.GasBaseline()
		logger.Info("reading",
			"temperature", r.Temperature,
			"pressure", r.Pressure,
			"humidity", r.Humidity,
			"gas", r.GasResistance,
			"baseline", baseline,
			"air_quality", r.AirQuality,
			"stale", r.Stale)
		if pub != nil {
			if err := pub.Publish(ctx, r, baseline); err != nil {
				logger.Error("export failed", "error", err)
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
	return nil
}
