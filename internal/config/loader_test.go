package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/danielesteban/nyc/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Input, convey.ShouldEqual, "data/data.geojson")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BUILDINGS_INPUT", "nyc.osm.pbf")
			_ = os.Setenv("BUILDINGS_WORKER_COUNT", "16")
			_ = os.Setenv("BUILDINGS_LEVEL_HEIGHT", "3.5")
			_ = os.Setenv("BUILDINGS_PROJECTION", "mercator")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Input, convey.ShouldEqual, "nyc.osm.pbf")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.LevelHeight, convey.ShouldEqual, 3.5)
				convey.So(cfg.Projection, convey.ShouldEqual, "mercator")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := createTempConfigFile(t, `
input: data/footprints.geojson
output: out/buildings.bin
worker_count: 24
filter_origin_lat: 40.7829
filter_origin_lon: -73.9654
filter_radius_km: 2.5
`)
			_ = os.Setenv("BUILDINGS_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Input, convey.ShouldEqual, "data/footprints.geojson")
				convey.So(cfg.Output, convey.ShouldEqual, "out/buildings.bin")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.FilterRadiusKm, convey.ShouldEqual, 2.5)
				convey.So(cfg.FilterOriginLon, convey.ShouldEqual, -73.9654)
				convey.So(cfg.SourceBuffer, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := createTempConfigFile(t, "output: out/buildings.bin\nworker_count: 24\n")
			_ = os.Setenv("BUILDINGS_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.LoadFile(ctx, path)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Output, convey.ShouldEqual, "out/buildings.bin")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			path := createTempConfigFile(t, `invalid: yaml: content: [`)

			cfg, err := config.LoadFile(ctx, path)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			cfg, err := config.LoadFile(ctx, "/non/existent/file.yaml")

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty input", func() {
			_ = os.Setenv("BUILDINGS_INPUT", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "input must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"BUILDINGS_CONFIG",
		"BUILDINGS_INPUT",
		"BUILDINGS_WORKER_COUNT",
		"BUILDINGS_LEVEL_HEIGHT",
		"BUILDINGS_PROJECTION",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "buildings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
