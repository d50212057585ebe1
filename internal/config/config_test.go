package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/danielesteban/nyc/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Input, convey.ShouldEqual, "data/data.geojson")
			convey.So(cfg.Output, convey.ShouldEqual, "public/buildings.bin")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.SourceBuffer, convey.ShouldEqual, 1024)
			convey.So(cfg.HeightProperty, convey.ShouldEqual, "HEIGHT_ROOF")
			convey.So(cfg.LevelHeight, convey.ShouldEqual, 3.0)
			convey.So(cfg.Projection, convey.ShouldEqual, "none")
			convey.So(cfg.FilterRadiusKm, convey.ShouldEqual, 0.0)
			convey.So(cfg.StoreCapacity, convey.ShouldEqual, 0)
			convey.So(cfg.PendingCapacity, convey.ShouldEqual, 0)
			convey.So(cfg.ProgressIntervalMS, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty input", func(c *config.Config) { c.Input = "" }},
			{"empty output", func(c *config.Config) { c.Output = "" }},
			{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }},
			{"zero source buffer", func(c *config.Config) { c.SourceBuffer = 0 }},
			{"negative store capacity", func(c *config.Config) { c.StoreCapacity = -1 }},
			{"negative pending capacity", func(c *config.Config) { c.PendingCapacity = -1 }},
			{"zero level height", func(c *config.Config) { c.LevelHeight = 0 }},
			{"negative radius", func(c *config.Config) { c.FilterRadiusKm = -1 }},
			{"latitude out of range", func(c *config.Config) { c.FilterOriginLat = 91 }},
			{"longitude out of range", func(c *config.Config) { c.FilterOriginLon = -181 }},
			{"zero progress interval", func(c *config.Config) { c.ProgressIntervalMS = 0 }},
			{"unknown projection", func(c *config.Config) { c.Projection = "utm" }},
			{"unknown format", func(c *config.Config) { c.InputFormat = "shp" }},
		}

		convey.Convey("Then each fails with ErrInvalidConfig", func() {
			for _, tc := range cases {
				cfg := config.New(context.Background())
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
