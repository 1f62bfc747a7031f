package config_test

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/voralis/envrisk/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 15_000)
			convey.So(cfg.Upstream.TimeoutMS, convey.ShouldEqual, 5_000)
			convey.So(cfg.Upstream.OpenWeather.BaseURL, convey.ShouldEqual, "https://api.openweathermap.org/data/2.5")
			convey.So(cfg.Upstream.OpenWeather.APIKey, convey.ShouldBeEmpty)
			convey.So(cfg.Upstream.Soil.Enabled, convey.ShouldBeTrue)
			convey.So(cfg.Upstream.Water.Enabled, convey.ShouldBeTrue)
			convey.So(cfg.Upstream.Weather.Enabled, convey.ShouldBeTrue)
			convey.So(cfg.Cache.Enabled, convey.ShouldBeFalse)
			convey.So(cfg.Cache.RedisAddr, convey.ShouldEqual, "localhost:6379")
			convey.So(cfg.Cache.TTLMS, convey.ShouldEqual, 600_000)
			convey.So(cfg.Storage.Driver, convey.ShouldEqual, "memory")
			convey.So(cfg.Analytics.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.Analytics.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.Analytics.Kafka.Enabled, convey.ShouldBeFalse)
			convey.So(cfg.Analytics.Kafka.Topic, convey.ShouldEqual, "envrisk.reports")
			convey.So(cfg.IdempotencySize, convey.ShouldEqual, 100_000)
			convey.So(cfg.MaxExportRows, convey.ShouldEqual, 1_000)
		})

		convey.Convey("Then the default weight table should be complete", func() {
			convey.So(cfg.Scoring.Weights.AirOnly, convey.ShouldResemble, map[string]float64{"air": 1.0})
			convey.So(cfg.Scoring.Weights.AirSoil, convey.ShouldResemble, map[string]float64{"air": 0.7, "soil": 0.3})
			convey.So(cfg.Scoring.Weights.AirWater, convey.ShouldResemble, map[string]float64{"air": 0.7, "water": 0.3})
			convey.So(cfg.Scoring.Weights.Full, convey.ShouldResemble, map[string]float64{"air": 0.5, "water": 0.3, "soil": 0.2})
		})

		convey.Convey("Then the defaults should pass validation", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
