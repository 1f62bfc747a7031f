package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
	"github.com/voralis/envrisk/internal/adapters/http/api"
	"github.com/voralis/envrisk/internal/adapters/http/swagger"
	service "github.com/voralis/envrisk/internal/app"
	"github.com/voralis/envrisk/internal/config"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/pkg/logger"
	"github.com/voralis/envrisk/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testLocation() reading.Location {
	return reading.Location{Latitude: 40.7, Longitude: -74.0}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("ENVRISK_ADDR", ":8080")
			_ = os.Setenv("ENVRISK_ANALYTICS__QUEUE_SIZE", "1000")
			_ = os.Setenv("ENVRISK_ANALYTICS__WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("ENVRISK_ADDR")
				_ = os.Unsetenv("ENVRISK_ANALYTICS__QUEUE_SIZE")
				_ = os.Unsetenv("ENVRISK_ANALYTICS__WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Analytics.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.Analytics.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := service.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := service.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				registry := prometheus.NewRegistry()
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(registry))
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestFetcherConstruction(t *testing.T) {
	convey.Convey("Given fetcher construction from configuration", t, func() {
		ctx := context.Background()

		convey.Convey("Without an API key the synthetic providers serve everything", func() {
			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)

			f, err := buildFetcher(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(f, convey.ShouldNotBeNil)
		})

		convey.Convey("Domain toggles control which domains are wired", func() {
			_ = os.Setenv("ENVRISK_UPSTREAM__SOIL__ENABLED", "true")
			_ = os.Setenv("ENVRISK_UPSTREAM__WATER__ENABLED", "true")
			defer func() {
				_ = os.Unsetenv("ENVRISK_UPSTREAM__SOIL__ENABLED")
				_ = os.Unsetenv("ENVRISK_UPSTREAM__WATER__ENABLED")
			}()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)

			f, err := buildFetcher(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)

			soil, src := f.Soil(ctx, testLocation())
			convey.So(soil, convey.ShouldNotBeNil)
			convey.So(string(src), convey.ShouldEqual, "mock")
		})
	})
}

func TestStoreConstruction(t *testing.T) {
	convey.Convey("Given storage selection from configuration", t, func() {
		ctx := context.Background()

		convey.Convey("The memory driver needs no external service", func() {
			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Storage.Driver, convey.ShouldEqual, "memory")

			stores, cleanup, err := buildStores(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(stores.reports, convey.ShouldNotBeNil)
			convey.So(stores.profiles, convey.ShouldNotBeNil)
			convey.So(stores.snapshots, convey.ShouldNotBeNil)
			cleanup()
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should stop with its context", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given main application integration", t, func() {
		convey.Convey("When wiring all components from configuration", func() {
			_ = os.Setenv("ENVRISK_ADDR", ":8080")
			defer func() { _ = os.Unsetenv("ENVRISK_ADDR") }()

			convey.Convey("Then all components should work together", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)

				fetcher, err := buildFetcher(ctx, cfg, logger.Get())
				convey.So(err, convey.ShouldBeNil)

				stores, cleanup, err := buildStores(ctx, cfg, logger.Get())
				convey.So(err, convey.ShouldBeNil)
				defer cleanup()

				svc := service.New(
					service.WithConfig(cfg),
					service.WithFetcher(fetcher),
					service.WithReportStore(stores.reports),
					service.WithProfileStore(stores.profiles),
					service.WithSnapshotStore(stores.snapshots),
				)
				convey.So(svc, convey.ShouldNotBeNil)

				server := api.NewServer(svc)
				convey.So(server, convey.ShouldNotBeNil)

				mux := http.NewServeMux()
				server.Register(ctx, mux)
				swagger.Register(ctx, mux)

				svc.Stop()
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("ENVRISK_STORAGE__DRIVER", "oracle")
			defer func() { _ = os.Unsetenv("ENVRISK_STORAGE__DRIVER") }()

			convey.Convey("Then configuration loading should fail", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
