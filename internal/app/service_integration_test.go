package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	snapqueue "github.com/voralis/envrisk/internal/adapters/mq/queue"
	"github.com/voralis/envrisk/internal/adapters/repository"
	service "github.com/voralis/envrisk/internal/app"
	"github.com/voralis/envrisk/internal/domain/reading"
)

func waitForSnapshots(ctx context.Context, store repository.SnapshotStore, want int) bool {
	deadline := time.After(5 * time.Second)
	for {
		if n, err := store.CountSnapshots(ctx); err == nil && n >= want {
			return true
		}
		select {
		case <-deadline:
			n, _ := store.CountSnapshots(ctx)
			return n >= want
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a fully wired service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithFetcher(fullFetcher()),
			service.WithReportStore(store),
			service.WithProfileStore(store),
			service.WithSnapshotStore(store),
			service.WithQueue(snapqueue.NewInMemoryQueue(snapqueue.WithCapacity(100))),
		)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		p := testProfile()

		Convey("Generated reports flow through to the snapshot archive", func() {
			locations := []reading.Location{
				{Latitude: 40.7128, Longitude: -74.006},
				{Latitude: 34.0522, Longitude: -118.2437},
				{Latitude: 48.8566, Longitude: 2.3522},
			}
			for _, loc := range locations {
				_, err := svc.GenerateReport(ctx, service.GenerateInput{Location: loc, Profile: &p})
				So(err, ShouldBeNil)
			}

			So(waitForSnapshots(ctx, store, len(locations)), ShouldBeTrue)

			st := svc.Stats(ctx)
			So(st.Reports, ShouldEqual, 3)
			So(st.Snapshots, ShouldEqual, 3)
			So(st.DroppedSnapshots, ShouldEqual, 0)
		})

		Convey("Percentiles rank reports against each other", func() {
			ids := make([]string, 0, 5)
			for i := 0; i < 5; i++ {
				rep, err := svc.GenerateReport(ctx, service.GenerateInput{
					Location: reading.Location{Latitude: float64(10 + i*7), Longitude: float64(-30 - i*11)},
					Profile:  &p,
				})
				So(err, ShouldBeNil)
				ids = append(ids, rep.ID)
			}

			for _, id := range ids {
				_, pct, err := svc.Report(ctx, id)
				So(err, ShouldBeNil)
				So(pct, ShouldBeBetweenOrEqual, 0, 100)
			}
		})

		Convey("Concurrent generation is safe and all reports persist", func() {
			const n = 20
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := svc.GenerateReport(ctx, service.GenerateInput{
						Location:   reading.Location{Latitude: float64(i), Longitude: float64(-i)},
						Profile:    &p,
						RequestKey: fmt.Sprintf("concurrent-%d", i),
					})
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				So(err, ShouldBeNil)
			}

			st := svc.Stats(ctx)
			So(st.Reports, ShouldEqual, n)
		})

		Convey("Stop drains the queue before shutting down", func() {
			for i := 0; i < 10; i++ {
				_, err := svc.GenerateReport(ctx, service.GenerateInput{
					Location: reading.Location{Latitude: float64(i), Longitude: float64(i)},
					Profile:  &p,
				})
				So(err, ShouldBeNil)
			}

			svc.Stop()

			n, err := store.CountSnapshots(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 10)
		})
	})
}
