package service_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/voralis/envrisk/internal/adapters/repository"
	"github.com/voralis/envrisk/internal/adapters/upstream"
	"github.com/voralis/envrisk/internal/adapters/upstream/synth"
	service "github.com/voralis/envrisk/internal/app"
	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testProfile() profile.Profile {
	return profile.Profile{
		AgeRange: profile.Age26to35,
		Smoking:  profile.SmokingNever,
		Activity: profile.ActivityModerate,
		Work:     profile.WorkIndoor,
		Diet:     profile.DietGood,
	}
}

func fullFetcher() *upstream.Fetcher {
	mock := synth.New()
	return upstream.NewFetcher(mock,
		upstream.WithSoil(mock, reading.SourceMock),
		upstream.WithWater(mock, reading.SourceMock),
		upstream.WithWeather(mock, reading.SourceMock),
	)
}

func startedService(opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithFetcher(fullFetcher())}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithFetcher(fullFetcher()))

		Convey("Operations before Start fail with ErrNotReady", func() {
			_, err := svc.Profile(context.Background(), "p-1")
			So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)

			_, err = svc.GenerateReport(context.Background(), service.GenerateInput{})
			So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
		})

		Convey("Start is idempotent and Stop shuts down cleanly", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()
			svc.Stop()
		})

		Convey("A service without a fetcher refuses to start", func() {
			So(service.New().Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestSubmitProfile(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		Reset(svc.Stop)

		Convey("A valid questionnaire is stored with its preview", func() {
			rec, err := svc.SubmitProfile(context.Background(), testProfile())
			So(err, ShouldBeNil)
			So(rec.ID, ShouldNotBeEmpty)
			So(rec.LifestyleRisk, ShouldBeGreaterThanOrEqualTo, 0)

			got, err := svc.Profile(context.Background(), rec.ID)
			So(err, ShouldBeNil)
			So(got.Profile.AgeRange, ShouldEqual, profile.Age26to35)
		})

		Convey("An invalid questionnaire is rejected with a typed error", func() {
			p := testProfile()
			p.Smoking = "vaping"
			_, err := svc.SubmitProfile(context.Background(), p)
			So(errors.Is(err, profile.ErrInvalidEnum), ShouldBeTrue)
		})

		Convey("Unknown profile ids return ErrNotFound", func() {
			_, err := svc.Profile(context.Background(), "missing")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestGenerateReport(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		Reset(svc.Stop)
		loc := reading.Location{Latitude: 40.7128, Longitude: -74.006}
		p := testProfile()

		Convey("An inline profile produces a persisted report", func() {
			rep, err := svc.GenerateReport(context.Background(), service.GenerateInput{
				Location: loc,
				Profile:  &p,
			})
			So(err, ShouldBeNil)
			So(rep.ID, ShouldNotBeEmpty)
			So(rep.RiskScore, ShouldBeBetweenOrEqual, 0, 100)
			So(string(rep.RiskLevel), ShouldBeIn, "low", "medium", "high")
			So(len(rep.Recommendations), ShouldBeLessThanOrEqualTo, 8)

			rec, pct, err := svc.Report(context.Background(), rep.ID)
			So(err, ShouldBeNil)
			So(rec.RiskScore, ShouldEqual, rep.RiskScore)
			So(pct, ShouldBeBetweenOrEqual, 0, 100)
		})

		Convey("A stored profile id is resolved and recorded", func() {
			prec, err := svc.SubmitProfile(context.Background(), p)
			So(err, ShouldBeNil)

			rep, err := svc.GenerateReport(context.Background(), service.GenerateInput{
				Location:  loc,
				ProfileID: prec.ID,
			})
			So(err, ShouldBeNil)
			So(rep.ProfileID, ShouldEqual, prec.ID)
		})

		Convey("Inline profile and profile id together conflict", func() {
			_, err := svc.GenerateReport(context.Background(), service.GenerateInput{
				Location:  loc,
				Profile:   &p,
				ProfileID: "p-1",
			})
			So(errors.Is(err, service.ErrProfileConflict), ShouldBeTrue)
		})

		Convey("Neither profile nor profile id is rejected", func() {
			_, err := svc.GenerateReport(context.Background(), service.GenerateInput{Location: loc})
			So(errors.Is(err, service.ErrProfileRequired), ShouldBeTrue)
		})

		Convey("An unknown profile id propagates ErrNotFound", func() {
			_, err := svc.GenerateReport(context.Background(), service.GenerateInput{
				Location:  loc,
				ProfileID: "missing",
			})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("An invalid location is rejected", func() {
			_, err := svc.GenerateReport(context.Background(), service.GenerateInput{
				Location: reading.Location{Latitude: 91, Longitude: 0},
				Profile:  &p,
			})
			So(errors.Is(err, reading.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("A repeated request key replays the stored report", func() {
			in := service.GenerateInput{Location: loc, Profile: &p, RequestKey: "req-1"}

			first, err := svc.GenerateReport(context.Background(), in)
			So(err, ShouldBeNil)

			second, err := svc.GenerateReport(context.Background(), in)
			So(err, ShouldBeNil)
			So(second.ID, ShouldEqual, first.ID)
			So(second.GeneratedAt.Equal(first.GeneratedAt), ShouldBeTrue)
		})

		Convey("Distinct request keys produce distinct reports", func() {
			first, err := svc.GenerateReport(context.Background(), service.GenerateInput{Location: loc, Profile: &p, RequestKey: "a"})
			So(err, ShouldBeNil)
			second, err := svc.GenerateReport(context.Background(), service.GenerateInput{Location: loc, Profile: &p, RequestKey: "b"})
			So(err, ShouldBeNil)
			So(second.ID, ShouldNotEqual, first.ID)
		})
	})
}

func TestUnlockReport(t *testing.T) {
	Convey("Given a service with a generated report", t, func() {
		svc := startedService()
		Reset(svc.Stop)
		p := testProfile()

		rep, err := svc.GenerateReport(context.Background(), service.GenerateInput{
			Location: reading.Location{Latitude: 40.7128, Longitude: -74.006},
			Profile:  &p,
		})
		So(err, ShouldBeNil)
		So(rep.Paid, ShouldBeFalse)

		Convey("Unlock marks it paid and repeats are no-ops", func() {
			So(svc.UnlockReport(context.Background(), rep.ID), ShouldBeNil)
			So(svc.UnlockReport(context.Background(), rep.ID), ShouldBeNil)

			rec, _, err := svc.Report(context.Background(), rep.ID)
			So(err, ShouldBeNil)
			So(rec.Paid, ShouldBeTrue)
			So(rec.Report.Paid, ShouldBeTrue)
			So(rec.RiskScore, ShouldEqual, rep.RiskScore)
		})

		Convey("Unlocking an unknown report fails", func() {
			So(errors.Is(svc.UnlockReport(context.Background(), "missing"), repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestReading(t *testing.T) {
	Convey("Given a started service with all domains", t, func() {
		svc := startedService()
		Reset(svc.Stop)
		loc := reading.Location{Latitude: 40.7128, Longitude: -74.006}

		Convey("Each domain resolves to its reading", func() {
			air, err := svc.Reading(context.Background(), reading.DomainAir, loc)
			So(err, ShouldBeNil)
			So(air.Air, ShouldNotBeNil)
			So(air.Source, ShouldEqual, reading.SourceMock)

			soil, err := svc.Reading(context.Background(), reading.DomainSoil, loc)
			So(err, ShouldBeNil)
			So(soil.Soil, ShouldNotBeNil)

			water, err := svc.Reading(context.Background(), reading.DomainWater, loc)
			So(err, ShouldBeNil)
			So(water.Water, ShouldNotBeNil)

			weather, err := svc.Reading(context.Background(), reading.DomainWeather, loc)
			So(err, ShouldBeNil)
			So(weather.Weather, ShouldNotBeNil)
		})

		Convey("Invalid coordinates are rejected", func() {
			_, err := svc.Reading(context.Background(), reading.DomainAir, reading.Location{Longitude: 181})
			So(errors.Is(err, reading.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("Unknown domains are rejected", func() {
			_, err := svc.Reading(context.Background(), reading.Domain("fire"), loc)
			So(errors.Is(err, reading.ErrInvalidEnum), ShouldBeTrue)
		})
	})

	Convey("Given a service with only the air domain", t, func() {
		svc := startedService(service.WithFetcher(upstream.NewFetcher(synth.New())))
		Reset(svc.Stop)

		Convey("Disabled domains return ErrDomainDisabled", func() {
			_, err := svc.Reading(context.Background(), reading.DomainSoil,
				reading.Location{Latitude: 40.7, Longitude: -74})
			So(errors.Is(err, service.ErrDomainDisabled), ShouldBeTrue)
		})
	})
}

func TestExportAndStats(t *testing.T) {
	Convey("Given a service with a few reports", t, func() {
		svc := startedService()
		Reset(svc.Stop)
		p := testProfile()

		for _, loc := range []reading.Location{
			{Latitude: 40.7128, Longitude: -74.006},
			{Latitude: 34.0522, Longitude: -118.2437},
			{Latitude: 51.5074, Longitude: -0.1278},
		} {
			_, err := svc.GenerateReport(context.Background(), service.GenerateInput{Location: loc, Profile: &p})
			So(err, ShouldBeNil)
		}

		Convey("ExportReports returns recent records", func() {
			recs, err := svc.ExportReports(context.Background(), 2)
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 2)

			all, err := svc.ExportReports(context.Background(), 0)
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 3)
		})

		Convey("Stats reflects the generated reports", func() {
			st := svc.Stats(context.Background())
			So(st.Started, ShouldBeTrue)
			So(st.Reports, ShouldEqual, 3)
			total := 0
			for _, n := range st.ReportsByLevel {
				total += n
			}
			So(total, ShouldEqual, 3)
		})
	})
}
