package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/voralis/envrisk/internal/adapters/http/api"
	"github.com/voralis/envrisk/internal/adapters/repository"
	service "github.com/voralis/envrisk/internal/app"
	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/internal/domain/report"
	"github.com/voralis/envrisk/internal/domain/risk"
	"github.com/voralis/envrisk/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockService provides canned answers for every dependency method and
// records the inputs it received.
type mockService struct {
	profileRec  repository.ProfileRecord
	profileErr  error
	report      report.Report
	generateErr error
	lastInput   service.GenerateInput
	reportRec   repository.ReportRecord
	percentile  float64
	reportErr   error
	unlockErr   error
	reading     service.DomainReading
	readingErr  error
	exports     []repository.ReportRecord
	exportErr   error
	stats       service.Stats
}

func (m *mockService) SubmitProfile(ctx context.Context, p profile.Profile) (repository.ProfileRecord, error) {
	if m.profileErr != nil {
		return repository.ProfileRecord{}, m.profileErr
	}
	return m.profileRec, nil
}

func (m *mockService) Profile(ctx context.Context, id string) (repository.ProfileRecord, error) {
	if m.profileErr != nil {
		return repository.ProfileRecord{}, m.profileErr
	}
	return m.profileRec, nil
}

func (m *mockService) GenerateReport(ctx context.Context, in service.GenerateInput) (report.Report, error) {
	m.lastInput = in
	if m.generateErr != nil {
		return report.Report{}, m.generateErr
	}
	return m.report, nil
}

func (m *mockService) Report(ctx context.Context, id string) (repository.ReportRecord, float64, error) {
	if m.reportErr != nil {
		return repository.ReportRecord{}, 0, m.reportErr
	}
	return m.reportRec, m.percentile, nil
}

func (m *mockService) Percentile(ctx context.Context, score float64) (float64, error) {
	return m.percentile, nil
}

func (m *mockService) UnlockReport(ctx context.Context, id string) error {
	return m.unlockErr
}

func (m *mockService) Reading(ctx context.Context, d reading.Domain, loc reading.Location) (service.DomainReading, error) {
	if m.readingErr != nil {
		return service.DomainReading{}, m.readingErr
	}
	return m.reading, nil
}

func (m *mockService) ExportReports(ctx context.Context, limit int) ([]repository.ReportRecord, error) {
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	return m.exports, nil
}

func (m *mockService) Stats(ctx context.Context) service.Stats {
	return m.stats
}

func sampleReport() report.Report {
	return report.Report{
		ID:          "rep-1",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Location:    reading.Location{Latitude: 40.7, Longitude: -74.0},
		RiskScore:   42.5,
		RiskLevel:   risk.LevelMedium,
	}
}

func serveMux(deps api.Dependencies) *http.ServeMux {
	srv := api.NewServer(deps)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServerRegister(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := serveMux(&mockService{})

		Convey("The health endpoint serves the metrics registry", func() {
			w := do(mux, "GET", "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("The stats endpoint returns JSON", func() {
			w := do(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
		})

		Convey("The dashboard serves HTML", func() {
			w := do(mux, "GET", "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "<title>envrisk dashboard</title>")
		})

		Convey("Unknown paths return 404", func() {
			w := do(mux, "GET", "/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPostProfile(t *testing.T) {
	Convey("Given the profiles endpoint", t, func() {
		deps := &mockService{
			profileRec: repository.ProfileRecord{
				ID:              "prof-1",
				LifestyleRisk:   18,
				RiskFactors:     []string{"current smoker"},
				PositiveFactors: []string{"active lifestyle"},
			},
		}
		mux := serveMux(deps)

		Convey("A valid questionnaire returns 201 with the preview", func() {
			w := do(mux, "POST", "/profiles", `{"age_range":"26-35","smoking_status":"never","activity_level":"moderate","work_environment":"indoor"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["profile_id"], ShouldEqual, "prof-1")
			So(body["lifestyle_risk"], ShouldEqual, 18)
		})

		Convey("Malformed JSON returns 400", func() {
			w := do(mux, "POST", "/profiles", `{"age_range":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("An enum violation names the field and value", func() {
			deps.profileErr = &profile.InvalidEnumError{Field: "smoking_status", Value: "vaping", Allowed: []string{"never", "former", "current"}}
			w := do(mux, "POST", "/profiles", `{"smoking_status":"vaping"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["error"], ShouldEqual, "invalid enum value")
			So(body["field"], ShouldEqual, "smoking_status")
			So(body["value"], ShouldEqual, "vaping")
		})

		Convey("GET on the collection path is not found", func() {
			w := do(mux, "GET", "/profiles", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetProfile(t *testing.T) {
	Convey("Given a stored profile", t, func() {
		deps := &mockService{
			profileRec: repository.ProfileRecord{ID: "prof-1", LifestyleRisk: 12},
		}
		mux := serveMux(deps)

		Convey("Lookup by id returns the record", func() {
			w := do(mux, "GET", "/profiles/prof-1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"profile_id":"prof-1"`)
		})

		Convey("Unknown ids return 404", func() {
			deps.profileErr = repository.ErrNotFound
			w := do(mux, "GET", "/profiles/ghost", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPostReport(t *testing.T) {
	Convey("Given the reports endpoint", t, func() {
		deps := &mockService{report: sampleReport(), percentile: 62.5}
		mux := serveMux(deps)

		Convey("A valid request returns 201 with the percentile attached", func() {
			w := do(mux, "POST", "/reports", `{"latitude":40.7,"longitude":-74.0,"request_id":"req-9","profile_id":"prof-1"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["report_id"], ShouldEqual, "rep-1")
			So(body["risk_level"], ShouldEqual, "medium")
			So(body["score_percentile"], ShouldEqual, 62.5)

			So(deps.lastInput.RequestKey, ShouldEqual, "req-9")
			So(deps.lastInput.ProfileID, ShouldEqual, "prof-1")
		})

		Convey("Missing latitude returns 400", func() {
			w := do(mux, "POST", "/reports", `{"longitude":-74.0}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "latitude")
		})

		Convey("Out-of-range coordinates surface the field", func() {
			deps.generateErr = &reading.OutOfRangeError{Field: "latitude", Value: 95, Min: -90, Max: 90}
			w := do(mux, "POST", "/reports", `{"latitude":95,"longitude":0,"profile_id":"p"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["field"], ShouldEqual, "latitude")
		})

		Convey("Conflicting profile inputs return 400", func() {
			deps.generateErr = service.ErrProfileConflict
			w := do(mux, "POST", "/reports", `{"latitude":1,"longitude":2,"profile_id":"p","lifestyle":{}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A stopped service returns 503", func() {
			deps.generateErr = service.ErrNotReady
			w := do(mux, "POST", "/reports", `{"latitude":1,"longitude":2,"profile_id":"p"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestGetReport(t *testing.T) {
	Convey("Given a stored report", t, func() {
		rep := sampleReport()
		deps := &mockService{
			reportRec:  repository.ReportRecord{ID: rep.ID, Report: rep},
			percentile: 80,
		}
		mux := serveMux(deps)

		Convey("Lookup returns the full report with percentile", func() {
			w := do(mux, "GET", "/reports/rep-1", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["report_id"], ShouldEqual, "rep-1")
			So(body["score_percentile"], ShouldEqual, 80)
			So(body["is_paid"], ShouldEqual, false)
		})

		Convey("Unknown ids return 404", func() {
			deps.reportErr = repository.ErrNotFound
			w := do(mux, "GET", "/reports/ghost", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestUnlockReport(t *testing.T) {
	Convey("Given the unlock endpoint", t, func() {
		deps := &mockService{}
		mux := serveMux(deps)

		Convey("Unlock acknowledges with the paid flag", func() {
			w := do(mux, "POST", "/reports/rep-1/unlock", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["report_id"], ShouldEqual, "rep-1")
			So(body["is_paid"], ShouldEqual, true)
		})

		Convey("Unknown reports return 404", func() {
			deps.unlockErr = repository.ErrNotFound
			w := do(mux, "POST", "/reports/ghost/unlock", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("GET on the unlock path is not found", func() {
			w := do(mux, "GET", "/reports/rep-1/unlock", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetReading(t *testing.T) {
	Convey("Given the readings endpoint", t, func() {
		deps := &mockService{
			reading: service.DomainReading{
				Domain: reading.DomainAir,
				Air:    &reading.AirReading{AQI: 120, PM25: 60, PM10: 40, NO2: 20, SO2: 5, O3: 30, CO: 0.4},
				Source: reading.SourceLive,
			},
		}
		mux := serveMux(deps)

		Convey("An air reading carries risk level and primary pollutant", func() {
			w := do(mux, "GET", "/readings/air?lat=40.7&lon=-74.0", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["risk_level"], ShouldEqual, "high")
			So(body["primary_pollutant"], ShouldEqual, "PM2.5")
			So(body["health_interpretation"], ShouldNotBeEmpty)
			So(body["source"], ShouldEqual, "live")
		})

		Convey("Soil readings include impacts and recommendations", func() {
			deps.reading = service.DomainReading{
				Domain: reading.DomainSoil,
				Soil: &reading.SoilReading{
					Type: reading.SoilClay, PH: 6.8, OrganicMatter: 4,
					Contamination: reading.LevelHigh,
				},
				Source: reading.SourceMock,
			}
			w := do(mux, "GET", "/readings/soil?lat=1&lon=2", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["risk_level"], ShouldEqual, "high")
			So(body["health_impacts"], ShouldNotBeEmpty)
			So(body["recommendations"], ShouldNotBeEmpty)
		})

		Convey("Missing coordinates return 400", func() {
			w := do(mux, "GET", "/readings/air?lat=40.7", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "lon")
		})

		Convey("Unknown domains return 400", func() {
			deps.readingErr = &reading.InvalidEnumError{Field: "domain", Value: "fire", Allowed: []string{"air", "soil", "water", "weather"}}
			w := do(mux, "GET", "/readings/fire?lat=1&lon=2", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Disabled domains return 404", func() {
			deps.readingErr = service.ErrDomainDisabled
			w := do(mux, "GET", "/readings/soil?lat=1&lon=2", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestExportReports(t *testing.T) {
	Convey("Given the export endpoint", t, func() {
		rep := sampleReport()
		deps := &mockService{
			exports: []repository.ReportRecord{{
				ID:        rep.ID,
				CreatedAt: rep.GeneratedAt,
				Latitude:  rep.Location.Latitude,
				Longitude: rep.Location.Longitude,
				RiskScore: rep.RiskScore,
				RiskLevel: rep.RiskLevel,
				Report:    rep,
			}},
		}
		mux := serveMux(deps)

		Convey("Export returns an xlsx attachment", func() {
			w := do(mux, "GET", "/reports/export", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "spreadsheetml")
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "attachment")
			// xlsx files are zip archives
			So(w.Body.Len(), ShouldBeGreaterThan, 4)
			So(w.Body.String()[:2], ShouldEqual, "PK")
		})

		Convey("A non-numeric limit returns 400", func() {
			w := do(mux, "GET", "/reports/export?limit=lots", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A zero limit returns 400", func() {
			w := do(mux, "GET", "/reports/export?limit=0", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given the stats endpoint", t, func() {
		deps := &mockService{
			stats: service.Stats{
				Started:        true,
				Reports:        7,
				Snapshots:      7,
				ReportsByLevel: map[string]int{"low": 3, "medium": 3, "high": 1},
				Workers:        4,
			},
		}
		mux := serveMux(deps)

		Convey("Stats round-trip as JSON", func() {
			w := do(mux, "GET", "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var got service.Stats
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.Reports, ShouldEqual, 7)
			So(got.ReportsByLevel["medium"], ShouldEqual, 3)
			So(got.Started, ShouldBeTrue)
		})
	})
}
