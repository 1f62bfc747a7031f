// Package openweather implements the live air and weather providers on
// top of the OpenWeather data API.
package openweather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/voralis/envrisk/internal/domain/reading"
)

// Sentinel kinds for client construction and responses.
var (
	ErrNoAPIKey    = errors.New("openweather api key missing")
	ErrUpstream    = errors.New("openweather request failed")
	ErrEmptyResult = errors.New("openweather returned no data")
)

// Client configuration constants.
const (
	defaultTimeout = 10 * time.Second
	retryCount     = 2
	retryWait      = 500 * time.Millisecond
	bodySnippetLen = 200
)

// epaScale approximates the provider's 1-5 air quality index on the EPA
// 0-500 scale. Unknown values map to 100.
var epaScale = map[int]int{1: 25, 2: 75, 3: 125, 4: 200, 5: 350}

const epaScaleDefault = 100

// Client calls the OpenWeather air_pollution and weather endpoints.
type Client struct {
	http   *resty.Client
	apiKey string
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout overrides the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// New builds a client for the given base URL. The API key is mandatory:
// without it the service should run on synthesized readings instead.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetRetryCount(retryCount).
			SetRetryWaitTime(retryWait).
			SetHeader("Accept", "application/json"),
		apiKey: apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// airPollutionResponse mirrors GET /air_pollution.
type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   float64 `json:"co"`
			NO2  float64 `json:"no2"`
			O3   float64 `json:"o3"`
			SO2  float64 `json:"so2"`
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}

// weatherResponse mirrors GET /weather with units=metric.
type weatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int `json:"visibility"`
}

// FetchAir retrieves the current air pollution reading. The provider's
// 1-5 index is mapped onto the EPA scale here, once; downstream scoring
// never re-converts. CO arrives in ug/m3 and is stored as mg/m3.
func (c *Client) FetchAir(ctx context.Context, loc reading.Location) (*reading.AirReading, error) {
	var out airPollutionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   formatCoord(loc.Latitude),
			"lon":   formatCoord(loc.Longitude),
			"appid": c.apiKey,
		}).
		SetResult(&out).
		Get("/air_pollution")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	if len(out.List) == 0 {
		return nil, fmt.Errorf("%w: air_pollution list empty", ErrEmptyResult)
	}

	entry := out.List[0]
	aqi, ok := epaScale[entry.Main.AQI]
	if !ok {
		aqi = epaScaleDefault
	}

	return &reading.AirReading{
		AQI:  aqi,
		PM25: round1(entry.Components.PM25),
		PM10: round1(entry.Components.PM10),
		CO:   round2(entry.Components.CO / 1000),
		NO2:  round1(entry.Components.NO2),
		SO2:  round1(entry.Components.SO2),
		O3:   round1(entry.Components.O3),
	}, nil
}

// FetchWeather retrieves the current conditions in metric units.
func (c *Client) FetchWeather(ctx context.Context, loc reading.Location) (*reading.WeatherReading, error) {
	var out weatherResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   formatCoord(loc.Latitude),
			"lon":   formatCoord(loc.Longitude),
			"appid": c.apiKey,
			"units": "metric",
		}).
		SetResult(&out).
		Get("/weather")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}

	w := &reading.WeatherReading{
		TemperatureC:  out.Main.Temp,
		FeelsLikeC:    out.Main.FeelsLike,
		Humidity:      out.Main.Humidity,
		PressureHPa:   out.Main.Pressure,
		WindSpeed:     out.Wind.Speed,
		WindDirection: out.Wind.Deg,
		CloudCover:    out.Clouds.All,
		VisibilityM:   out.Visibility,
	}
	if len(out.Weather) > 0 {
		w.Condition = out.Weather[0].Main
		w.Description = out.Weather[0].Description
	}
	return w, nil
}

// statusError builds a wrapped error carrying the status and a body
// snippet so failures are diagnosable from logs.
func statusError(resp *resty.Response) error {
	body := resp.String()
	if len(body) > bodySnippetLen {
		body = body[:bodySnippetLen]
	}
	return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode(), body)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
