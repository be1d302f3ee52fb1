package graphhopper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/owenkobasz/cyclone/pkg/concurrent"
	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/server"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL           = "https://graphhopper.com/api/1"
	DefaultRequestsPerMinute = 100
)

var (
	ErrNoPath = errors.New("graphhopper returned no path")
)

type Config struct {
	APIKey            string
	BaseURL           string
	Vehicle           string
	Locale            string
	RequestsPerMinute int
	Timeout           time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	BackoffMultiplier float64
	Workers           int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Vehicle:           "bike",
		Locale:            "en",
		RequestsPerMinute: DefaultRequestsPerMinute,
		Timeout:           10 * time.Second,
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		BackoffMultiplier: 1.5,
		Workers:           runtime.NumCPU(),
	}
}

// Preferences the subset of route preferences the routing api understands.
type Preferences struct {
	PreferBikeLanes bool
	PreferUnpaved   bool
}

func PreferencesFrom(prefs datastructure.RoutePreferences) Preferences {
	return Preferences{
		PreferBikeLanes: prefs.PreferBikeLanes,
		PreferUnpaved:   prefs.Surface == datastructure.SurfaceUnpaved,
	}
}

type routeResponse struct {
	Paths []struct {
		Distance float64 `json:"distance"`
		Points   struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"points"`
	} `json:"paths"`
	Message string `json:"message"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Vehicle == "" {
		cfg.Vehicle = def.Vehicle
	}
	if cfg.Locale == "" {
		cfg.Locale = def.Locale
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = def.BackoffMultiplier
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: newRateLimiter(cfg.RequestsPerMinute),
		log:     log,
	}
}

type segmentResult struct {
	index  int
	points []datastructure.RoutePoint
	err    error
}

// SnapRoute routes every consecutive waypoint pair on roads and joins the segments.
// A failing segment is replaced by its straight endpoints. Fails only when every segment failed.
func (c *Client) SnapRoute(ctx context.Context, waypoints []datastructure.Coordinate, prefs Preferences) ([]datastructure.RoutePoint, error) {
	if len(waypoints) < 2 {
		return datastructure.RoutePointsFromCoordinates(waypoints), nil
	}
	c.log.Info("graphhopper routing started", zap.Int("waypoints", len(waypoints)))

	numSegments := len(waypoints) - 1
	wp := concurrent.NewWorkerPool[concurrent.SnapSegmentJobItem, segmentResult](c.cfg.Workers, numSegments)
	for i := 0; i < numSegments; i++ {
		wp.AddJob(concurrent.NewSnapSegmentJobItem(i, waypoints[i], waypoints[i+1]))
	}
	wp.Close()
	wp.Start(ctx, func(job concurrent.SnapSegmentJobItem) segmentResult {
		points, err := c.RouteSegment(ctx, job.From, job.To, prefs)
		return segmentResult{index: job.Index, points: points, err: err}
	})
	if err := wp.Wait(); err != nil {
		return nil, server.WrapErrorf(err, server.ErrExternalServiceFailure, "road snapping cancelled")
	}

	segments := make([]segmentResult, numSegments)
	for res := range wp.CollectResults() {
		segments[res.index] = res
	}

	route := make([]datastructure.RoutePoint, 0, numSegments*8)
	failed := 0
	var lastErr error
	for i, seg := range segments {
		if seg.err != nil || len(seg.points) == 0 {
			failed++
			lastErr = seg.err
			c.log.Warn("routing failed for segment, using direct waypoint", zap.Int("segment", i+1), zap.Error(seg.err))
			if i == 0 {
				route = append(route, datastructure.NewRoutePoint(waypoints[i].Lat, waypoints[i].Lon, nil))
			}
			route = append(route, datastructure.NewRoutePoint(waypoints[i+1].Lat, waypoints[i+1].Lon, nil))
			continue
		}
		if i == 0 {
			route = append(route, seg.points...)
		} else {
			route = append(route, seg.points[1:]...)
		}
	}
	if failed == numSegments {
		if lastErr == nil {
			lastErr = ErrNoPath
		}
		return nil, server.WrapErrorf(lastErr, server.ErrExternalServiceFailure, "road snapping failed for every segment")
	}

	c.log.Info("graphhopper routing complete", zap.Int("points", len(route)), zap.Int("failed_segments", failed))
	return route, nil
}

// RouteSegment one road-following path from -> to, retried with exponential backoff.
func (c *Client) RouteSegment(ctx context.Context, from, to datastructure.Coordinate, prefs Preferences) ([]datastructure.RoutePoint, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.Multiplier = c.cfg.BackoffMultiplier
	b.RandomizationFactor = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts-1)), ctx)

	var points []datastructure.RoutePoint
	err := backoff.Retry(func() error {
		var err error
		points, err = c.routeOnce(ctx, from, to, prefs)
		return err
	}, policy)
	return points, err
}

func (c *Client) buildParams(from, to datastructure.Coordinate, prefs Preferences) url.Values {
	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("vehicle", c.cfg.Vehicle)
	params.Set("locale", c.cfg.Locale)
	params.Set("instructions", "false")
	params.Set("elevation", "true")
	params.Set("optimize", "false")
	params.Set("points_encoded", "false")
	params.Set("calc_points", "true")
	params.Add("point", formatPoint(from))
	params.Add("point", formatPoint(to))
	if prefs.PreferBikeLanes {
		params.Set("bike_network", "true")
	}
	if prefs.PreferUnpaved {
		params.Set("bike_network", "true")
		params.Set("bike_network_type", "mtb")
	}
	return params
}

func formatPoint(c datastructure.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

func (c *Client) routeOnce(ctx context.Context, from, to datastructure.Coordinate, prefs Preferences) ([]datastructure.RoutePoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	reqURL := c.cfg.BaseURL + "/route?" + c.buildParams(from, to, prefs).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call graphhopper api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("graphhopper api returned status %d: %s", resp.StatusCode, body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var routeResp routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&routeResp); err != nil {
		return nil, fmt.Errorf("failed to decode graphhopper response: %w", err)
	}
	points := parsePoints(routeResp)
	if len(points) == 0 {
		return nil, backoff.Permanent(ErrNoPath)
	}
	return points, nil
}

// parsePoints coordinates come as [lon, lat] or [lon, lat, ele].
func parsePoints(resp routeResponse) []datastructure.RoutePoint {
	if len(resp.Paths) == 0 {
		return nil
	}
	coords := resp.Paths[0].Points.Coordinates
	points := make([]datastructure.RoutePoint, 0, len(coords))
	for _, coord := range coords {
		if len(coord) < 2 {
			continue
		}
		var ele *float64
		if len(coord) >= 3 {
			e := coord[2]
			ele = &e
		}
		points = append(points, datastructure.NewRoutePoint(coord[1], coord[0], ele))
	}
	return points
}
