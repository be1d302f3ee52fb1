package aiseed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/owenkobasz/cyclone/pkg/datastructure"
	"github.com/owenkobasz/cyclone/pkg/geo"
	"github.com/owenkobasz/cyclone/pkg/server"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

var (
	ErrNoAPIKey  = errors.New("openai api key not configured")
	ErrNoSeeds   = errors.New("model returned no usable waypoint")
	ErrNoChoices = errors.New("model returned no choices")
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Waypoint a point of interest proposed by the model.
type Waypoint struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
}

type waypointsResponse struct {
	Waypoints []Waypoint `json:"waypoints"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Seeder asks an OpenAI compatible chat completion endpoint for interesting waypoints around a start.
type Seeder struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewSeeder(cfg Config, log *zap.Logger) *Seeder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Seeder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

func (s *Seeder) Enabled() bool {
	return s != nil && s.cfg.APIKey != ""
}

// SeedWaypoints returns waypoints within targetKm/2 of the start. Invalid or far away proposals are dropped.
func (s *Seeder) SeedWaypoints(ctx context.Context, prefs datastructure.RoutePreferences) ([]datastructure.Coordinate, error) {
	if !s.Enabled() {
		return nil, server.WrapErrorf(ErrNoAPIKey, server.ErrExternalServiceFailure, "ai seeding unavailable")
	}

	waypoints, err := s.requestWaypoints(ctx, prefs)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrExternalServiceFailure, "ai seeding failed")
	}

	maxKm := prefs.TargetDistanceKm / 2
	seeds := make([]datastructure.Coordinate, 0, len(waypoints))
	for _, w := range waypoints {
		c := datastructure.NewCoordinate(w.Lat, w.Lon)
		if !geo.ValidCoordinate(c) {
			continue
		}
		if geo.HaversineDistance(prefs.Start, c) > maxKm {
			continue
		}
		seeds = append(seeds, c)
	}
	s.log.Info("ai waypoint seeds received", zap.Int("proposed", len(waypoints)), zap.Int("kept", len(seeds)))
	if len(seeds) == 0 {
		return nil, server.WrapErrorf(ErrNoSeeds, server.ErrExternalServiceFailure, "ai seeding returned nothing usable")
	}
	return seeds, nil
}

func (s *Seeder) requestWaypoints(ctx context.Context, prefs datastructure.RoutePreferences) ([]Waypoint, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(prefs)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0.7,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(s.cfg.BaseURL, "/")+"/chat/completions",
		bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chat completions returned status %d: %s", resp.StatusCode, msg)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode chat completions response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, ErrNoChoices
	}

	var out waypointsResponse
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("model answer is not the expected json: %w", err)
	}
	return out.Waypoints, nil
}
