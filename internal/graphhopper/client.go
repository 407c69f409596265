// ============================================================================
// GraphHopper Client - daysync
// ============================================================================
// Pedestrian routing against a self-hosted GraphHopper (foot profile).
// ============================================================================

package graphhopper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/upstream"
)

// Client para GraphHopper API
type Client struct {
	baseURL string
	http    *upstream.Client
}

// NewClient crea un nuevo cliente GraphHopper
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8989"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    upstream.NewClient("GRAPHHOPPER", timeout),
	}
}

// ============================================================================
// ESTRUCTURAS DE DATOS
// ============================================================================

// RouteRequest representa una solicitud de ruta
type RouteRequest struct {
	Points  []models.Coordinate
	Profile string // "foot"
	Locale  string
}

// RouteResponse representa la respuesta de GraphHopper
type RouteResponse struct {
	Paths []Path `json:"paths"`
}

// Path representa una ruta calculada
type Path struct {
	Distance float64 `json:"distance"` // metros
	Time     int64   `json:"time"`     // milisegundos
}

// ============================================================================
// MÉTODOS PRINCIPALES
// ============================================================================

// GetRoute obtiene una ruta entre dos o más puntos
func (c *Client) GetRoute(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	u, err := url.Parse(c.baseURL + "/route")
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}

	q := u.Query()
	for _, p := range req.Points {
		q.Add("point", fmt.Sprintf("%f,%f", p.Lat, p.Lon))
	}
	q.Set("profile", req.Profile)
	if req.Locale != "" {
		q.Set("locale", req.Locale)
	}
	q.Set("points_encoded", "false")
	q.Set("instructions", "false")
	u.RawQuery = q.Encode()

	body, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	var routeResp RouteResponse
	if err := json.Unmarshal(body, &routeResp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return &routeResp, nil
}

// GetFootRoute obtiene una ruta peatonal simple
func (c *Client) GetFootRoute(ctx context.Context, from, to models.Coordinate) (*RouteResponse, error) {
	return c.GetRoute(ctx, RouteRequest{
		Points:  []models.Coordinate{from, to},
		Profile: "foot",
		Locale:  "ko",
	})
}

// Name implements geometry.PedestrianRouter.
func (c *Client) Name() string { return "graphhopper" }

// WalkingRoute implements geometry.PedestrianRouter.
func (c *Client) WalkingRoute(ctx context.Context, from, to models.Coordinate) (*geometry.WalkingRoute, error) {
	resp, err := c.GetFootRoute(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(resp.Paths) == 0 {
		return nil, fmt.Errorf("graphhopper returned no paths")
	}
	p := resp.Paths[0]
	return &geometry.WalkingRoute{
		Seconds:  int((p.Time + 999) / 1000),
		Meters:   p.Distance,
		Provider: c.Name(),
	}, nil
}

// HealthCheck verifica si GraphHopper está disponible
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	})
	if err != nil {
		return fmt.Errorf("graphhopper unavailable: %w", err)
	}
	return nil
}
