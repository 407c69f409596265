package tmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/daysync/internal/geometry"
	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/upstream"
)

// Client calls the TMAP pedestrian route API
type Client struct {
	baseURL string
	appKey  string
	http    *upstream.Client
}

func NewClient(baseURL, appKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://apis.openapi.sk.com/tmap"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		appKey:  appKey,
		http:    upstream.NewClient("TMAP", timeout),
	}
}

type pedestrianResponse struct {
	Features []struct {
		Properties struct {
			TotalTime     models.FlexInt   `json:"totalTime"`
			TotalDistance models.FlexFloat `json:"totalDistance"`
		} `json:"properties"`
	} `json:"features"`
}

// Name implements geometry.PedestrianRouter.
func (c *Client) Name() string { return "tmap" }

// WalkingRoute implements geometry.PedestrianRouter. Totals are carried by the
// first feature that has them (the start point).
func (c *Client) WalkingRoute(ctx context.Context, from, to models.Coordinate) (*geometry.WalkingRoute, error) {
	form := url.Values{}
	form.Set("startX", strconv.FormatFloat(from.Lon, 'f', 7, 64))
	form.Set("startY", strconv.FormatFloat(from.Lat, 'f', 7, 64))
	form.Set("endX", strconv.FormatFloat(to.Lon, 'f', 7, 64))
	form.Set("endY", strconv.FormatFloat(to.Lat, 'f', 7, 64))
	form.Set("startName", "origin")
	form.Set("endName", "destination")
	encoded := form.Encode()

	body, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/routes/pedestrian?version=1", strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("appKey", c.appKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var resp pedestrianResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding tmap response: %w", err)
	}
	for _, f := range resp.Features {
		if f.Properties.TotalTime > 0 {
			return &geometry.WalkingRoute{
				Seconds:  int(f.Properties.TotalTime),
				Meters:   float64(f.Properties.TotalDistance),
				Provider: c.Name(),
			}, nil
		}
	}
	return nil, errors.New("tmap response has no totalTime")
}
