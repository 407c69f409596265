package tago

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/daysync/internal/models"
	"github.com/yourorg/daysync/internal/upstream"
)

// ============================================================================
// TAGO CLIENT - public transit open API (data.go.kr)
// ============================================================================
// Three endpoints: stops near a coordinate, arrivals at a stop and the
// ordered stations of a line. Payloads are JSON (_type=json).
// ============================================================================

const (
	pathNearbyStops   = "/ArvlInfoInqireSvc/getPrxbstList"
	pathArrivals      = "/ArvlInfoInqireSvc/getSttnAcctoArvlPrearngeInfoList"
	pathRouteStations = "/BusRouteInfoInqireSvc/getRouteAcctoThrghSttnList"
)

// Result codes that carry data or an explicit "no data".
var okResultCodes = map[string]bool{"00": true, "0": true, "03": true, "": true}

// ResultError is a non-success resultCode in the response header
type ResultError struct {
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("tago result %s: %s", e.Code, e.Message)
}

// Page is one page of decoded items
type Page[T any] struct {
	Items      []T
	Kind       ItemsKind
	TotalCount int
}

// Client para la API TAGO
type Client struct {
	baseURL    string
	serviceKey string
	http       *upstream.Client
}

// NewClient creates a client. serviceKey is the data.go.kr key; an already
// URL-encoded key (contains '%') is sent as-is.
func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		http:       upstream.NewClient("TAGO", timeout),
	}
}

type envelope struct {
	Response struct {
		Header struct {
			ResultCode models.FlexString `json:"resultCode"`
			ResultMsg  models.FlexString `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      json.RawMessage `json:"items"`
			NumOfRows  models.FlexInt  `json:"numOfRows"`
			PageNo     models.FlexInt  `json:"pageNo"`
			TotalCount models.FlexInt  `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

type rawStop struct {
	CityCode models.FlexString `json:"citycode"`
	Lat      models.FlexFloat  `json:"gpslati"`
	Lon      models.FlexFloat  `json:"gpslong"`
	NodeID   models.FlexString `json:"nodeid"`
	NodeName models.FlexString `json:"nodenm"`
	NodeNo   models.FlexString `json:"nodeno"`
}

type rawArrival struct {
	RouteID           models.FlexString `json:"routeid"`
	RouteNo           models.FlexString `json:"routeno"`
	RouteType         models.FlexString `json:"routetp"`
	ArrPrevStationCnt models.FlexInt    `json:"arrprevstationcnt"`
	ArrTime           models.FlexInt    `json:"arrtime"`
}

type rawStation struct {
	NodeID   models.FlexString `json:"nodeid"`
	NodeName models.FlexString `json:"nodenm"`
	NodeNo   models.FlexString `json:"nodeno"`
	Lat      models.FlexFloat  `json:"gpslati"`
	Lon      models.FlexFloat  `json:"gpslong"`

	NodeOrd    models.FlexString `json:"nodeord"`
	Ord        models.FlexInt    `json:"ord"`
	Seq        models.FlexInt    `json:"seq"`
	StationSeq models.FlexInt    `json:"stationSeq"`
	Sequence   models.FlexInt    `json:"sequence"`
	RouteSeq   models.FlexInt    `json:"routeSeq"`
	StationOrd models.FlexInt    `json:"stationOrd"`
	ArrivalSeq models.FlexInt    `json:"arrivalSeq"`

	UpDown    models.FlexString `json:"updown"`
	UpDownCd  models.FlexString `json:"updowncd"`
	Direction models.FlexString `json:"direction"`
	DirectCd  models.FlexString `json:"directCd"`
}

// NearbyStops lists stops around a coordinate
func (c *Client) NearbyStops(ctx context.Context, at models.Coordinate, pageSize, pageNo int) (*Page[models.Stop], error) {
	q := url.Values{}
	q.Set("gpsLati", strconv.FormatFloat(at.Lat, 'f', 6, 64))
	q.Set("gpsLong", strconv.FormatFloat(at.Lon, 'f', 6, 64))

	raw, kind, total, err := fetch[rawStop](ctx, c, pathNearbyStops, q, pageSize, pageNo)
	if err != nil {
		return nil, err
	}

	stops := make([]models.Stop, 0, len(raw))
	for _, r := range raw {
		if r.NodeID == "" {
			continue
		}
		stops = append(stops, models.Stop{
			ID:       r.NodeID.String(),
			Name:     r.NodeName.String(),
			Lat:      float64(r.Lat),
			Lon:      float64(r.Lon),
			CityCode: r.CityCode.String(),
		})
	}
	return &Page[models.Stop]{Items: stops, Kind: kind, TotalCount: total}, nil
}

// Arrivals lists live arrival predictions at a stop
func (c *Client) Arrivals(ctx context.Context, cityCode, stopID string, pageSize, pageNo int) (*Page[models.Arrival], error) {
	q := url.Values{}
	q.Set("cityCode", cityCode)
	q.Set("nodeId", stopID)

	raw, kind, total, err := fetch[rawArrival](ctx, c, pathArrivals, q, pageSize, pageNo)
	if err != nil {
		return nil, err
	}

	arrivals := make([]models.Arrival, 0, len(raw))
	for _, r := range raw {
		arrivals = append(arrivals, models.Arrival{
			LineID:         r.RouteID.String(),
			LineNumber:     r.RouteNo.String(),
			ArrivalSeconds: int(r.ArrTime),
			StopsRemaining: int(r.ArrPrevStationCnt),
			LineType:       r.RouteType.String(),
		})
	}
	return &Page[models.Arrival]{Items: arrivals, Kind: kind, TotalCount: total}, nil
}

// RouteStations lists a line's stations in the order delivered, normalized.
func (c *Client) RouteStations(ctx context.Context, cityCode, lineID string, pageSize, pageNo int) (*Page[models.RouteStation], error) {
	q := url.Values{}
	q.Set("cityCode", cityCode)
	q.Set("routeId", lineID)

	raw, kind, total, err := fetch[rawStation](ctx, c, pathRouteStations, q, pageSize, pageNo)
	if err != nil {
		return nil, err
	}

	stations := make([]models.RouteStation, 0, len(raw))
	for _, r := range raw {
		rs := models.RouteStation{
			ID:     r.NodeID.String(),
			Name:   r.NodeName.String(),
			Lat:    float64(r.Lat),
			Lon:    float64(r.Lon),
			NodeNo: r.NodeNo.String(),
			Order: models.StationOrder{
				Ord:        int(r.Ord),
				Seq:        int(r.Seq),
				StationSeq: int(r.StationSeq),
				Sequence:   int(r.Sequence),
				RouteSeq:   int(r.RouteSeq),
				StationOrd: int(r.StationOrd),
				ArrivalSeq: int(r.ArrivalSeq),
				NodeOrd:    r.NodeOrd.String(),
			},
			Codes: models.DirectionCodes{
				UpDown:    r.UpDown.String(),
				UpDownCd:  r.UpDownCd.String(),
				Direction: r.Direction.String(),
				DirectCd:  r.DirectCd.String(),
			},
		}
		rs.Normalize(len(stations))
		stations = append(stations, rs)
	}
	return &Page[models.RouteStation]{Items: stations, Kind: kind, TotalCount: total}, nil
}

// HealthCheck issues a one-row nearby-stop query.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.NearbyStops(ctx, models.Coordinate{Lat: 36.6357, Lon: 127.4912}, 1, 1)
	return err
}

// fetch performs the request and decodes the envelope. A body that is not
// the expected JSON is reported as ItemsMalformed without an error.
func fetch[T any](ctx context.Context, c *Client, path string, q url.Values, pageSize, pageNo int) ([]T, ItemsKind, int, error) {
	q.Set("numOfRows", strconv.Itoa(pageSize))
	q.Set("pageNo", strconv.Itoa(pageNo))
	q.Set("_type", "json")
	endpoint := c.baseURL + path + "?" + q.Encode() + "&serviceKey=" + c.encodedKey()

	body, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, ItemsEmpty, 0, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Printf("[TAGO] ⚠️  malformed payload from %s: %v", path, err)
		return nil, ItemsMalformed, 0, nil
	}

	code := env.Response.Header.ResultCode.String()
	if !okResultCodes[code] {
		return nil, ItemsEmpty, 0, &ResultError{Code: code, Message: env.Response.Header.ResultMsg.String()}
	}

	items, kind := decodeAll[T](ParseItems(env.Response.Body.Items))
	if kind == ItemsMalformed {
		log.Printf("[TAGO] ⚠️  malformed items from %s", path)
	}
	return items, kind, int(env.Response.Body.TotalCount), nil
}

func (c *Client) encodedKey() string {
	if strings.Contains(c.serviceKey, "%") {
		return c.serviceKey
	}
	return url.QueryEscape(c.serviceKey)
}
