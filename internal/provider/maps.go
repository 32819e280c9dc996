package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/hal9000y/mcp-chat/internal/apierr"
)

// GeocodeResult is the best match for an address.
type GeocodeResult struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	PlaceID          string  `json:"place_id"`
}

type Maps struct {
	client *maps.Client
	err    error
}

// NewMaps creates a geocoding client. An empty key yields an unconfigured
// client.
func NewMaps(apiKey string, opts ...maps.ClientOption) *Maps {
	if apiKey == "" {
		return &Maps{}
	}

	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return &Maps{err: fmt.Errorf("maps.NewClient failed: %w", err)}
	}

	return &Maps{client: c}
}

func (m *Maps) Configured() bool {
	return m.client != nil
}

func (m *Maps) Geocode(ctx context.Context, address string) (GeocodeResult, error) {
	if m.err != nil {
		return GeocodeResult{}, m.err
	}
	if m.client == nil {
		return GeocodeResult{}, apierr.Config("google maps api key")
	}

	results, err := m.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		if strings.Contains(err.Error(), "OVER_QUERY_LIMIT") {
			return GeocodeResult{}, apierr.Transport("geocoding quota exceeded", err)
		}
		return GeocodeResult{}, &apierr.Error{Kind: apierr.KindUpstream, Msg: "geocoding failed", Err: err}
	}
	if len(results) == 0 {
		return GeocodeResult{}, apierr.HTTP("geocoding returned no results for "+address, http.StatusNotFound, nil)
	}

	r := results[0]
	return GeocodeResult{
		FormattedAddress: r.FormattedAddress,
		Latitude:         r.Geometry.Location.Lat,
		Longitude:        r.Geometry.Location.Lng,
		PlaceID:          r.PlaceID,
	}, nil
}
