package geocode

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedGeocoder waits for the limiter before every upstream call.
type RateLimitedGeocoder struct {
	next    Geocoder
	limiter *rate.Limiter
}

func NewRateLimitedGeocoder(next Geocoder, rps float64, burst int) *RateLimitedGeocoder {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGeocoder{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (g *RateLimitedGeocoder) Geocode(ctx context.Context, city, country string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return g.next.Geocode(ctx, city, country)
}
