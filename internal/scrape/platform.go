package scrape

import (
	"fmt"
	"net/url"
	"strings"
)

// Platform identifies which extraction strategy a host gets.
type Platform int

const (
	PlatformGeneric Platform = iota
	PlatformVRBO
	PlatformBooking
	PlatformAirbnb
)

func (p Platform) String() string {
	switch p {
	case PlatformVRBO:
		return "vrbo"
	case PlatformBooking:
		return "booking"
	case PlatformAirbnb:
		return "airbnb"
	default:
		return "generic"
	}
}

// Detect maps a URL's hostname to a platform and a human-readable
// source label. Unrecognized hosts fall back to the capitalized first
// DNS label. Pure function; the only error is a malformed URL.
func Detect(rawURL string) (Platform, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return PlatformGeneric, "", fmt.Errorf("invalid listing URL %q", rawURL)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "vrbo.com") || strings.Contains(host, "homeaway"):
		return PlatformVRBO, "VRBO", nil
	case strings.Contains(host, "booking.com"):
		return PlatformBooking, "Booking.com", nil
	case strings.Contains(host, "airbnb."):
		return PlatformAirbnb, "Airbnb", nil
	}

	return PlatformGeneric, sourceLabel(host), nil
}

// sourceLabel capitalizes the first meaningful DNS label of a host,
// e.g. "www.mountainstays.net" becomes "Mountainstays".
func sourceLabel(host string) string {
	labels := strings.Split(host, ".")
	for _, label := range labels {
		if label == "" || label == "www" {
			continue
		}
		return strings.ToUpper(label[:1]) + label[1:]
	}
	return host
}
