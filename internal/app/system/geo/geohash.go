// Package geo holds the coordinate math used by neighborhood resolution:
// geohash encoding of a (lat, lng) pair into a fixed-length bucket string,
// and great-circle distance between two points.
package geo

import (
	"errors"
	"strings"
)

// DefaultPrecision is the geohash length stored on neighborhoods
// (cells of roughly 150m x 150m).
const DefaultPrecision = 7

// MaxPrecision bounds the length we will encode; 12 characters is already
// sub-centimeter.
const MaxPrecision = 12

const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// DefaultLocation is the fallback used when a caller has no coordinates.
// The encoder itself never sees undefined input.
var DefaultLocation = Point{Lat: 0, Lng: 0}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// ErrInvalidGeohash is returned by Decode for strings outside the alphabet.
var ErrInvalidGeohash = errors.New("invalid geohash")

// Encode maps (lat, lng) to a geohash of the given precision by repeated
// bisection, interleaving longitude and latitude bits starting with longitude.
// Precision values outside 1..MaxPrecision are clamped.
func Encode(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}

	latMin, latMax := -90.0, 90.0
	lngMin, lngMax := -180.0, 180.0

	var sb strings.Builder
	sb.Grow(precision)

	bits, n := 0, 0
	for i := 0; i < precision*5; i++ {
		bits <<= 1
		if i%2 == 0 {
			mid := (lngMin + lngMax) / 2
			if lng >= mid {
				bits |= 1
				lngMin = mid
			} else {
				lngMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat >= mid {
				bits |= 1
				latMin = mid
			} else {
				latMax = mid
			}
		}
		n++
		if n == 5 {
			sb.WriteByte(base32[bits])
			bits, n = 0, 0
		}
	}
	return sb.String()
}

// EncodePoint encodes p at DefaultPrecision.
func EncodePoint(p Point) string {
	return Encode(p.Lat, p.Lng, DefaultPrecision)
}

// Bounds is the lat/lng box covered by a geohash cell.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Center returns the midpoint of the cell.
func (b Bounds) Center() Point {
	return Point{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// Decode returns the cell covered by hash.
func Decode(hash string) (Bounds, error) {
	if hash == "" {
		return Bounds{}, ErrInvalidGeohash
	}
	b := Bounds{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}
	even := true
	for i := 0; i < len(hash); i++ {
		idx := strings.IndexByte(base32, hash[i])
		if idx < 0 {
			return Bounds{}, ErrInvalidGeohash
		}
		for mask := 16; mask > 0; mask >>= 1 {
			on := idx&mask != 0
			if even {
				mid := (b.MinLng + b.MaxLng) / 2
				if on {
					b.MinLng = mid
				} else {
					b.MaxLng = mid
				}
			} else {
				mid := (b.MinLat + b.MaxLat) / 2
				if on {
					b.MinLat = mid
				} else {
					b.MaxLat = mid
				}
			}
			even = !even
		}
	}
	return b, nil
}

// IsValid reports whether s is a non-empty geohash of at most MaxPrecision
// characters from the geohash alphabet.
func IsValid(s string) bool {
	if s == "" || len(s) > MaxPrecision {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(base32, s[i]) < 0 {
			return false
		}
	}
	return true
}
