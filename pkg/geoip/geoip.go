// Package geoip provides the IP-based secondary location source used by the
// cross-source consistency check.
//
// IP geolocation is city-grade at best; the evaluator accordingly compares
// it against the claimed position with a generous bound. A lookup that
// cannot produce a position reports "no result" rather than an error the
// pipeline would have to interpret.
package geoip

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/gokaycavdar/go-trustguard/pkg/geo"
	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// Service wraps a GeoIP2/GeoLite2 City database.
type Service struct {
	cityReader *geoip2.Reader
}

// NewService opens the City database at the given path.
func NewService(cityDBPath string) (*Service, error) {
	cityReader, err := geoip2.Open(cityDBPath)
	if err != nil {
		return nil, fmt.Errorf("open city database: %w", err)
	}
	return &Service{cityReader: cityReader}, nil
}

// Close releases the database handle.
func (s *Service) Close() error {
	if s.cityReader != nil {
		return s.cityReader.Close()
	}
	return nil
}

// Locate resolves an IP address to coarse coordinates.
// Returns nil, nil when the database has no position for the address.
func (s *Service) Locate(ip net.IP) (*models.Coordinate, error) {
	if ip == nil {
		return nil, fmt.Errorf("geoip: invalid ip address")
	}

	record, err := s.cityReader.City(ip)
	if err != nil {
		return nil, fmt.Errorf("city lookup: %w", err)
	}

	c := models.Coordinate{
		Latitude:  record.Location.Latitude,
		Longitude: record.Location.Longitude,
	}
	if geo.IsUnknown(c) {
		return nil, nil
	}
	return &c, nil
}

// PublicIPFunc supplies the device's current public IP address.
// Returning nil means the address could not be determined right now.
type PublicIPFunc func(ctx context.Context) (net.IP, error)

// Source adapts a Service plus a public-IP supplier to the scheduler's
// SecondaryGeoSource contract.
type Source struct {
	service  *Service
	publicIP PublicIPFunc
}

// NewSource creates a secondary geo source.
func NewSource(service *Service, publicIP PublicIPFunc) *Source {
	return &Source{service: service, publicIP: publicIP}
}

// Lookup resolves the device's public IP to coarse coordinates.
// Returns nil, nil whenever no position can be determined - the consistency
// check treats that as "cannot validate" and defaults to trust.
func (s *Source) Lookup(ctx context.Context) (*models.Coordinate, error) {
	if s.service == nil || s.publicIP == nil {
		return nil, nil
	}

	ip, err := s.publicIP(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve public ip: %w", err)
	}
	if ip == nil {
		return nil, nil
	}

	return s.service.Locate(ip)
}
