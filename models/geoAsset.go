package models

import (
	"encoding/json"
	"math"
	"time"

	"gorm.io/gorm"
)

// Structure and RouteSegment mirror the geospatial collaborator's tables.
// This subsystem only reads them, and only for the fallback summary
// derivation when a project has no requirement rows yet.

type Structure struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ProjectID     int       `gorm:"index;not null" json:"project_id"`
	Name          string    `gorm:"size:255" json:"name"`
	StructureType string    `gorm:"size:100" json:"structure_type"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type RouteSegment struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ProjectID int       `gorm:"index;not null" json:"project_id"`
	Name      string    `gorm:"size:255" json:"name"`
	RouteType string    `gorm:"size:100" json:"route_type"`
	PathJSON  string    `gorm:"type:text" json:"path_json"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PathPoints decodes the stored vertex list. A malformed path yields an empty
// slice so one bad import cannot break summaries for the whole project.
func (r *RouteSegment) PathPoints() []LatLng {
	if r.PathJSON == "" {
		return nil
	}
	var points []LatLng
	if err := json.Unmarshal([]byte(r.PathJSON), &points); err != nil {
		return nil
	}
	return points
}

const earthRadiusKm = 6371.0

// HaversineMeters is the great-circle distance between two vertices.
func HaversineMeters(a, b LatLng) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * 1000 * math.Asin(math.Sqrt(h))
}

// RouteLengthMeters sums consecutive-vertex distances along one route path.
func RouteLengthMeters(points []LatLng) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineMeters(points[i-1], points[i])
	}
	return total
}

func ListStructures(db *gorm.DB, projectID int) ([]Structure, error) {
	var rows []Structure
	if err := db.Where("project_id = ?", projectID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func ListRouteSegments(db *gorm.DB, projectID int) ([]RouteSegment, error) {
	var rows []RouteSegment
	if err := db.Where("project_id = ?", projectID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
