// Package region holds the static catalog of mining regions that anchor the
// synthetic dataset.
package region

import "github.com/paulmach/orb"

// Region is a named geographic anchor for generated features.
type Region struct {
	Name      string  `json:"name" doc:"Mining area name" example:"Obuasi"`
	City      string  `json:"city" doc:"Nearest city" example:"Obuasi"`
	Subregion string  `json:"subregion" doc:"Administrative region" example:"Ashanti"`
	Country   string  `json:"country" doc:"Country" example:"Ghana"`
	CenterLat float64 `json:"centerLat" doc:"Center latitude" example:"6.2"`
	CenterLng float64 `json:"centerLng" doc:"Center longitude" example:"-1.68"`
}

// Center returns the region center as a (lng, lat) point.
func (r Region) Center() orb.Point {
	return orb.Point{r.CenterLng, r.CenterLat}
}

// View is an initial map camera.
type View struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
	Bearing   float64 `json:"bearing"`
}

// GhanaCenter is the dashboard's initial view.
var GhanaCenter = View{Latitude: 7.9465, Longitude: -1.0232, Zoom: 7}

// WestAfricaBounds frames the Ghana-focused map extent.
var WestAfricaBounds = orb.Bound{
	Min: orb.Point{-3.5, 4.5},
	Max: orb.Point{1.5, 11.5},
}

var catalog = []Region{
	// Ghana
	{Name: "Obuasi", City: "Obuasi", Subregion: "Ashanti", Country: "Ghana", CenterLat: 6.2, CenterLng: -1.68},
	{Name: "Tarkwa", City: "Tarkwa", Subregion: "Western", Country: "Ghana", CenterLat: 5.3, CenterLng: -1.99},
	{Name: "Prestea", City: "Prestea", Subregion: "Western", Country: "Ghana", CenterLat: 5.43, CenterLng: -2.14},
	{Name: "Bibiani", City: "Bibiani", Subregion: "Western North", Country: "Ghana", CenterLat: 6.46, CenterLng: -2.32},
	{Name: "Konongo", City: "Konongo", Subregion: "Ashanti", Country: "Ghana", CenterLat: 6.62, CenterLng: -1.21},
	{Name: "Kibi", City: "Kyebi", Subregion: "Eastern", Country: "Ghana", CenterLat: 6.17, CenterLng: -0.55},
	{Name: "Dunkwa-on-Offin", City: "Dunkwa", Subregion: "Central", Country: "Ghana", CenterLat: 5.96, CenterLng: -1.78},
	{Name: "Bolgatanga", City: "Bolgatanga", Subregion: "Upper East", Country: "Ghana", CenterLat: 10.79, CenterLng: -0.85},

	// Neighbouring gold belts
	{Name: "Hiré", City: "Hiré", Subregion: "Lôh-Djiboua", Country: "Côte d'Ivoire", CenterLat: 6.18, CenterLng: -5.28},
	{Name: "Essakane", City: "Gorom-Gorom", Subregion: "Sahel", Country: "Burkina Faso", CenterLat: 14.38, CenterLng: -0.07},
	{Name: "Sadiola", City: "Kayes", Subregion: "Kayes", Country: "Mali", CenterLat: 13.89, CenterLng: -11.7},
	{Name: "Sabodala", City: "Kédougou", Subregion: "Kédougou", Country: "Senegal", CenterLat: 13.17, CenterLng: -12.11},
}

// Regions returns the catalog in insertion order. The slice is a copy.
func Regions() []Region {
	out := make([]Region, len(catalog))
	copy(out, catalog)
	return out
}

// Countries returns the distinct countries in catalog order.
func Countries() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range catalog {
		if !seen[r.Country] {
			seen[r.Country] = true
			out = append(out, r.Country)
		}
	}
	return out
}
