package main

import "vehicle-visualizer/viewer"

// Vehicle is the normalized model served by the JSON API.
type Vehicle struct {
	ID         string   `json:"id"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Heading    *float64 `json:"heading,omitempty"`
	LastUpdate int64    `json:"lastUpdate"`
}

func vehiclesFromMarkers(markers []viewer.Marker) []Vehicle {
	out := make([]Vehicle, 0, len(markers))
	for _, m := range markers {
		v := Vehicle{
			ID:         m.ID,
			Lat:        m.Position.Lat,
			Lon:        m.Position.Lon,
			LastUpdate: m.Updated,
		}
		if m.Icon == viewer.IconCar {
			h := m.Heading
			v.Heading = &h
		}
		out = append(out, v)
	}
	return out
}
