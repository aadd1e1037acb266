package main

import (
	"encoding/json"
	"encoding/xml"
	"log"
	"net/http"
	"time"

	"vehicle-visualizer/viewer"
)

const siriNamespace = "http://www.siri.org.uk/siri"

// SIRI VehicleMonitoring delivery, reduced to the elements a map needs.
// The same structs encode both the XML and the JSON flavour.
type siriDocument struct {
	XMLName         xml.Name            `xml:"Siri" json:"-"`
	Xmlns           string              `xml:"xmlns,attr" json:"-"`
	Version         string              `xml:"version,attr" json:"-"`
	ServiceDelivery siriServiceDelivery `xml:"ServiceDelivery" json:"ServiceDelivery"`
}

type siriServiceDelivery struct {
	ResponseTimestamp         string                 `xml:"ResponseTimestamp" json:"ResponseTimestamp"`
	VehicleMonitoringDelivery []siriVehicleMonitoring `xml:"VehicleMonitoringDelivery" json:"VehicleMonitoringDelivery"`
}

type siriVehicleMonitoring struct {
	ResponseTimestamp string                `xml:"ResponseTimestamp" json:"ResponseTimestamp"`
	VehicleActivity   []siriVehicleActivity `xml:"VehicleActivity" json:"VehicleActivity"`
}

type siriVehicleActivity struct {
	RecordedAtTime          string             `xml:"RecordedAtTime" json:"RecordedAtTime"`
	MonitoredVehicleJourney siriVehicleJourney `xml:"MonitoredVehicleJourney" json:"MonitoredVehicleJourney"`
}

type siriVehicleJourney struct {
	VehicleRef      string       `xml:"VehicleRef" json:"VehicleRef"`
	VehicleLocation siriLocation `xml:"VehicleLocation" json:"VehicleLocation"`
	Bearing         *float64     `xml:"Bearing,omitempty" json:"Bearing,omitempty"`
}

type siriLocation struct {
	Longitude float64 `xml:"Longitude" json:"Longitude"`
	Latitude  float64 `xml:"Latitude" json:"Latitude"`
}

func buildSiri(markers []viewer.Marker, now time.Time) siriDocument {
	ts := now.UTC().Format(time.RFC3339)
	vm := siriVehicleMonitoring{
		ResponseTimestamp: ts,
		VehicleActivity:   make([]siriVehicleActivity, 0, len(markers)),
	}
	for _, m := range markers {
		journey := siriVehicleJourney{
			VehicleRef:      m.ID,
			VehicleLocation: siriLocation{Longitude: m.Position.Lon, Latitude: m.Position.Lat},
		}
		if m.Icon == viewer.IconCar {
			h := m.Heading
			journey.Bearing = &h
		}
		vm.VehicleActivity = append(vm.VehicleActivity, siriVehicleActivity{
			RecordedAtTime:          time.UnixMilli(m.Updated).UTC().Format(time.RFC3339),
			MonitoredVehicleJourney: journey,
		})
	}
	return siriDocument{
		Xmlns:   siriNamespace,
		Version: "2.0",
		ServiceDelivery: siriServiceDelivery{
			ResponseTimestamp:         ts,
			VehicleMonitoringDelivery: []siriVehicleMonitoring{vm},
		},
	}
}

func handleSiriJSON(store *viewer.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := struct {
			Siri siriDocument `json:"Siri"`
		}{Siri: buildSiri(store.Snapshot(), time.Now())}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			log.Printf("siri json encode error: %v", err)
		}
	}
}

func handleSiriXML(store *viewer.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(xml.Header))
		if err := xml.NewEncoder(w).Encode(buildSiri(store.Snapshot(), time.Now())); err != nil {
			log.Printf("siri xml encode error: %v", err)
		}
	}
}
