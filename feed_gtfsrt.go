package main

import (
	"log"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"vehicle-visualizer/viewer"
)

// buildGtfsRtFeed renders the latest entity positions as a full-dataset
// GTFS-realtime feed. Bearing is left out for entities without a heading.
func buildGtfsRtFeed(markers []viewer.Marker, now time.Time) *gtfs.FeedMessage {
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(markers)),
	}
	for _, m := range markers {
		pos := &gtfs.Position{
			Latitude:  proto.Float32(float32(m.Position.Lat)),
			Longitude: proto.Float32(float32(m.Position.Lon)),
		}
		if m.Icon == viewer.IconCar {
			pos.Bearing = proto.Float32(float32(m.Heading))
		}
		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id: proto.String(m.ID),
			Vehicle: &gtfs.VehiclePosition{
				Vehicle:   &gtfs.VehicleDescriptor{Id: proto.String(m.ID)},
				Position:  pos,
				Timestamp: proto.Uint64(uint64(m.Updated / 1000)),
			},
		})
	}
	return feed
}

func handleGtfsRt(store *viewer.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := proto.Marshal(buildGtfsRtFeed(store.Snapshot(), time.Now()))
		if err != nil {
			log.Printf("gtfs-rt encode error: %v", err)
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/x-protobuf")
		_, _ = w.Write(body)
	}
}
