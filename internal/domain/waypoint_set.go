package domain

import (
	"time"
)

// Waypoint: 校内的一个巡检点位，坐标为校园平面图上的坐标（单位：米）
type Waypoint struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type WaypointSet struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Waypoints   []Waypoint `json:"waypoints"`
	CreatedAt   time.Time  `json:"createdAt"`
	Version     int32      `json:"-"`
}
