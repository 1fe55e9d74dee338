package model

import "time"

type HubStats struct {
	TotalSessions      int            `json:"total_sessions"`
	TotalSubscriptions int            `json:"total_subscriptions"`
	DroppedFrames      uint64         `json:"dropped_frames"`
	Uptime             time.Duration  `json:"uptime"`
	Destinations       map[string]int `json:"destinations,omitempty"`
}
