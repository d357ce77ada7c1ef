// Package router implements the Event Router (C9): the higher-order
// consumer routine shared by all three ingress topics, and the dedicated
// mission-completed consumer that drives reward distribution.
package router

import "time"

// LoginEvent is the payload of the mission-login-event topic.
type LoginEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// GameLaunchEvent is the payload of the mission-game-launch-event topic.
type GameLaunchEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	GameName   string    `json:"game_name"`
	LaunchedAt time.Time `json:"launched_at"`
}

// GamePlayEvent is the payload of the mission-game-play-event topic.
type GamePlayEvent struct {
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	GameName string    `json:"game_name"`
	Score    int       `json:"score"`
	PlayedAt time.Time `json:"played_at"`
}

// MissionCompletedEvent is the payload published internally once a mission
// completes, and consumed to drive reward distribution.
type MissionCompletedEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	MissionType string    `json:"mission_type"`
	CompletedAt time.Time `json:"completed_at"`
}
