package models

import "time"

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

// Member is the public directory entry created alongside an Account at signup.
type Member struct {
	ID          string         `json:"_id" bson:"_id"`
	AccountID   string         `json:"user" bson:"user"`
	Name        string         `json:"name" bson:"name"`
	Description string         `json:"description" bson:"description"`
	Country     string         `json:"country" bson:"country"`
	Speaks      []string       `json:"speaks" bson:"speaks"`
	Learns      []string       `json:"learns" bson:"learns"`
	Image       string         `json:"image" bson:"image"`
	Status      PresenceStatus `json:"status" bson:"status"`
	CreatedAt   time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updated_at"`
}
