package domain

import "time"

// Command records an operator intent addressed to the device. Nothing in
// this module transmits it; it is kept for display and later delivery.
type Command struct {
	ID      string    `json:"id"`
	Name    string    `json:"command"`
	Channel string    `json:"sensor"`
	State   string    `json:"state"`
	At      time.Time `json:"at"`
}
