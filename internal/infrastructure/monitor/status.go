package monitor

import "time"

type Status struct {
	Remote    bool      `json:"remote"`
	Local     bool      `json:"local"`
	LocalKeys int       `json:"local_keys"`
	LastCheck time.Time `json:"last_check"`
}
