package photo

import "time"

// Entry is one indexed photo.
type Entry struct {
	// ID is assigned by the store on first insert and kept on upsert.
	ID        string
	PhotoPath string
	TakenAt   time.Time
	Width     int
	Height    int
}
