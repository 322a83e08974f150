package domain

import "time"

// PollStats holds statistics about a single feed poll.
type PollStats struct {
	Fetched  int
	New      int
	Added    []Post
	Duration time.Duration
}
