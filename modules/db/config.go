package db

import "time"

type Config struct {
	// URI of the mongo deployment. An empty URI disables the store.
	URI     string
	Timeout time.Duration
}

func (c Config) Enabled() bool {
	return c.URI != ""
}
