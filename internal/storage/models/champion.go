// Package models holds the rows persisted by the storage repositories.
package models

import "time"

// Champion is a cached champion record from Data Dragon.
type Champion struct {
	ID        int64 // numeric key, as used by the game client
	Alias     string
	Name      string
	Title     string
	Tags      []string
	Version   string // patch the record was fetched for
	UpdatedAt time.Time
}
