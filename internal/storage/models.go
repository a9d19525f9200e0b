package storage

import "time"

// FolderGroup is a user-defined label grouping library folders in client
// UIs. Groups are configuration, not media metadata: the streaming path
// never reads them.
type FolderGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
