// package models defines the data model for the podcast extractor
package models

import "time"

// CategoryStatus tags the classification state of an episode.
type CategoryStatus int

const (
	StatusPending  CategoryStatus = iota // not yet categorized
	StatusAssigned                       // carries a category name
	StatusFailed                         // last categorization attempt produced an unusable result
)

// Category is the tagged classification of an episode. The Name field is
// only meaningful when Status is [StatusAssigned]; the sentinel strings the
// database uses for the other two states never appear here.
type Category struct {
	Status CategoryStatus
	Name   string
}

// PendingCategory returns the "not yet categorized" state.
func PendingCategory() Category {
	return Category{Status: StatusPending}
}

// AssignedCategory returns a category with the given name. An empty name
// degrades to the failed state rather than storing a blank category.
func AssignedCategory(name string) Category {
	if name == "" {
		return FailedCategory()
	}
	return Category{Status: StatusAssigned, Name: name}
}

// FailedCategory returns the "categorization produced garbage" state.
func FailedCategory() Category {
	return Category{Status: StatusFailed}
}

// Labels holds the sentinel strings representing the pending and failed
// states at the storage boundary. The spellings are configurable; the
// domain model never compares against them directly.
type Labels struct {
	Uncategorized string
	Error         string
}

// Encode serializes a Category to its stored string form.
func (c Category) Encode(labels Labels) string {
	switch c.Status {
	case StatusAssigned:
		return c.Name
	case StatusFailed:
		return labels.Error
	default:
		return labels.Uncategorized
	}
}

// DecodeCategory parses a stored category string back to a Category.
// Empty strings count as pending; rows predating the error label migration
// may carry either sentinel.
func DecodeCategory(raw string, labels Labels) Category {
	switch raw {
	case "", labels.Uncategorized:
		return PendingCategory()
	case labels.Error:
		return FailedCategory()
	default:
		return Category{Status: StatusAssigned, Name: raw}
	}
}

// Episode is one podcast episode as stored, keyed by (ID, PlaylistID).
// Rows are immutable after ingestion except for Category and ProcessedAt.
type Episode struct {
	ID              string
	PlaylistID      string
	Title           string
	Description     string
	DurationMinutes float64
	AddedAt         string // playlist added_at timestamp, kept as received
	URL             string
	ShowName        string
	Category        Category
	ProcessedAt     time.Time
}

// SyncRecord tracks the last successful sync of a playlist.
type SyncRecord struct {
	PlaylistID   string
	Name         string
	LastSyncedAt time.Time
}

// CategoryCount pairs a category name with its episode count.
type CategoryCount struct {
	Name  string
	Count int
}

// Stats summarizes the state of the episode store.
type Stats struct {
	TotalEpisodes   int
	TotalCategories int
	Uncategorized   int
	TotalPlaylists  int
	TopCategories   []CategoryCount
}
