package segment

import (
	"context"
)

// Resolver maps a user to the customer segment offers are targeted at.
type Resolver interface {
	// Resolve returns the user's segment. ok is false when the user has no
	// segment; err is reserved for failures reaching the segment source.
	Resolve(ctx context.Context, userID int64) (segment string, ok bool, err error)
}

// Table is an in-memory user to segment mapping.
type Table interface {
	// Lookup returns the segment for a user, if any.
	Lookup(userID int64) (string, bool)

	// Size returns the number of users in the table.
	Size() int

	// Range calls fn for every user in the table until fn returns false.
	Range(fn func(userID int64, segment string) bool)
}

// Loader defines the interface for loading segment tables.
type Loader interface {
	// Load reads a gzipped "user_id,segment" file and returns a Table.
	Load(ctx context.Context, path string) (Table, error)
}
