package model

// Session is the wallet connection state shared by the client components.
// The zero value is the disconnected session.
type Session struct {
	Account string
	Network string
}

// Connected reports whether an account is set.
func (s Session) Connected() bool {
	return s.Account != ""
}

// FilterAll is the sentinel that disables the category and type filters.
const FilterAll = "all"

// FilterState is the ephemeral search and filter input of the listing view.
type FilterState struct {
	Query    string
	Category string
	Type     string
}

// DefaultFilter matches every listing.
func DefaultFilter() FilterState {
	return FilterState{Category: FilterAll, Type: FilterAll}
}
