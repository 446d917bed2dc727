package core

// Source is one configured account: a server endpoint plus the
// credentials to reach it. All calendars and address books discovered
// behind the endpoint belong to the source.
type Source struct {
	// Unique identifier from the config (e.g. "work")
	ID string
	// Human-readable label (e.g. "Work Account")
	Name string
	// Server root or a well-known discovery URL
	Endpoint string
	Username string
	// "basic" or "oauth"
	Auth string
	// Password for basic auth; resolved from the config or environment
	Password string
	// Path to the OAuth client credentials for oauth sources
	CredentialsFile string
	// Path to the saved token for oauth sources
	TokenFile string
	// Calendar paths the user has hidden from aggregate views
	Hidden []string
}

// Hides reports whether the calendar at path is hidden on this source.
func (s Source) Hides(path string) bool {
	for _, p := range s.Hidden {
		if p == path {
			return true
		}
	}
	return false
}

// Calendar is one event collection discovered on a source.
type Calendar struct {
	SourceID string
	// Collection path on the server, unique within the source
	Path string
	// Human-readable name (e.g. "Work", "Holidays")
	Name        string
	Description string
	// CSS-style color the server advertises, if any
	Color string
	// Hidden calendars stay out of aggregate views but remain listed
	Hidden bool
	// False for collections that hold no events (tasks-only, journals)
	HoldsEvents bool
}

// AddressBook is one contact collection discovered on a source.
type AddressBook struct {
	SourceID    string
	Path        string
	Name        string
	Description string
}

// Contact is a canonical address-book entry.
type Contact struct {
	SourceID string
	BookPath string
	Path     string
	ETag     string
	UID      string
	// Formatted display name
	Name   string
	Emails []string
	Phones []string
}
