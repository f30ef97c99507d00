package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultBaseURL is used to build verification and reset links when APP_BASE_URL is unset
	DefaultBaseURL = "http://localhost:8188"
)
