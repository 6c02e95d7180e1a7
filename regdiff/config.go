package regdiff

// Config configures the regdiff service.
type Config struct {
	// RecentWindowDays is the default look-back window of the recent
	// changes operation. Default: 180.
	RecentWindowDays int `yaml:"recent_window_days"`

	// MaxSearchResults caps the per_page parameter relayed to the search
	// endpoint. Default: 100 (upstream maximum).
	MaxSearchResults int `yaml:"max_search_results"`
}

func (c *Config) defaults() {
	if c.RecentWindowDays <= 0 {
		c.RecentWindowDays = 180
	}
	if c.MaxSearchResults <= 0 {
		c.MaxSearchResults = 100
	}
}

func defaultConfig() *Config {
	return &Config{
		RecentWindowDays: 180,
		MaxSearchResults: 100,
	}
}

// Title numbers of the corpus run 1 through 50.
const (
	minTitle = 1
	maxTitle = 50
)
