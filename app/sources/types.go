package sources

// Config describes one scraped source, loaded from a YAML file in the
// sources directory. The file name (without extension) becomes the source
// name.
type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Type     string         `yaml:"type"`
	URL      string         `yaml:"url"`
	Location string         `yaml:"location"` // default location for feed sources
	Settings ConfigSettings `yaml:"settings"`
	Auth     ConfigAuth     `yaml:"auth"`
}

type ConfigSettings struct {
	Enabled      bool   `yaml:"enabled"`
	MaxEvents    int    `yaml:"max_events"`
	MaxStartTime string `yaml:"max_start_time"` // RFC 3339, optional
	Timeout      int    `yaml:"timeout"`        // seconds
}

type ConfigAuth struct {
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	AccessToken string `yaml:"access_token"`
}
