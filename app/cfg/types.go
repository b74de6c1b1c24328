package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	SourcesDir    string
	Port          string
	WorkerCount   int
	IndexInterval int
	APIAccessKey  string

	// Browser configuration
	Headless bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
