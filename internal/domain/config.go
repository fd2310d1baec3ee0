package domain

// Config mirrors ~/.shai/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Provider            ProviderConfig    `yaml:"provider"`
	LocalEngine         LocalEngineConfig `yaml:"local_engine"`
	Preferences         Preferences       `yaml:"preferences"`
	Context             ContextSettings   `yaml:"context"`
	Security            SecuritySettings  `yaml:"security"`
	Execution           ExecutionSettings `yaml:"execution"`
	History             HistorySettings   `yaml:"history"`
	Cache               CacheSettings     `yaml:"cache"`
	Parser              ParserSettings    `yaml:"parser"`
}

// Preferences captures user level toggles.
type Preferences struct {
	Explain         bool   `yaml:"explain"`
	AutoConfirmSafe bool   `yaml:"auto_confirm_safe"`
	PreviewMode     string `yaml:"preview_mode"`
	TimeoutSeconds  int    `yaml:"timeout"`
}

// ContextSettings configures context collection.
type ContextSettings struct {
	IncludeFiles bool `yaml:"include_files"`
	MaxFiles     int  `yaml:"max_files"`
	IncludeTools bool `yaml:"include_tools"`
}

// MatchMode selects how danger catalogue entries are matched against a segment.
type MatchMode string

const (
	// MatchPrefix anchors every entry at the start of a sub-statement.
	MatchPrefix MatchMode = "prefix"
	// MatchSubstring lets an entry match anywhere inside a sub-statement.
	MatchSubstring MatchMode = "substring"
)

// SecuritySettings defines classifier behavior.
type SecuritySettings struct {
	Enabled   bool      `yaml:"enabled"`
	RulesFile string    `yaml:"rules_file"`
	MatchMode MatchMode `yaml:"match_mode"`
}

// ExecutionSettings controls how commands run.
type ExecutionSettings struct {
	Shell                string `yaml:"shell"`
	ConfirmBeforeExecute bool   `yaml:"confirm_before_execute"`
}

// HistorySettings controls the audit log.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// CacheSettings controls the raw response cache.
type CacheSettings struct {
	Enabled    bool `yaml:"enabled"`
	TTLMinutes int  `yaml:"ttl_minutes"`
	MaxEntries int  `yaml:"max_entries"`
}

// ParserSettings extends the conversational opener table.
type ParserSettings struct {
	ExtraOpeners []string `yaml:"extra_openers"`
}
