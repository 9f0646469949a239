package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/huangsam/groomer/schema"
)

// Default values for configuration.
const (
	DefaultQuery     = "is:open is:issue"
	DefaultBatchSize = 30
	MaxBatchSize     = 100
	DefaultPageDelay = 100 * time.Millisecond
	DefaultRateLimit = 10.0
	DefaultMinScore  = 60
	DefaultModel     = "gpt-4"
	DefaultAPIURL    = "https://api.github.com/"
)

// DefaultWorkers is the default number of repositories analyzed at once.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for groomer.
// This struct remains the "final, validated" config.
type Config struct {
	Repos []string // owner/name; the first entry is the default repository

	GitHubToken  string // Please use env var as this is plaintext
	GitHubAPIURL string
	SlackToken   string
	OpenAIAPIKey string
	OpenAIModel  string

	Labels     schema.LabelConfig
	Thresholds schema.HealthThresholds

	Query               string
	ExcludePrioritized  bool
	ExcludeGroomed      bool
	ExcludeDependencies bool
	BatchSize           int
	FetchAll            bool

	Workers   int
	MinScore  int
	RateLimit float64
	PageDelay time.Duration

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Verbose    bool

	StateBackend   schema.DatabaseBackend
	StateDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// PriorityLabelsRawInput holds the three priority label names.
type PriorityLabelsRawInput struct {
	High   string `mapstructure:"high" yaml:"high,omitempty"`
	Medium string `mapstructure:"medium" yaml:"medium,omitempty"`
	Low    string `mapstructure:"low" yaml:"low,omitempty"`
}

// LabelsRawInput holds the label mapping from the YAML config file.
type LabelsRawInput struct {
	Priority PriorityLabelsRawInput `mapstructure:"priority" yaml:"priority,omitempty"`
	Groomed  []string               `mapstructure:"groomed" yaml:"groomed,omitempty"`
	Exclude  []string               `mapstructure:"exclude" yaml:"exclude,omitempty"`
}

// WorkflowRawInput holds search and triage preferences.
type WorkflowRawInput struct {
	ExcludePrioritized  bool `mapstructure:"exclude-prioritized" yaml:"exclude-prioritized"`
	ExcludeGroomed      bool `mapstructure:"exclude-groomed" yaml:"exclude-groomed"`
	ExcludeDependencies bool `mapstructure:"exclude-dependencies" yaml:"exclude-dependencies"`
	BatchSize           int  `mapstructure:"batch-size" yaml:"batch-size"`
}

// ThresholdsRawInput holds analyzer overrides from the YAML config file.
// Pointer fields distinguish "not set" from zero.
type ThresholdsRawInput struct {
	FreshMaxDays        *int     `mapstructure:"fresh-max-days" yaml:"fresh-max-days,omitempty"`
	RecentMaxDays       *int     `mapstructure:"recent-max-days" yaml:"recent-max-days,omitempty"`
	AgingMaxDays        *int     `mapstructure:"aging-max-days" yaml:"aging-max-days,omitempty"`
	StaleMaxDays        *int     `mapstructure:"stale-max-days" yaml:"stale-max-days,omitempty"`
	VelocityWindowDays  *int     `mapstructure:"velocity-window-days" yaml:"velocity-window-days,omitempty"`
	UngroomedLimit      *int     `mapstructure:"ungroomed-limit" yaml:"ungroomed-limit,omitempty"`
	UngroomedCritical   *int     `mapstructure:"ungroomed-critical" yaml:"ungroomed-critical,omitempty"`
	HealthyScore        *int     `mapstructure:"healthy-score" yaml:"healthy-score,omitempty"`
	NeedsAttentionScore *int     `mapstructure:"needs-attention-score" yaml:"needs-attention-score,omitempty"`
	CreationRateMax     *int     `mapstructure:"creation-rate-max" yaml:"creation-rate-max,omitempty"`
	AncientRatio        *float64 `mapstructure:"ancient-ratio" yaml:"ancient-ratio,omitempty"`
	AgeWeight           *float64 `mapstructure:"age-weight" yaml:"age-weight,omitempty"`
	PriorityWeight      *float64 `mapstructure:"priority-weight" yaml:"priority-weight,omitempty"`
	VelocityWeight      *float64 `mapstructure:"velocity-weight" yaml:"velocity-weight,omitempty"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Repo             string  `mapstructure:"repo"`
	GitHubToken      string  `mapstructure:"github-token"`
	GitHubAPIURL     string  `mapstructure:"github-api-url"`
	SlackToken       string  `mapstructure:"slack-token"`
	OpenAIAPIKey     string  `mapstructure:"openai-api-key"`
	OpenAIModel      string  `mapstructure:"openai-model"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Width            int     `mapstructure:"width"`
	Color            string  `mapstructure:"color"`
	Verbose          bool    `mapstructure:"verbose"`
	Workers          int     `mapstructure:"workers"`
	RateLimit        float64 `mapstructure:"rate-limit"`
	PageDelay        string  `mapstructure:"page-delay"`
	StateBackend     string  `mapstructure:"state-backend"`
	StateDBConnect   string  `mapstructure:"state-db-connect"`
	HistoryBackend   string  `mapstructure:"history-backend"`
	HistoryDBConnect string  `mapstructure:"history-db-connect"`

	// --- Fields from search/health/check flags ---
	Query    string `mapstructure:"query"`
	FetchAll bool   `mapstructure:"all"`
	MinScore int    `mapstructure:"min-score"`

	// --- Nested sections from the config file ---
	Labels     LabelsRawInput     `mapstructure:"labels"`
	Workflow   WorkflowRawInput   `mapstructure:"workflow"`
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Repos != nil {
		clone.Repos = make([]string, len(c.Repos))
		copy(clone.Repos, c.Repos)
	}
	clone.Labels = c.Labels.Clone()
	return &clone
}

// DefaultRepo returns the owner and name of the first configured repository.
func (c *Config) DefaultRepo() (string, string, error) {
	if len(c.Repos) == 0 {
		return "", "", fmt.Errorf("no repository configured. pass owner/repo or set 'repo' in .groomer.yaml")
	}
	return SplitRepo(c.Repos[0])
}

// SearchQuery builds the search description from the workflow settings.
func (c *Config) SearchQuery(text string) schema.SearchQuery {
	if strings.TrimSpace(text) == "" {
		text = c.Query
	}
	return schema.SearchQuery{
		Text:                text,
		ExcludePrioritized:  c.ExcludePrioritized,
		ExcludeGroomed:      c.ExcludeGroomed,
		ExcludeDependencies: c.ExcludeDependencies,
	}
}

// RequireGitHubToken checks that a usable token is configured.
// Only commands that call GitHub need one.
func (c *Config) RequireGitHubToken() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("a GitHub token is required. set GROOMER_GITHUB_TOKEN or 'github-token' in .groomer.yaml")
	}
	return ValidateGitHubToken(c.GitHubToken)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRepos(cfg, input); err != nil {
		return err
	}
	if err := processCredentials(cfg, input); err != nil {
		return err
	}
	if err := processLabels(cfg, input); err != nil {
		return err
	}
	if err := processWorkflow(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateGitHubToken checks the token prefix used by classic and fine-grained tokens.
func ValidateGitHubToken(token string) error {
	if !strings.HasPrefix(token, "ghp_") && !strings.HasPrefix(token, "github_pat_") {
		return fmt.Errorf("GitHub token appears to be invalid format. expected a ghp_ or github_pat_ prefix")
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates state and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- State Backend Validation ---
	cfg.StateBackend = schema.DatabaseBackend(strings.ToLower(input.StateBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StateBackend]; !ok {
		return fmt.Errorf("invalid state backend '%s'. must be sqlite, mysql, postgresql, none", input.StateBackend)
	}
	cfg.StateDBConnect = input.StateDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StateBackend, cfg.StateDBConnect); err != nil {
		return fmt.Errorf("state-db-connect: %w", err)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("history-db-connect: %w", err)
	}

	// State and history tables never share a SQLite file
	if cfg.StateBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		statePath := cfg.StateDBConnect
		if statePath == "" {
			statePath = GetStateDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if statePath == historyPath {
			return fmt.Errorf("state and history storage must use different SQLite database files. Both resolve to %q", statePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Verbose = input.Verbose
	cfg.FetchAll = input.FetchAll

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.MinScore < 0 || input.MinScore > 100 {
		return fmt.Errorf("min-score must be between 0 and 100 (received %d)", input.MinScore)
	}
	cfg.MinScore = input.MinScore

	if input.RateLimit <= 0 {
		return fmt.Errorf("rate-limit must be greater than 0 (received %v)", input.RateLimit)
	}
	cfg.RateLimit = input.RateLimit

	cfg.PageDelay = DefaultPageDelay
	if input.PageDelay != "" {
		delay, err := time.ParseDuration(input.PageDelay)
		if err != nil {
			return fmt.Errorf("invalid page-delay '%s': %w", input.PageDelay, err)
		}
		if delay < 0 {
			return fmt.Errorf("page-delay cannot be negative (received %s)", input.PageDelay)
		}
		cfg.PageDelay = delay
	}

	return nil
}

// processRepos resolves positional repositories, falling back to the configured one.
func processRepos(cfg *Config, input *ConfigRawInput) error {
	repos := input.RepoArgs
	if len(repos) == 0 && strings.TrimSpace(input.Repo) != "" {
		repos = []string{input.Repo}
	}
	cfg.Repos = nil
	seen := make(map[string]struct{}, len(repos))
	for _, r := range repos {
		owner, name, err := SplitRepo(r)
		if err != nil {
			return err
		}
		full := owner + "/" + name
		if _, dup := seen[full]; dup {
			continue
		}
		seen[full] = struct{}{}
		cfg.Repos = append(cfg.Repos, full)
	}
	return nil
}

// processCredentials copies tokens and endpoints, checking any token that is present.
func processCredentials(cfg *Config, input *ConfigRawInput) error {
	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	if cfg.GitHubToken != "" {
		if err := ValidateGitHubToken(cfg.GitHubToken); err != nil {
			return err
		}
	}
	cfg.GitHubAPIURL = strings.TrimSpace(input.GitHubAPIURL)
	if cfg.GitHubAPIURL == "" {
		cfg.GitHubAPIURL = DefaultAPIURL
	}
	if !strings.HasPrefix(cfg.GitHubAPIURL, "http://") && !strings.HasPrefix(cfg.GitHubAPIURL, "https://") {
		return fmt.Errorf("github-api-url must be an http(s) URL (received %q)", input.GitHubAPIURL)
	}
	cfg.SlackToken = strings.TrimSpace(input.SlackToken)
	cfg.OpenAIAPIKey = strings.TrimSpace(input.OpenAIAPIKey)
	cfg.OpenAIModel = strings.TrimSpace(input.OpenAIModel)
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultModel
	}
	return nil
}

// processLabels builds the label mapping and checks the priority labels.
func processLabels(cfg *Config, input *ConfigRawInput) error {
	return cfg.applyLabels(input.Labels)
}

func (c *Config) applyLabels(raw LabelsRawInput) error {
	labels := schema.LabelConfig{
		High:    strings.TrimSpace(raw.Priority.High),
		Medium:  strings.TrimSpace(raw.Priority.Medium),
		Low:     strings.TrimSpace(raw.Priority.Low),
		Groomed: trimNonEmpty(raw.Groomed),
		Exclude: trimNonEmpty(raw.Exclude),
	}
	if err := labels.Validate(); err != nil {
		return err
	}
	c.Labels = labels
	return nil
}

// processWorkflow handles the search exclusions and batch size.
func processWorkflow(cfg *Config, input *ConfigRawInput) error {
	cfg.Query = strings.TrimSpace(input.Query)
	if cfg.Query == "" {
		cfg.Query = DefaultQuery
	}
	cfg.ExcludePrioritized = input.Workflow.ExcludePrioritized
	cfg.ExcludeGroomed = input.Workflow.ExcludeGroomed
	cfg.ExcludeDependencies = input.Workflow.ExcludeDependencies

	if input.Workflow.BatchSize <= 0 || input.Workflow.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch-size must be greater than 0 and cannot exceed %d (received %d)", MaxBatchSize, input.Workflow.BatchSize)
	}
	cfg.BatchSize = input.Workflow.BatchSize
	return nil
}

// processThresholds starts from the defaults and applies any overrides.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	t := schema.DefaultHealthThresholds()
	raw := input.Thresholds

	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&t.FreshMaxDays, raw.FreshMaxDays)
	setInt(&t.RecentMaxDays, raw.RecentMaxDays)
	setInt(&t.AgingMaxDays, raw.AgingMaxDays)
	setInt(&t.StaleMaxDays, raw.StaleMaxDays)
	setInt(&t.VelocityWindowDays, raw.VelocityWindowDays)
	setInt(&t.UngroomedLimit, raw.UngroomedLimit)
	setInt(&t.UngroomedCritical, raw.UngroomedCritical)
	setInt(&t.HealthyScore, raw.HealthyScore)
	setInt(&t.NeedsAttentionScore, raw.NeedsAttentionScore)
	setInt(&t.CreationRateMax, raw.CreationRateMax)
	setFloat(&t.AncientRatio, raw.AncientRatio)
	setFloat(&t.AgeWeight, raw.AgeWeight)
	setFloat(&t.PriorityWeight, raw.PriorityWeight)
	setFloat(&t.VelocityWeight, raw.VelocityWeight)

	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	cfg.Thresholds = t
	return nil
}

// trimNonEmpty trims each entry and drops blanks.
func trimNonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
