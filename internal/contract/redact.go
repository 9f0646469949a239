package contract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RedactedValue replaces secrets in exported configuration.
const RedactedValue = "[REDACTED]"

// FileConfig is the on-disk layout of .groomer.yaml.
type FileConfig struct {
	Repo         string `yaml:"repo,omitempty"`
	GitHubToken  string `yaml:"github-token,omitempty"`
	GitHubAPIURL string `yaml:"github-api-url,omitempty"`
	SlackToken   string `yaml:"slack-token,omitempty"`
	OpenAIAPIKey string `yaml:"openai-api-key,omitempty"`
	OpenAIModel  string `yaml:"openai-model,omitempty"`

	Labels     LabelsRawInput     `yaml:"labels"`
	Workflow   WorkflowRawInput   `yaml:"workflow"`
	Thresholds ThresholdsRawInput `yaml:"thresholds,omitempty"`

	Output         string `yaml:"output,omitempty"`
	StateBackend   string `yaml:"state-backend,omitempty"`
	HistoryBackend string `yaml:"history-backend,omitempty"`
}

// NewFileConfig captures the effective configuration. Secrets are redacted
// unless includeSecrets is set.
func NewFileConfig(cfg *Config, includeSecrets bool) FileConfig {
	secret := func(v string) string {
		if v == "" || includeSecrets {
			return v
		}
		return RedactedValue
	}
	t := cfg.Thresholds

	fc := FileConfig{
		GitHubToken:  secret(cfg.GitHubToken),
		GitHubAPIURL: cfg.GitHubAPIURL,
		SlackToken:   secret(cfg.SlackToken),
		OpenAIAPIKey: secret(cfg.OpenAIAPIKey),
		OpenAIModel:  cfg.OpenAIModel,
		Labels: LabelsRawInput{
			Priority: PriorityLabelsRawInput{High: cfg.Labels.High, Medium: cfg.Labels.Medium, Low: cfg.Labels.Low},
			Groomed:  cfg.Labels.Groomed,
			Exclude:  cfg.Labels.Exclude,
		},
		Workflow: WorkflowRawInput{
			ExcludePrioritized:  cfg.ExcludePrioritized,
			ExcludeGroomed:      cfg.ExcludeGroomed,
			ExcludeDependencies: cfg.ExcludeDependencies,
			BatchSize:           cfg.BatchSize,
		},
		Thresholds: ThresholdsRawInput{
			FreshMaxDays:        &t.FreshMaxDays,
			RecentMaxDays:       &t.RecentMaxDays,
			AgingMaxDays:        &t.AgingMaxDays,
			StaleMaxDays:        &t.StaleMaxDays,
			VelocityWindowDays:  &t.VelocityWindowDays,
			UngroomedLimit:      &t.UngroomedLimit,
			UngroomedCritical:   &t.UngroomedCritical,
			HealthyScore:        &t.HealthyScore,
			NeedsAttentionScore: &t.NeedsAttentionScore,
			CreationRateMax:     &t.CreationRateMax,
			AncientRatio:        &t.AncientRatio,
			AgeWeight:           &t.AgeWeight,
			PriorityWeight:      &t.PriorityWeight,
			VelocityWeight:      &t.VelocityWeight,
		},
		Output:         string(cfg.Output),
		StateBackend:   string(cfg.StateBackend),
		HistoryBackend: string(cfg.HistoryBackend),
	}
	if len(cfg.Repos) > 0 {
		fc.Repo = cfg.Repos[0]
	}
	return fc
}

// MarshalFileConfig renders the configuration as YAML.
func MarshalFileConfig(fc FileConfig) ([]byte, error) {
	data, err := yaml.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// ParseFileConfig decodes YAML and restores any redacted secret from current,
// so an exported file can be imported back without losing credentials.
func ParseFileConfig(data []byte, current *Config) (FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse config: %w", err)
	}

	restore := func(v *string, existing string) {
		if *v == RedactedValue {
			*v = existing
		}
	}
	if current != nil {
		restore(&fc.GitHubToken, current.GitHubToken)
		restore(&fc.SlackToken, current.SlackToken)
		restore(&fc.OpenAIAPIKey, current.OpenAIAPIKey)
	} else {
		restore(&fc.GitHubToken, "")
		restore(&fc.SlackToken, "")
		restore(&fc.OpenAIAPIKey, "")
	}

	if err := fc.Validate(); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// Validate checks the fields that can be checked without the rest of the layering.
func (fc FileConfig) Validate() error {
	if fc.Repo != "" {
		if _, _, err := SplitRepo(fc.Repo); err != nil {
			return err
		}
	}
	if fc.GitHubToken != "" {
		if err := ValidateGitHubToken(fc.GitHubToken); err != nil {
			return err
		}
	}
	p := fc.Labels.Priority
	if p.High != "" || p.Medium != "" || p.Low != "" {
		labels := LabelsRawInput{Priority: p}
		if err := (&Config{}).applyLabels(labels); err != nil {
			return err
		}
	}
	if fc.Workflow.BatchSize < 0 || fc.Workflow.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch-size cannot exceed %d (received %d)", MaxBatchSize, fc.Workflow.BatchSize)
	}
	return nil
}

// WriteFileConfig writes the YAML to path with owner-only permissions,
// since it may hold tokens.
func WriteFileConfig(path string, fc FileConfig) error {
	data, err := MarshalFileConfig(fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
