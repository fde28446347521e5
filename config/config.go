package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Store      StoreConfig      `yaml:"store"`
	Reports    ReportsConfig    `yaml:"reports"`
	Minio      MinioConfig      `yaml:"minio"`
	S3         S3Config         `yaml:"s3"`
	Azure      AzureConfig      `yaml:"azure"`
	Extraction ExtractionConfig `yaml:"extraction"`
	LLM        LLMConfig        `yaml:"llm"`
}

type ServerConfig struct {
	Port               int `yaml:"port"`
	MaxUploadMB        int `yaml:"max_upload_mb"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	MaxJobs int `yaml:"max_jobs"`
}

// Report source kinds.
const (
	SourceLocal = "local"
	SourceMinio = "minio"
	SourceS3    = "s3"
	SourceAzure = "azure"
)

// ReportsConfig describes where report PDFs live and how spreadsheet rows are matched to them.
type ReportsConfig struct {
	Source              string  `yaml:"source"`
	Root                string  `yaml:"root"`
	FinalDir            string  `yaml:"final_dir"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	Workers             int     `yaml:"workers"`
	HeaderMarker        string  `yaml:"header_marker"`
	HeaderScanRows      int     `yaml:"header_scan_rows"`
	CompanyColumn       string  `yaml:"company_column"`
	FileColumn          string  `yaml:"file_column"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type S3Config struct {
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

type AzureConfig struct {
	ConnectionString    string `yaml:"connection_string"`
	ConnectionStringEnv string `yaml:"connection_string_env"`
	Container           string `yaml:"container"`
	Prefix              string `yaml:"prefix"`
}

// Extraction strategies.
const (
	StrategyKeyword = "keyword"
	StrategyModel   = "model"
)

type ExtractionConfig struct {
	Strategy     string   `yaml:"strategy"`
	WindowChars  int      `yaml:"window_chars"`
	ExtraMarkers []string `yaml:"extra_markers"`
}

// Completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderCohere = "cohere"
	ProviderOllama = "ollama"
)

type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	Temperature       float64       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	TimeoutSeconds    int           `yaml:"timeout_seconds"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Breaker           BreakerConfig `yaml:"breaker"`
	OpenAI            OpenAIConfig  `yaml:"openai"`
	Cohere            CohereConfig  `yaml:"cohere"`
	Ollama            OllamaConfig  `yaml:"ollama"`
}

type BreakerConfig struct {
	MaxFailures int `yaml:"max_failures"`
	OpenSeconds int `yaml:"open_seconds"`
}

type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
}

type CohereConfig struct {
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// OllamaConfig points at a locally running inference server.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	ContextSize int    `yaml:"context_size"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	cfg.resolveSecrets()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for runs without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.resolveSecrets()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 20
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.MaxJobs == 0 {
		c.Store.MaxJobs = 100
	}

	r := &c.Reports
	if r.Source == "" {
		r.Source = SourceLocal
	}
	if r.Root == "" {
		r.Root = "pdfs"
	}
	if r.FinalDir == "" {
		r.FinalDir = "FINAL"
	}
	if r.SimilarityThreshold == 0 {
		r.SimilarityThreshold = 0.7
	}
	if r.Workers == 0 {
		r.Workers = 1
	}
	if r.HeaderMarker == "" {
		r.HeaderMarker = "Empresa"
	}
	if r.HeaderScanRows == 0 {
		r.HeaderScanRows = 10
	}
	if r.CompanyColumn == "" {
		r.CompanyColumn = "Empresa"
	}
	if r.FileColumn == "" {
		r.FileColumn = "Nome do arquivo salvo"
	}

	if c.Azure.ConnectionStringEnv == "" {
		c.Azure.ConnectionStringEnv = "AZURE_STORAGE_CONNECTION_STRING"
	}
	if c.Azure.Container == "" {
		c.Azure.Container = "bkmrelatoriostecnicos"
	}

	if c.Extraction.Strategy == "" {
		c.Extraction.Strategy = StrategyKeyword
	}
	if c.Extraction.WindowChars == 0 {
		c.Extraction.WindowChars = 3000
	}

	l := &c.LLM
	if l.Provider == "" {
		l.Provider = ProviderOpenAI
	}
	if l.Temperature == 0 {
		l.Temperature = 0.2
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 512
	}
	if l.TimeoutSeconds == 0 {
		l.TimeoutSeconds = 120
	}
	if l.Breaker.MaxFailures == 0 {
		l.Breaker.MaxFailures = 5
	}
	if l.Breaker.OpenSeconds == 0 {
		l.Breaker.OpenSeconds = 30
	}
	if l.OpenAI.APIKeyEnv == "" {
		l.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if l.OpenAI.Model == "" {
		l.OpenAI.Model = "gpt-3.5-turbo"
	}
	if l.Cohere.APIKeyEnv == "" {
		l.Cohere.APIKeyEnv = "COHERE_API_KEY"
	}
	if l.Cohere.Model == "" {
		l.Cohere.Model = "command-r"
	}
	if l.Ollama.BaseURL == "" {
		l.Ollama.BaseURL = "http://localhost:11434"
	}
	if l.Ollama.Model == "" {
		l.Ollama.Model = "llama2:7b-chat-q3_K_L"
	}
	if l.Ollama.ContextSize == 0 {
		l.Ollama.ContextSize = 2048
	}
}

// resolveSecrets fills empty credentials from the environment variables named in the config.
func (c *Config) resolveSecrets() {
	if c.LLM.OpenAI.APIKey == "" {
		c.LLM.OpenAI.APIKey = os.Getenv(c.LLM.OpenAI.APIKeyEnv)
	}
	if c.LLM.Cohere.APIKey == "" {
		c.LLM.Cohere.APIKey = os.Getenv(c.LLM.Cohere.APIKeyEnv)
	}
	if c.Azure.ConnectionString == "" {
		c.Azure.ConnectionString = os.Getenv(c.Azure.ConnectionStringEnv)
	}
}

// Validate rejects settings the scanner cannot run with.
func (c *Config) Validate() error {
	switch c.Reports.Source {
	case SourceLocal, SourceMinio, SourceS3, SourceAzure:
	default:
		return fmt.Errorf("unknown reports.source %q", c.Reports.Source)
	}
	switch c.Extraction.Strategy {
	case StrategyKeyword, StrategyModel:
	default:
		return fmt.Errorf("unknown extraction.strategy %q", c.Extraction.Strategy)
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderCohere, ProviderOllama:
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if t := c.Reports.SimilarityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("reports.similarity_threshold must be in (0, 1], got %v", t)
	}
	if c.Reports.Workers < 1 {
		return fmt.Errorf("reports.workers must be positive, got %d", c.Reports.Workers)
	}
	if c.Reports.HeaderScanRows < 1 {
		return fmt.Errorf("reports.header_scan_rows must be positive, got %d", c.Reports.HeaderScanRows)
	}
	return nil
}
