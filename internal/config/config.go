// Package config loads the server configuration file. Every setting has a
// working default so the server runs with no file at all; LEXREAD_* env
// variables override both.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/lexread/lexread/internal/protocol"
)

type File struct {
	Version int     `yaml:"version" json:"version"`
	Server  Server  `yaml:"server" json:"server"`
	AI      AI      `yaml:"ai" json:"ai"`
	Uploads Uploads `yaml:"uploads" json:"uploads"`
	OCR     OCR     `yaml:"ocr" json:"ocr"`
}

type Server struct {
	Listen     string `yaml:"listen" json:"listen"`
	DataDir    string `yaml:"data_dir" json:"data_dir"`
	UploadsDir string `yaml:"uploads_dir" json:"uploads_dir"`
	MDNS       bool   `yaml:"mdns" json:"mdns"`
}

type AI struct {
	Provider        string `yaml:"provider" json:"provider"`
	APIKey          string `yaml:"api_key" json:"api_key"`
	BaseURL         string `yaml:"base_url" json:"base_url"`
	ModelName       string `yaml:"model_name" json:"model_name"`
	GeminiAPIKey    string `yaml:"gemini_api_key" json:"gemini_api_key"`
	GeminiModelName string `yaml:"gemini_model_name" json:"gemini_model_name"`
}

type Uploads struct {
	// Accept patterns are doublestar globs matched against the uploaded
	// filename, e.g. "*.pdf" or "**/*.txt".
	Accept    []string `yaml:"accept" json:"accept"`
	MaxSizeMB int      `yaml:"max_size_mb" json:"max_size_mb"`
}

type OCR struct {
	Languages []string `yaml:"languages" json:"languages"`
}

// Default returns the configuration used when no file is present.
func Default() File {
	return File{
		Version: 1,
		Server: Server{
			Listen:     ":8000",
			DataDir:    "data",
			UploadsDir: "data/uploads",
			MDNS:       true,
		},
		Uploads: Uploads{
			Accept:    []string{"*.pdf", "*.docx", "*.txt", "*.md", "*.png", "*.jpg", "*.jpeg"},
			MaxSizeMB: 32,
		},
		OCR: OCR{Languages: []string{"eng"}},
	}
}

// Load reads path if it exists, falls back to defaults otherwise, and
// applies env overrides in both cases.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return File{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func Parse(data []byte, source string) (File, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse YAML in %q: %w", source, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config in %q: %s", source, strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (cfg File) Validate() []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported config version %d", cfg.Version))
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		errs = append(errs, "server.listen is required")
	}
	if strings.TrimSpace(cfg.Server.DataDir) == "" {
		errs = append(errs, "server.data_dir is required")
	}
	if cfg.Uploads.MaxSizeMB <= 0 {
		errs = append(errs, "uploads.max_size_mb must be > 0")
	}
	for i, pat := range cfg.Uploads.Accept {
		if strings.TrimSpace(pat) == "" {
			errs = append(errs, fmt.Sprintf("uploads.accept[%d] must not be empty", i))
			continue
		}
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Sprintf("uploads.accept[%d] invalid pattern %q", i, pat))
		}
	}
	if cfg.AI.Provider != "" && cfg.AI.Provider != protocol.ProviderGemini {
		if strings.TrimSpace(cfg.AI.ModelName) == "" {
			errs = append(errs, "ai.model_name is required when ai.provider is set")
		}
	}
	return errs
}

// Accepts reports whether filename matches any upload accept pattern.
// Matching is case-insensitive on the base name.
func (cfg File) Accepts(filename string) bool {
	name := strings.ToLower(filename)
	for _, pat := range cfg.Uploads.Accept {
		if ok, err := doublestar.Match(strings.ToLower(pat), name); err == nil && ok {
			return true
		}
	}
	return false
}

// AIConfig returns the server-default AI configuration in wire form.
func (cfg File) AIConfig() protocol.AIConfig {
	return protocol.AIConfig{
		Provider:        cfg.AI.Provider,
		APIKey:          cfg.AI.APIKey,
		BaseURL:         cfg.AI.BaseURL,
		ModelName:       cfg.AI.ModelName,
		GeminiAPIKey:    cfg.AI.GeminiAPIKey,
		GeminiModelName: cfg.AI.GeminiModelName,
	}
}

func (cfg *File) applyEnv() {
	setString(&cfg.Server.Listen, "LEXREAD_LISTEN")
	setString(&cfg.Server.DataDir, "LEXREAD_DATA_DIR")
	setString(&cfg.Server.UploadsDir, "LEXREAD_UPLOADS_DIR")
	setBool(&cfg.Server.MDNS, "LEXREAD_MDNS")
	setString(&cfg.AI.Provider, "LEXREAD_AI_PROVIDER")
	setString(&cfg.AI.APIKey, "LEXREAD_AI_API_KEY")
	setString(&cfg.AI.BaseURL, "LEXREAD_AI_BASE_URL")
	setString(&cfg.AI.ModelName, "LEXREAD_AI_MODEL_NAME")
	setString(&cfg.AI.GeminiAPIKey, "LEXREAD_GEMINI_API_KEY")
	setString(&cfg.AI.GeminiModelName, "LEXREAD_GEMINI_MODEL_NAME")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
