package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Advisor LLM configuration (OpenAI-compatible protocol)
	// All providers (zai, deepseek, openai, siliconflow, ollama) use the same config
	AdvisorProvider string  // Provider identifier: zai, deepseek, openai, siliconflow, dashscope, openrouter, ollama
	AdvisorAPIKey   string  // Advisor LLM API key; empty disables the advisor entirely
	AdvisorBaseURL  string  // Advisor LLM base URL (optional, has default per provider)
	AdvisorModel    string  // Model name: glm-4.7, deepseek-chat, gpt-4o, etc.
	AdvisorTimeout  int     // Advisor request timeout in seconds (default: 30)
	AdvisorRPS      float64 // Max advisor requests per second (default: 2)

	// Routing configuration
	ValidAssignees []string // Whitelist of assignees the advisor may promote; defaults to the built-in queues

	// Audit stream configuration (optional Kafka fan-out)
	KafkaBrokers    []string
	KafkaAuditTopic string

	// Server configuration
	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string
}

// Provider default configurations for the advisor LLM.
// Used when DISPATCHSENSE_ADVISOR_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-5.2",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAdvisorEnabled returns true if an advisor API key is configured.
func (p *Profile) IsAdvisorEnabled() bool {
	return p.AdvisorAPIKey != ""
}

// IsAuditStreamEnabled returns true if a Kafka audit stream is configured.
func (p *Profile) IsAuditStreamEnabled() bool {
	return len(p.KafkaBrokers) > 0
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvList returns an environment variable split on commas, empty entries dropped.
func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var list []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Advisor LLM configuration
	p.AdvisorProvider = getEnvOrDefault("DISPATCHSENSE_ADVISOR_PROVIDER", "zai")
	p.AdvisorAPIKey = getEnvOrDefault("DISPATCHSENSE_ADVISOR_API_KEY", "")
	p.AdvisorBaseURL = getEnvOrDefault("DISPATCHSENSE_ADVISOR_BASE_URL", "")
	p.AdvisorModel = getEnvOrDefault("DISPATCHSENSE_ADVISOR_MODEL", "")
	p.AdvisorTimeout = getEnvOrDefaultInt("DISPATCHSENSE_ADVISOR_TIMEOUT_SECONDS", 30)
	p.AdvisorRPS = getEnvOrDefaultFloat("DISPATCHSENSE_ADVISOR_RPS", 2)

	// Validate and apply provider defaults if not explicitly set
	if p.AdvisorProvider != "" {
		if _, ok := llmProviderDefaults[p.AdvisorProvider]; !ok {
			slog.Warn("unknown advisor provider, using default: zai", "provider", p.AdvisorProvider)
			p.AdvisorProvider = "zai"
		}
	}
	if p.AdvisorBaseURL == "" || p.AdvisorModel == "" {
		if defaults, ok := llmProviderDefaults[p.AdvisorProvider]; ok {
			if p.AdvisorBaseURL == "" {
				p.AdvisorBaseURL = defaults.BaseURL
			}
			if p.AdvisorModel == "" {
				p.AdvisorModel = defaults.Model
			}
		}
	}

	// Routing configuration
	p.ValidAssignees = getEnvList("DISPATCHSENSE_ROUTING_VALID_ASSIGNEES")

	// Audit stream configuration
	p.KafkaBrokers = getEnvList("DISPATCHSENSE_KAFKA_BROKERS")
	p.KafkaAuditTopic = getEnvOrDefault("DISPATCHSENSE_KAFKA_AUDIT_TOPIC", "routing-decisions")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q (expected sqlite or postgres)", p.Driver)
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/dispatchsense"
	}

	if p.Driver == "sqlite" {
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("dispatchsense_%s.db", p.Mode))
		}
	}

	return nil
}
