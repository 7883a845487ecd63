package platform

import (
	"os"
	"path/filepath"
	"testing"
)

// FuzzLoadConfig fuzzes YAML config loading.
func FuzzLoadConfig(f *testing.F) {
	f.Add(`server:
  name: test
  address: ":8080"`)

	f.Add(`llm:
  api_key: ${GROQ_API_KEY}
  model: llama
  temperature: 0.7`)

	f.Add(`{}`)
	f.Add(`null`)
	f.Add(`server: null`)
	f.Add(`server:
  name: [1, 2, 3]`) // wrong type

	f.Add(`emotion:
  categories: [joy, sadness, self_harm]
  default: sadness
  polarity:
    joy: positive`)

	f.Add(`conversation:
  history_window_size: -1
  idle_ttl: notaduration`)

	f.Add(`transcript:
  enabled: true
  retention_days: 7
database:
  dsn: postgres://localhost/moodchat`)

	f.Fuzz(func(t *testing.T, yamlContent string) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(configPath, []byte(yamlContent), 0o600); err != nil {
			return
		}

		// Should never panic
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return
		}
		_ = cfg.Validate()
	})
}

// FuzzExpandEnvVars fuzzes environment variable expansion in config.
func FuzzExpandEnvVars(f *testing.F) {
	f.Add("${HOME}")
	f.Add("${NONEXISTENT_VAR}")
	f.Add("${}")
	f.Add("$HOME")
	f.Add("prefix${VAR}suffix")
	f.Add("${VAR1}${VAR2}")
	f.Add("no-vars-here")
	f.Add("${unterminated")

	f.Fuzz(func(_ *testing.T, input string) {
		// Should never panic
		_ = expandEnvVars(input)
	})
}

// FuzzServerConfig fuzzes server configuration when building the platform.
func FuzzServerConfig(f *testing.F) {
	f.Add("test-server", ":8080", "")
	f.Add("", "", "")
	f.Add("server", ":0", "/nonexistent")
	f.Add("server", "not-an-address", ".")

	f.Fuzz(func(_ *testing.T, name, address, staticDir string) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "test-key"
		cfg.Server.Name = name
		cfg.Server.Address = address
		cfg.Server.StaticDir = staticDir

		// Should never panic when creating platform
		p, err := New(WithConfig(cfg))
		if err != nil {
			return
		}
		_ = p.Close()
	})
}
