package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings holds deploy-time values that can be overridden by a YAML file.
// Fixed pipeline numbers (chunk window, lock staleness, retry counts) stay
// in the const block and are not configurable per deployment.
type Settings struct {
	ListenAddr string `yaml:"listen_addr"`

	RedisAddr string `yaml:"redis_addr"`

	Embedding struct {
		Provider string `yaml:"provider"` // "google" | "openai"
	} `yaml:"embedding"`

	LLM struct {
		Provider string `yaml:"provider"` // "gemini" | "openai"
	} `yaml:"llm"`

	VectorStore struct {
		Backend string `yaml:"backend"` // "memory" | "qdrant" | "pgvector"
		Qdrant  struct {
			Host string `yaml:"host"`
			Port int    `yaml:"port"`
		} `yaml:"qdrant"`
	} `yaml:"vector_store"`

	Blob struct {
		Backend  string `yaml:"backend"` // "local" | "s3"
		S3Bucket string `yaml:"s3_bucket"`
		S3Region string `yaml:"s3_region"`
		LocalDir string `yaml:"local_dir"`
	} `yaml:"blob"`

	SimilarCaseOverFetchFactor int `yaml:"similar_case_over_fetch_factor"`
}

var (
	settings     Settings
	settingsOnce sync.Once
)

func defaults() Settings {
	var s Settings
	s.ListenAddr = ServerListenAddr
	s.RedisAddr = RedisAddr
	s.Embedding.Provider = "google"
	s.LLM.Provider = "gemini"
	s.VectorStore.Backend = "memory"
	s.VectorStore.Qdrant.Host = QdrantHost
	s.VectorStore.Qdrant.Port = QdrantGrpcPort
	s.Blob.Backend = "local"
	s.Blob.LocalDir = LocalBlobDir
	s.SimilarCaseOverFetchFactor = SimilarCaseOverFetch
	return s
}

// Load reads .env (if present) and the YAML settings file named by
// RFE_CONFIG_FILE. Missing files are not an error - defaults apply.
func Load() Settings {
	settingsOnce.Do(func() {
		_ = godotenv.Load()
		settings = defaults()

		path := os.Getenv("RFE_CONFIG_FILE")
		if path == "" {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		_ = yaml.Unmarshal(data, &settings)
		if settings.SimilarCaseOverFetchFactor < 1 {
			settings.SimilarCaseOverFetchFactor = SimilarCaseOverFetch
		}
	})
	return settings
}
