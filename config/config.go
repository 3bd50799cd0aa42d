package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the commands need to locate input, write output and
// reach the external collaborators. Flags override these values.
type Config struct {
	ContentsDir string // game "contents" directory holding data/sound, data/graphic, data/movie
	CustomDir   string // user supplied eyecatches/videos
	OutDir      string

	// Metadata: the CSV file wins when both are set
	MetadataCSV    string
	MetadataTable  string
	DynamoEndpoint string
	DynamoRegion   string

	FFmpegPath string
	Transcode  bool

	ListenAddr string
	Workers    int
}

// Load reads a .env file if one exists and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	return &Config{
		ContentsDir:    getEnv("CHARTDEX_CONTENTS_DIR", "./contents"),
		CustomDir:      getEnv("CHARTDEX_CUSTOM_DIR", "./custom"),
		OutDir:         getEnv("CHARTDEX_OUT_DIR", "./out"),
		MetadataCSV:    getEnv("CHARTDEX_METADATA_CSV", "data.csv"),
		MetadataTable:  getEnv("CHARTDEX_METADATA_TABLE", "chartdex-metadata"),
		DynamoEndpoint: getEnv("CHARTDEX_DYNAMO_ENDPOINT", ""),
		DynamoRegion:   getEnv("CHARTDEX_DYNAMO_REGION", "us-east-1"),
		FFmpegPath:     getEnv("CHARTDEX_FFMPEG", "ffmpeg"),
		Transcode:      getEnv("CHARTDEX_TRANSCODE", "true") == "true",
		ListenAddr:     getEnv("CHARTDEX_LISTEN_ADDR", ":8080"),
		Workers:        getEnvInt("CHARTDEX_WORKERS", 4),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid integer setting", "key", key, "value", value)
		return defaultValue
	}
	return n
}
