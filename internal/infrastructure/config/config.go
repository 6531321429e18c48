package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/service"
)

// Config represents the application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Neo4J       Neo4JConfig       `mapstructure:"neo4j"`
	Labels      LabelsConfig      `mapstructure:"labels"`
	Classifier  ClassifierConfig  `mapstructure:"classifier"`
	Behavior    BehaviorConfig    `mapstructure:"behavior"`
	Cluster     ClusterConfig     `mapstructure:"cluster"`
	Profile     ProfileConfig     `mapstructure:"profile"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env             string        `mapstructure:"env"`
	LogLevel        string        `mapstructure:"log_level"`
	HTTPPort        int           `mapstructure:"http_port"`
	WorkerPoolSize  int           `mapstructure:"worker_pool_size"`
	AnalysisTimeout time.Duration `mapstructure:"analysis_timeout"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL                string        `mapstructure:"url"`
	StreamName         string        `mapstructure:"stream_name"`
	SubjectPrefix      string        `mapstructure:"subject_prefix"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts  int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	MaxPendingMessages int           `mapstructure:"max_pending_messages"`
	Enabled            bool          `mapstructure:"enabled"`
}

// Neo4JConfig represents Neo4J configuration
type Neo4JConfig struct {
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
	BatchSize                    int           `mapstructure:"batch_size"`
}

// LabelsConfig lists the files the address label sources are read from
type LabelsConfig struct {
	CuratedFiles      []string `mapstructure:"curated_files"`
	GraphIntelFile    string   `mapstructure:"graph_intel_file"`
	KnownAccountsFile string   `mapstructure:"known_accounts_file"`
	KnownProgramsFile string   `mapstructure:"known_programs_file"`
}

// ClassifierConfig overrides category keyword lists
type ClassifierConfig struct {
	Rules []entity.CategoryRule `mapstructure:"rules"`
}

// BehaviorConfig represents wallet behavior aggregation configuration
type BehaviorConfig struct {
	Thresholds       service.BehaviorThresholds `mapstructure:"thresholds"`
	ReceivedGroupKey string                     `mapstructure:"received_group_key"`
}

// ClusterConfig represents cluster anomaly configuration
type ClusterConfig struct {
	Thresholds service.ClusterThresholds `mapstructure:"thresholds"`
}

// ProfileConfig represents subject wallet risk configuration
type ProfileConfig struct {
	Thresholds service.ProfileThresholds `mapstructure:"thresholds"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// PersistenceConfig toggles writing results to Neo4J
type PersistenceConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from environment variables and files.
// An empty configFile searches the default locations for config.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/wallet-cluster-analyzer")
	}

	// Environment variables
	v.AutomaticEnv()

	// Map environment variables to nested config keys
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	switch entity.GroupKey(c.Behavior.ReceivedGroupKey) {
	case entity.GroupBySender, entity.GroupByReceiver:
	default:
		return fmt.Errorf("invalid behavior.received_group_key %q", c.Behavior.ReceivedGroupKey)
	}
	for _, rule := range c.Classifier.Rules {
		if !rule.Category.IsValid() || rule.Category == entity.CategoryOther {
			return fmt.Errorf("invalid classifier rule category %q", rule.Category)
		}
	}
	if c.App.WorkerPoolSize < 1 {
		return fmt.Errorf("app.worker_pool_size must be positive, got %d", c.App.WorkerPoolSize)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.http_port", 8080)
	v.SetDefault("app.worker_pool_size", 4)
	v.SetDefault("app.analysis_timeout", "60s")

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream_name", "WALLET_ANALYSIS")
	v.SetDefault("nats.subject_prefix", "wallet.analysis")
	v.SetDefault("nats.consumer_group", "wallet-cluster-analyzer")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.max_pending_messages", 1000)
	v.SetDefault("nats.enabled", true)

	// Neo4J defaults
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "password")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.connect_timeout", "10s")
	v.SetDefault("neo4j.max_connection_pool_size", 50)
	v.SetDefault("neo4j.connection_acquisition_timeout", "60s")
	v.SetDefault("neo4j.batch_size", 500)

	// Label source defaults
	v.SetDefault("labels.curated_files", []string{})
	v.SetDefault("labels.graph_intel_file", "")
	v.SetDefault("labels.known_accounts_file", "")
	v.SetDefault("labels.known_programs_file", "")

	// Behavior defaults
	bt := service.DefaultBehaviorThresholds()
	v.SetDefault("behavior.received_group_key", string(entity.GroupBySender))
	v.SetDefault("behavior.thresholds.exchange_min_sent", bt.ExchangeMinSent)
	v.SetDefault("behavior.thresholds.exchange_min_received", bt.ExchangeMinReceived)
	v.SetDefault("behavior.thresholds.exchange_min_counterparties", bt.ExchangeMinCounterparties)
	v.SetDefault("behavior.thresholds.project_min_sent", bt.ProjectMinSent)
	v.SetDefault("behavior.thresholds.project_max_received", bt.ProjectMaxReceived)
	v.SetDefault("behavior.thresholds.project_min_receivers", bt.ProjectMinReceivers)
	v.SetDefault("behavior.thresholds.suspicious_min_sent", bt.SuspiciousMinSent)
	v.SetDefault("behavior.thresholds.suspicious_min_received", bt.SuspiciousMinReceived)
	v.SetDefault("behavior.thresholds.suspicious_max_total_sent", bt.SuspiciousMaxTotalSent)

	// Cluster defaults
	ct := service.DefaultClusterThresholds()
	v.SetDefault("cluster.thresholds.dense_min_density", ct.DenseMinDensity)
	v.SetDefault("cluster.thresholds.dense_max_size", ct.DenseMaxSize)
	v.SetDefault("cluster.thresholds.high_tx_rate", ct.HighTxRate)
	v.SetDefault("cluster.thresholds.centralized_min_share", ct.CentralizedMinShare)

	// Profile defaults
	pt := service.DefaultProfileThresholds()
	v.SetDefault("profile.thresholds.high_volume_native", pt.HighVolumeNative)
	v.SetDefault("profile.thresholds.high_tx_per_day", pt.HighTxPerDay)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "wallet_analyzer")

	// Persistence defaults
	v.SetDefault("persistence.enabled", false)

	// Bind env for NATS URL
	_ = v.BindEnv("nats.url", "NATS_URL")
}
