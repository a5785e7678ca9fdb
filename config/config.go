package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Gateways  GatewaysConfig  `yaml:"gateways"`
	SellerBox SellerBoxConfig `yaml:"sellerbox"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                      string `yaml:"host"`
	Port                      int    `yaml:"port"`
	OrderItemUpdatedTopicName string `yaml:"order_item_updated_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GraphQLEndpoint описывает один удалённый AppSync-style endpoint.
type GraphQLEndpoint struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type GatewaysConfig struct {
	OrdersAPI     GraphQLEndpoint `yaml:"orders_api"`
	PackagesAPI   GraphQLEndpoint `yaml:"packages_api"`
	PickupsAPI    GraphQLEndpoint `yaml:"pickups_api"`
	StorefrontAPI GraphQLEndpoint `yaml:"storefront_api"`

	ShipPackageURL      string `yaml:"ship_package_url"`
	SchedulePickupURL   string `yaml:"schedule_pickup_url"`
	StorefrontAuthURL   string `yaml:"storefront_auth_url"`
	ShippingProviderURL string `yaml:"shipping_provider_url"`

	// "fake" заменяет все внешние сервисы на детерминированную заглушку.
	Mode string `yaml:"mode"` // "live" | "fake"
}

type SellerBoxConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	PackageDetailTTLSeconds int `yaml:"package_detail_ttl_seconds"`
	PackagePageSize         int `yaml:"package_page_size"`
	ShipRateLimitPerMinute  int `yaml:"ship_rate_limit_per_minute"`

	WorkerHTTPAddr             string `yaml:"worker_http_addr"`
	WorkerSyncIntervalSeconds  int    `yaml:"worker_sync_interval_seconds"`
	WorkerConcurrency          int    `yaml:"worker_concurrency"`
	WorkerRateLimitPerMinute   int    `yaml:"worker_rate_limit_per_minute"`
	WorkerUserSyncDelaySeconds int    `yaml:"worker_user_sync_delay_seconds"`
	WorkerBackoff1Seconds      int    `yaml:"worker_backoff_1_seconds"`
	WorkerBackoff2Seconds      int    `yaml:"worker_backoff_2_seconds"`
	WorkerBackoff3Seconds      int    `yaml:"worker_backoff_3_seconds"`
	WorkerBackoff4Seconds      int    `yaml:"worker_backoff_4_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
