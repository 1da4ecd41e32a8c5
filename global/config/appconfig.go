package config

import "time"

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"

	BusDriverNone  = "none"
	BusDriverNats  = "nats"
	BusDriverKafka = "kafka"
)

type AppConfig struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Bus    BusConfig    `mapstructure:"bus"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Avatar AvatarConfig `mapstructure:"avatar"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	NodeID         string        `mapstructure:"node_id"`
	WorkerID       int64         `mapstructure:"worker_id"` // snowflake node bits, 0~1023
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"` // per inbound event
	SendQueue      int           `mapstructure:"send_queue"`      // outbound frames buffered per connection
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"` // empty admits all
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // mongo | memory
}

type MongoConfig struct {
	Uri         string   `mapstructure:"uri"`
	Address     []string `mapstructure:"address"`
	Database    string   `mapstructure:"database"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	AuthSource  string   `mapstructure:"auth_source"`
	MaxPoolSize int      `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
}

type BusConfig struct {
	Driver string      `mapstructure:"driver"` // none | nats | kafka
	Nats   NatsConfig  `mapstructure:"nats"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

type NatsConfig struct {
	Servers       []string      `mapstructure:"servers"`
	Name          string        `mapstructure:"name"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	JetStream     bool          `mapstructure:"jetstream"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	Retries     int      `mapstructure:"retries"`
	Compression string   `mapstructure:"compression"` // none | snappy | lz4 | zstd
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"` // empty: connections identify with ?user_id=
	Alg    string `mapstructure:"alg"`
}

type AvatarConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
