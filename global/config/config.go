package config

import (
	"fmt"
	"strings"
	"time"

	"PTalk/tools/errs"

	"github.com/spf13/viper"
)

const EnvPrefix = "PTALK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.node_id", "ptalk-1")
	v.SetDefault("server.worker_id", 1)
	v.SetDefault("server.handler_timeout", 10*time.Second)
	v.SetDefault("server.send_queue", 256)
	v.SetDefault("server.write_wait", 5*time.Second)
	v.SetDefault("server.ping_period", 30*time.Second)
	v.SetDefault("server.read_limit", 1<<20)

	v.SetDefault("store.driver", StoreDriverMongo)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "ptalk")
	v.SetDefault("mongo.max_pool_size", 20)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.presence_ttl", 2*time.Hour)

	v.SetDefault("bus.driver", BusDriverNone)
	v.SetDefault("bus.nats.servers", []string{"nats://127.0.0.1:4222"})
	v.SetDefault("bus.nats.name", "ptalk")
	v.SetDefault("bus.nats.subject_prefix", "ptalk")
	v.SetDefault("bus.kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("bus.kafka.topic", "ptalk-events")
	v.SetDefault("bus.kafka.retries", 3)
	v.SetDefault("bus.kafka.compression", "none")

	v.SetDefault("auth.alg", "HS256")
	v.SetDefault("avatar.base_url", "https://ui-avatars.com/api/?rounded=true&format=svg&bold=true&name=")
	v.SetDefault("log.level", "info")
}

// Load reads the yaml file at path (optional when empty) and applies
// PTALK_* environment overrides, e.g. PTALK_MONGO_URI.
func Load(path string) (*AppConfig, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.WrapMsg(err, "read config", "path", path)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, errs.WrapMsg(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMongo:
		if c.Mongo.Uri == "" && len(c.Mongo.Address) == 0 {
			return errs.ErrValidation.WrapMsg("mongo.uri or mongo.address is required")
		}
		if c.Mongo.Database == "" {
			return errs.ErrValidation.WrapMsg("mongo.database is required")
		}
	case StoreDriverMemory:
	default:
		return errs.ErrValidation.WrapMsg("unknown store.driver", "driver", c.Store.Driver)
	}

	switch c.Bus.Driver {
	case "", BusDriverNone:
	case BusDriverNats:
		if len(c.Bus.Nats.Servers) == 0 {
			return errs.ErrValidation.WrapMsg("bus.nats.servers is required")
		}
	case BusDriverKafka:
		if len(c.Bus.Kafka.Brokers) == 0 || c.Bus.Kafka.Topic == "" {
			return errs.ErrValidation.WrapMsg("bus.kafka.brokers and bus.kafka.topic are required")
		}
	default:
		return errs.ErrValidation.WrapMsg("unknown bus.driver", "driver", c.Bus.Driver)
	}

	if c.Server.WorkerID < 0 || c.Server.WorkerID > 1023 {
		return errs.ErrValidation.WrapMsg("server.worker_id out of range", "worker_id", c.Server.WorkerID)
	}
	if c.Server.SendQueue <= 0 {
		return errs.ErrValidation.WrapMsg(fmt.Sprintf("server.send_queue must be positive, got %d", c.Server.SendQueue))
	}
	return nil
}
