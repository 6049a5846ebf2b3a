package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/pkg/config"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "pos-api", cfg.App.Name)
	assert.Equal(t, config.StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, config.EventsBrokerNone, cfg.Events.Broker)
	assert.Equal(t, 3, cfg.Sales.MaxTxAttempts)
	assert.Equal(t, 2*time.Hour, cfg.Sales.CartIdleTTL)
	assert.Equal(t, 30*time.Second, cfg.Cache.ProductTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Empty(t, cfg.Cache.RedisAddr)
	assert.Empty(t, cfg.Tracing.Endpoint)
}

func TestFromViper_Sobrescrituras(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "MEMORY")
	v.Set("EVENTS_BROKER", "kafka")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("SALES_TX_MAX_ATTEMPTS", "5")
	v.Set("CART_IDLE_TTL", "90")
	v.Set("PRODUCT_CACHE_TTL", "1m")
	v.Set("HTTP_PORT", "no-es-numero")
	v.Set("DB_AUTO_MIGRATE", "true")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, config.StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, config.EventsBrokerKafka, cfg.Events.Broker)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, 5, cfg.Sales.MaxTxAttempts)
	assert.Equal(t, 90*time.Second, cfg.Sales.CartIdleTTL, "un entero se interpreta en segundos")
	assert.Equal(t, time.Minute, cfg.Cache.ProductTTL)
	assert.Equal(t, 8080, cfg.HTTP.Port, "valor inválido vuelve al default")
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestFromViper_IntentosMinimoUno(t *testing.T) {
	v := viper.New()
	v.Set("SALES_TX_MAX_ATTEMPTS", 0)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Sales.MaxTxAttempts)
}

func TestFromViper_DriverYBrokerDesconocidos(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "sqlite")
	_, err := config.FromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("EVENTS_BROKER", "nats")
	_, err = config.FromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss:word", DBName: "pos", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%3Aword@db:5432/pos?sslmode=disable", db.ConnectionString())

	db.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", db.ConnectionString())
}
