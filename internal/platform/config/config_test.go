package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("INTAKE_INCOME_CEILING", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("OCR_TIMEOUT", "")

	cfg := FromEnv()

	assert.True(t, cfg.Intake.IncomeCeiling.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "document", cfg.Intake.IdentityCapture)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SessionLockTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("INTAKE_INCOME_CEILING", "300000")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("OCR_TIMEOUT", "45s")

	cfg := FromEnv()

	assert.True(t, cfg.Intake.IncomeCeiling.Equal(decimal.NewFromInt(300000)))
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 45*time.Second, cfg.OCR.Timeout)
}

func TestFromEnvRejectsNonPositiveCeiling(t *testing.T) {
	t.Setenv("INTAKE_INCOME_CEILING", "-5")

	cfg := FromEnv()

	assert.True(t, cfg.Intake.IncomeCeiling.Equal(DefaultIncomeCeiling))
}
