package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/food-ordering/internal/domain/payment"
)

const testSecret = "0123456789abcdef-test"

func envOnly() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "FOOD",
		SkipFlags: true,
		SkipFiles: true,
	}
}

func clearPlatformEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("FOOD_DATABASE_URL", "postgres://localhost/food")
	t.Setenv("FOOD_AUTH_SECRET", testSecret)

	cfg, err := loadConfig(envOnly())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)

	pricing, err := cfg.Pricing()
	require.NoError(t, err)
	assert.True(t, pricing.DeliveryFee.Equal(decimal.NewFromInt(49)))
	assert.True(t, pricing.TaxRate.Equal(decimal.RequireFromString("0.08")))

	methods, err := cfg.PaymentMethods()
	require.NoError(t, err)
	assert.Equal(t, []payment.Method{payment.MethodUPI, payment.MethodCard, payment.MethodCashOnDelivery}, methods)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("FOOD_DATABASE_URL", "postgres://localhost/food")
	t.Setenv("FOOD_AUTH_SECRET", testSecret)
	t.Setenv("FOOD_CHECKOUT_DELIVERY_FEE", "0")
	t.Setenv("FOOD_CHECKOUT_TAX_RATE", "0.05")
	t.Setenv("FOOD_PAYMENT_METHODS", "cod")

	cfg, err := loadConfig(envOnly())
	require.NoError(t, err)

	pricing, err := cfg.Pricing()
	require.NoError(t, err)
	assert.True(t, pricing.DeliveryFee.IsZero())
	assert.True(t, pricing.TaxRate.Equal(decimal.RequireFromString("0.05")))

	methods, err := cfg.PaymentMethods()
	require.NoError(t, err)
	assert.Equal(t, []payment.Method{payment.MethodCashOnDelivery}, methods)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/food")
	t.Setenv("PORT", "9000")
	t.Setenv("FOOD_AUTH_SECRET", testSecret)

	cfg, err := loadConfig(envOnly())
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/food", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing database",
			env:  map[string]string{"FOOD_AUTH_SECRET": testSecret},
			want: "database URL is required",
		},
		{
			name: "short secret",
			env:  map[string]string{"FOOD_DATABASE_URL": "postgres://x", "FOOD_AUTH_SECRET": "short"},
			want: "auth secret",
		},
		{
			name: "negative tax",
			env: map[string]string{
				"FOOD_DATABASE_URL":      "postgres://x",
				"FOOD_AUTH_SECRET":       testSecret,
				"FOOD_CHECKOUT_TAX_RATE": "-0.1",
			},
			want: "checkout pricing",
		},
		{
			name: "unknown payment method",
			env: map[string]string{
				"FOOD_DATABASE_URL":    "postgres://x",
				"FOOD_AUTH_SECRET":     testSecret,
				"FOOD_PAYMENT_METHODS": "upi,bitcoin",
			},
			want: "payment methods",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPlatformEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(envOnly())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
