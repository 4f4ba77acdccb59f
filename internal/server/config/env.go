package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration values from the process environment.
// A .env file in the working directory is loaded first, if present;
// real environment variables take precedence over it.
//
// Only variables that are actually set override earlier layers, so an
// empty environment leaves defaults and JSON values intact.
func parseEnv(config *Config) {

	// ignore a missing .env, that is the common case in production
	_ = godotenv.Load()

	setString := func(key string, target *string) {
		if v, ok := os.LookupEnv(key); ok {
			*target = v
		}
	}

	setInt64 := func(key string, target *int64) {
		if v, ok := os.LookupEnv(key); ok {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				*target = parsed
			}
		}
	}

	setDuration := func(key string, target *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			if parsed, err := time.ParseDuration(v); err == nil {
				*target = parsed
			}
		}
	}

	setString("ADDRESS", &config.EndpointAddr)
	setString("STORE_BACKEND", &config.StoreBackend)
	setString("MONGO_URI", &config.MongoURI)
	setString("MONGO_DATABASE", &config.MongoDatabase)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("SECRET_KEY", &config.SecretKey)
	setDuration("TOKEN_VALIDITY_DURATION", &config.TokenValidityDuration)
	setInt64("SIGNUP_GRANT", &config.SignupGrant)
	setString("GEMINI_API_KEY", &config.GeminiAPIKey)
	setString("DEEPSEEK_API_KEY", &config.DeepseekAPIKey)
	setString("OPENAI_API_KEY", &config.OpenAIAPIKey)
	setDuration("PROVIDER_TIMEOUT", &config.ProviderTimeout)
	setString("ALIPAY_APP_ID", &config.AlipayAppID)
	setString("ALIPAY_PRIVATE_KEY", &config.AlipayPrivateKey)
	setString("ALIPAY_PUBLIC_KEY", &config.AlipayPublicKey)
	setString("ALIPAY_GATEWAY", &config.AlipayGateway)
	setString("ALIPAY_NOTIFY_URL", &config.AlipayNotifyURL)
	setString("ORDER_AMOUNT", &config.OrderAmount)
	setInt64("ORDER_GRANT", &config.OrderGrant)
	setDuration("ORDER_TTL", &config.OrderTTL)
	setDuration("SETTLEMENT_DELAY", &config.SettlementDelay)
	setString("RESEND_API_KEY", &config.ResendAPIKey)
	setString("EMAIL_FROM", &config.EmailFrom)
}
