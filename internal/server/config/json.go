package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/remarkly/backend/internal/flagx"
	"github.com/remarkly/backend/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which allows parsing
// both string values such as "30s" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	StoreBackend          string         `json:"store_backend"`
	MongoURI              string         `json:"mongo_uri"`
	MongoDatabase         string         `json:"mongo_database"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	SignupGrant           int64          `json:"signup_grant"`
	GeminiAPIKey          string         `json:"gemini_api_key"`
	DeepseekAPIKey        string         `json:"deepseek_api_key"`
	OpenAIAPIKey          string         `json:"openai_api_key"`
	ProviderTimeout       timex.Duration `json:"provider_timeout"`
	AlipayAppID           string         `json:"alipay_app_id"`
	AlipayPrivateKey      string         `json:"alipay_private_key"`
	AlipayPublicKey       string         `json:"alipay_public_key"`
	AlipayGateway         string         `json:"alipay_gateway"`
	AlipayNotifyURL       string         `json:"alipay_notify_url"`
	OrderAmount           string         `json:"order_amount"`
	OrderGrant            int64          `json:"order_grant"`
	OrderTTL              timex.Duration `json:"order_ttl"`
	SettlementDelay       timex.Duration `json:"settlement_delay"`
	ResendAPIKey          string         `json:"resend_api_key"`
	EmailFrom             string         `json:"email_from"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config flags;
// if neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.StoreBackend = c.StoreBackend
	config.MongoURI = c.MongoURI
	config.MongoDatabase = c.MongoDatabase
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.SignupGrant = c.SignupGrant
	config.GeminiAPIKey = c.GeminiAPIKey
	config.DeepseekAPIKey = c.DeepseekAPIKey
	config.OpenAIAPIKey = c.OpenAIAPIKey
	config.ProviderTimeout = time.Duration(c.ProviderTimeout.Duration)
	config.AlipayAppID = c.AlipayAppID
	config.AlipayPrivateKey = c.AlipayPrivateKey
	config.AlipayPublicKey = c.AlipayPublicKey
	config.AlipayGateway = c.AlipayGateway
	config.AlipayNotifyURL = c.AlipayNotifyURL
	config.OrderAmount = c.OrderAmount
	config.OrderGrant = c.OrderGrant
	config.OrderTTL = time.Duration(c.OrderTTL.Duration)
	config.SettlementDelay = time.Duration(c.SettlementDelay.Duration)
	config.ResendAPIKey = c.ResendAPIKey
	config.EmailFrom = c.EmailFrom
}
