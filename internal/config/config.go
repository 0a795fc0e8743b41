package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/liyaqa/billing/internal/types"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig
	Billing    BillingConfig `validate:"required"`
	Webhook    WebhookConfig `validate:"required"`
	Scheduler  SchedulerConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

// BillingConfig carries the invoicing defaults. VAT rate is a percentage
// (15.00 for Saudi Arabia), payment terms and trial length are in days.
type BillingConfig struct {
	Currency       string          `validate:"required,len=3"`
	VATRatePercent decimal.Decimal `validate:"required"`
	PaymentDueDays int             `validate:"required,gt=0"`
	TrialDays      int             `validate:"required,gt=0"`
}

type WebhookConfig struct {
	Topic string `validate:"required"`
}

// SchedulerConfig holds the cron expressions for the periodic sweeps.
type SchedulerConfig struct {
	AutoInvoiceCron  string
	MarkOverdueCron  string
	ExpireLapsedCron string
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/liyaqa")

	v.SetEnvPrefix("LIYAQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config, viper.DecodeHook(decimalDecodeHook())); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("billing.currency", types.DefaultCurrency)
	v.SetDefault("billing.vatratepercent", types.DefaultVATRatePercent.String())
	v.SetDefault("billing.paymentduedays", types.DefaultPaymentDueDays)
	v.SetDefault("billing.trialdays", types.DefaultTrialDays)
	v.SetDefault("webhook.topic", "billing_events")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxopenconns", 10)
	v.SetDefault("postgres.maxidleconns", 5)
	v.SetDefault("postgres.connmaxlifetimeminutes", 30)
	// Sweeps run daily off-peak; see SchedulerConfig.
	v.SetDefault("scheduler.autoinvoicecron", "0 2 * * *")
	v.SetDefault("scheduler.markoverduecron", "30 2 * * *")
	v.SetDefault("scheduler.expirelapsedcron", "0 3 * * *")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Billing: BillingConfig{
			Currency:       types.DefaultCurrency,
			VATRatePercent: types.DefaultVATRatePercent,
			PaymentDueDays: types.DefaultPaymentDueDays,
			TrialDays:      types.DefaultTrialDays,
		},
		Webhook: WebhookConfig{Topic: "billing_events"},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User, c.Password, c.DBName, c.Host, c.Port, c.SSLMode,
	)
}

// decimalDecodeHook lets viper unmarshal string/number values into
// decimal.Decimal fields (used for the VAT rate).
func decimalDecodeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(decimal.Decimal{}) {
			return data, nil
		}
		switch val := data.(type) {
		case string:
			return decimal.NewFromString(val)
		case float64:
			return decimal.NewFromFloat(val), nil
		case int:
			return decimal.NewFromInt(int64(val)), nil
		default:
			return data, nil
		}
	}
}
