// Package config carga la configuración de zskroll desde YAML con overrides por
// variables de entorno. Los secretos pueden venir cifrados (prefijo "enc:") y se
// descifran con la clave maestra de secretbox.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/zskroll/internal/security/secretbox"
	"github.com/dropDatabas3/zskroll/internal/zsk"
)

// encPrefix marca un valor de configuración cifrado con secretbox.
const encPrefix = "enc:"

// Error es un error de configuración: endpoint/credenciales ausentes o
// malformados. Fatal antes de cualquier llamada a la plataforma.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Platform es el colaborador de gestión de claves de la instalación DNS.
	Platform struct {
		Endpoint string `yaml:"endpoint"`
		Domain   string `yaml:"domain"`
		APIKey   string `yaml:"api_key"` // admite "enc:<nonce|ct>"
		CAFile   string `yaml:"ca_file"` // CA privada explícita; nunca vía env global
		Timeout  string `yaml:"timeout"` // duración, default 30s
	} `yaml:"platform"`

	Rollover struct {
		// SafetyFactor se lee como string: si falta o no es numérico,
		// cae al default 10 en vez de fallar.
		SafetyFactor string `yaml:"safety_factor"`
		Interval     string `yaml:"interval"` // solo daemon, default 1h
	} `yaml:"rollover"`

	// TTLCheck habilita el contraste del max TTL reportado contra el observado en DNS.
	TTLCheck struct {
		Enabled  bool   `yaml:"enabled"`
		Resolver string `yaml:"resolver"` // host:port
	} `yaml:"ttl_check"`

	// Lock serializa corridas concurrentes contra la misma instalación.
	Lock struct {
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		TTL string `yaml:"ttl"` // default 5m
	} `yaml:"lock"`

	History struct {
		DSN string `yaml:"dsn"` // postgres; vacío = historia deshabilitada
	} `yaml:"history"`

	Alerts struct {
		SMTP struct {
			Host               string `yaml:"host"`
			Port               int    `yaml:"port"`
			Username           string `yaml:"username"`
			Password           string `yaml:"password"`
			From               string `yaml:"from"`
			TLS                string `yaml:"tls"` // auto | starttls | ssl | none
			InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
		} `yaml:"smtp"`
		To string `yaml:"to"`
	} `yaml:"alerts"`

	// Server configura la superficie HTTP del daemon.
	Server struct {
		Addr   string `yaml:"addr"`
		APIKey string `yaml:"api_key"` // admite "enc:<nonce|ct>"
	} `yaml:"server"`
}

// Load lee el YAML, aplica defaults y overrides por env, y descifra secretos.
// No valida los campos requeridos: eso es Validate(), que corre después de que
// los flags de la CLI hayan podido pisar valores.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Field: "file", Msg: err.Error()}
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, &Error{Field: "file", Msg: err.Error()}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.decryptSecrets(); err != nil {
		return nil, err
	}

	// validar duraciones declaradas como string
	for _, d := range []struct{ field, val string }{
		{"platform.timeout", c.Platform.Timeout},
		{"rollover.interval", c.Rollover.Interval},
		{"lock.ttl", c.Lock.TTL},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.ParseDuration(d.val); err != nil {
			return nil, &Error{Field: d.field, Msg: err.Error()}
		}
	}

	return &c, nil
}

// Default construye una configuración sin archivo (solo env + defaults),
// para invocaciones con -env.
func Default() (*Config, error) {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.decryptSecrets(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Platform.Timeout == "" {
		c.Platform.Timeout = "30s"
	}
	if c.Rollover.Interval == "" {
		c.Rollover.Interval = "1h"
	}
	if c.Lock.TTL == "" {
		c.Lock.TTL = "5m"
	}
	if c.Lock.Redis.Prefix == "" {
		c.Lock.Redis.Prefix = "zskroll"
	}
	if c.TTLCheck.Resolver == "" {
		c.TTLCheck.Resolver = "127.0.0.1:53"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
	if c.Alerts.SMTP.TLS == "" {
		c.Alerts.SMTP.TLS = "auto"
	}
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// PLATFORM
	if v, ok := getEnvStr("ZSKROLL_ENDPOINT"); ok {
		c.Platform.Endpoint = v
	}
	if v, ok := getEnvStr("ZSKROLL_DOMAIN"); ok {
		c.Platform.Domain = v
	}
	if v, ok := getEnvStr("ZSKROLL_API_KEY"); ok {
		c.Platform.APIKey = v
	}
	if v, ok := getEnvStr("ZSKROLL_CA_FILE"); ok {
		c.Platform.CAFile = v
	}
	if v, ok := getEnvStr("ZSKROLL_TIMEOUT"); ok {
		c.Platform.Timeout = v
	}

	// ROLLOVER
	if v, ok := getEnvStr("ZSKROLL_SAFETY_FACTOR"); ok {
		c.Rollover.SafetyFactor = v
	}
	if v, ok := getEnvStr("ZSKROLL_INTERVAL"); ok {
		c.Rollover.Interval = v
	}

	// TTL CHECK
	if v, ok := getEnvBool("ZSKROLL_TTL_CHECK"); ok {
		c.TTLCheck.Enabled = v
	}
	if v, ok := getEnvStr("ZSKROLL_RESOLVER"); ok {
		c.TTLCheck.Resolver = v
	}

	// LOCK
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Lock.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Lock.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Lock.Redis.Prefix = v
	}
	if v, ok := getEnvStr("ZSKROLL_LOCK_TTL"); ok {
		c.Lock.TTL = v
	}

	// HISTORY
	if v, ok := getEnvStr("HISTORY_DSN"); ok {
		c.History.DSN = v
	}

	// ALERTS
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.Alerts.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.Alerts.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.Alerts.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.Alerts.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.Alerts.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.Alerts.SMTP.TLS = strings.ToLower(v)
	}
	if v, ok := getEnvBool("SMTP_INSECURE_SKIP_VERIFY"); ok {
		c.Alerts.SMTP.InsecureSkipVerify = v
	}
	if v, ok := getEnvStr("ALERTS_TO"); ok {
		c.Alerts.To = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_API_KEY"); ok {
		c.Server.APIKey = v
	}
}

// decryptSecrets resuelve los valores "enc:" con la clave maestra.
func (c *Config) decryptSecrets() error {
	for _, s := range []struct {
		field string
		val   *string
	}{
		{"platform.api_key", &c.Platform.APIKey},
		{"server.api_key", &c.Server.APIKey},
		{"alerts.smtp.password", &c.Alerts.SMTP.Password},
	} {
		if !strings.HasPrefix(*s.val, encPrefix) {
			continue
		}
		pt, err := secretbox.Decrypt(strings.TrimPrefix(*s.val, encPrefix))
		if err != nil {
			return &Error{Field: s.field, Msg: err.Error()}
		}
		*s.val = pt
	}
	return nil
}

// Validate verifica los campos sin los cuales no se puede tocar la plataforma.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Platform.Endpoint) == "" {
		return &Error{Field: "platform.endpoint", Msg: "required"}
	}
	if strings.TrimSpace(c.Platform.Domain) == "" {
		return &Error{Field: "platform.domain", Msg: "required"}
	}
	if strings.TrimSpace(c.Platform.APIKey) == "" {
		return &Error{Field: "platform.api_key", Msg: "required"}
	}
	return nil
}

// SafetyFactor parsea el factor configurado; ausente, no numérico o negativo
// caen al default.
func (c *Config) SafetyFactor() int64 {
	s := strings.TrimSpace(c.Rollover.SafetyFactor)
	if s == "" {
		return zsk.DefaultSafetyFactor
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return zsk.DefaultSafetyFactor
	}
	return n
}

// Timeout devuelve el timeout HTTP ya parseado (Load validó el formato).
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.Platform.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Interval devuelve el período entre corridas del daemon.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.Rollover.Interval)
	if err != nil {
		return time.Hour
	}
	return d
}

// LockTTL devuelve la vigencia del lock de corrida.
func (c *Config) LockTTL() time.Duration {
	d, err := time.ParseDuration(c.Lock.TTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
