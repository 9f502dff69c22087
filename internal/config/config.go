package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Workers struct {
		PoolSize  int           `yaml:"pool_size" default:"5"`
		QueueSize int           `yaml:"queue_size" default:"50"`
		RateLimit int           `yaml:"rate_limit" default:"6"` // runs per minute per provider
		Timeout   time.Duration `yaml:"timeout" default:"300s"`
	} `yaml:"workers"`

	Scraper struct {
		UserAgent      string        `yaml:"user_agent"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
		SelectorWait   time.Duration `yaml:"selector_wait" default:"15s"`
		ConsentWait    time.Duration `yaml:"consent_wait" default:"5s"`
		HeadlessMode   bool          `yaml:"headless_mode" default:"true"`
		StealthMode    bool          `yaml:"stealth_mode" default:"true"`
		Captcha        struct {
			Provider        string        `yaml:"provider" default:"2captcha"`
			APIKey          string        `yaml:"api_key"`
			BaseURL         string        `yaml:"base_url" default:"https://2captcha.com"`
			PollInterval    time.Duration `yaml:"poll_interval" default:"5s"`
			MaxAttempts     int           `yaml:"max_attempts" default:"30"`
			EnableAutoSolve bool          `yaml:"enable_auto_solve" default:"true"`
		} `yaml:"captcha"`
	} `yaml:"scraper"`

	Jobs struct {
		StoreBackend string        `yaml:"store_backend" default:"memory"` // "memory" or "redis"
		ResultTTL    time.Duration `yaml:"result_ttl" default:"168h"`
	} `yaml:"jobs"`

	Callback struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"callback"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
	} `yaml:"logging"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Workers.PoolSize = 5
	config.Workers.QueueSize = 50
	config.Workers.RateLimit = 6
	config.Workers.Timeout = 300 * time.Second

	config.Scraper.RequestTimeout = 30 * time.Second
	config.Scraper.SelectorWait = 15 * time.Second
	config.Scraper.ConsentWait = 5 * time.Second
	config.Scraper.HeadlessMode = true
	config.Scraper.StealthMode = true
	config.Scraper.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	config.Scraper.Captcha.Provider = "2captcha"
	config.Scraper.Captcha.BaseURL = "https://2captcha.com"
	config.Scraper.Captcha.PollInterval = 5 * time.Second
	config.Scraper.Captcha.MaxAttempts = 30
	config.Scraper.Captcha.EnableAutoSolve = true

	config.Jobs.StoreBackend = "memory"
	config.Jobs.ResultTTL = 168 * time.Hour

	config.Callback.Timeout = 10 * time.Second

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if captchaAPIKey := os.Getenv("CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Scraper.Captcha.APIKey = captchaAPIKey
	}

	// Also support 2CAPTCHA_API_KEY for compatibility
	if captchaAPIKey := os.Getenv("2CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Scraper.Captcha.APIKey = captchaAPIKey
	}

	if captchaBaseURL := os.Getenv("CAPTCHA_BASE_URL"); captchaBaseURL != "" {
		c.Scraper.Captcha.BaseURL = captchaBaseURL
	}

	if pollInterval := os.Getenv("CAPTCHA_POLL_INTERVAL"); pollInterval != "" {
		if d, err := time.ParseDuration(pollInterval); err == nil {
			c.Scraper.Captcha.PollInterval = d
		}
	}

	if maxAttempts := os.Getenv("CAPTCHA_MAX_ATTEMPTS"); maxAttempts != "" {
		if n, err := strconv.Atoi(maxAttempts); err == nil {
			c.Scraper.Captcha.MaxAttempts = n
		}
	}

	if autoSolve := os.Getenv("CAPTCHA_ENABLE_AUTO_SOLVE"); autoSolve != "" {
		c.Scraper.Captcha.EnableAutoSolve = autoSolve == "true" || autoSolve == "1"
	}

	if headless := os.Getenv("SCRAPER_HEADLESS_MODE"); headless != "" {
		c.Scraper.HeadlessMode = headless == "true" || headless == "1"
	}

	if callbackURL := os.Getenv("CALLBACK_URL"); callbackURL != "" {
		c.Callback.URL = callbackURL
	}

	if storeBackend := os.Getenv("JOB_STORE_BACKEND"); storeBackend != "" {
		c.Jobs.StoreBackend = storeBackend
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if poolSize := os.Getenv("WORKERS_POOL_SIZE"); poolSize != "" {
		if n, err := strconv.Atoi(poolSize); err == nil {
			c.Workers.PoolSize = n
		}
	}

	if queueSize := os.Getenv("WORKERS_QUEUE_SIZE"); queueSize != "" {
		if n, err := strconv.Atoi(queueSize); err == nil {
			c.Workers.QueueSize = n
		}
	}
}
