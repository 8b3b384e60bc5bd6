// Package config loads the routekit.json project configuration.
package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"

	"github.com/routekit-dev/routekit/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "routekit.json"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultRoutesDir is the default routes directory.
	DefaultRoutesDir = "routes"

	// DefaultStylesDir is the default stylesheet directory.
	DefaultStylesDir = "styles"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"
)

// Config represents the complete routekit.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Origin is the application origin, e.g. "https://app.example.com".
	// Redirect targets outside this origin become external navigations.
	Origin string `json:"origin,omitempty"`

	// Routes is the path to the routes directory.
	Routes string `json:"routes,omitempty"`

	// Styles is the path to the stylesheet directory.
	Styles string `json:"styles,omitempty"`

	// Output is the build output directory.
	Output string `json:"output,omitempty"`

	// StylePrefix is the URL prefix resolved stylesheets are served
	// under, e.g. "/styles/".
	StylePrefix string `json:"stylePrefix,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// Publish contains asset publication configuration.
	Publish PublishConfig `json:"publish,omitempty"`
}

// DevConfig configures the development server.
type DevConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// PublishConfig configures S3 asset publication for `routekit build --publish`.
type PublishConfig struct {
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Origin:      "http://localhost:3000",
		Routes:      DefaultRoutesDir,
		Styles:      DefaultStylesDir,
		Output:      DefaultOutput,
		StylePrefix: "/styles/",
		Dev: DevConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
	}
}

// Load reads routekit.json from dir, applying defaults for missing fields.
// A missing file is not an error; the defaults are returned.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Newf(errors.CategoryConfig, "reading %s", path).Wrap(err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Newf(errors.CategoryConfig, "parsing %s", path).Wrap(err).
			WithSuggestion("routekit.json must be a JSON object; check for trailing commas")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Origin == "" {
		c.Origin = d.Origin
	}
	if c.Routes == "" {
		c.Routes = d.Routes
	}
	if c.Styles == "" {
		c.Styles = d.Styles
	}
	if c.Output == "" {
		c.Output = d.Output
	}
	if c.StylePrefix == "" {
		c.StylePrefix = d.StylePrefix
	}
	if c.Dev.Host == "" {
		c.Dev.Host = d.Dev.Host
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = d.Dev.Port
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Newf(errors.CategoryConfig, "invalid origin %q", c.Origin).
			WithSuggestion(`origin must be an absolute URL like "https://app.example.com"`)
	}
	if c.Dev.Port < 1 || c.Dev.Port > 65535 {
		return errors.Newf(errors.CategoryConfig, "invalid dev port %d", c.Dev.Port)
	}
	return nil
}

// OriginURL returns the parsed application origin.
// Validate must have succeeded first.
func (c *Config) OriginURL() *url.URL {
	u, _ := url.Parse(c.Origin)
	return u
}
