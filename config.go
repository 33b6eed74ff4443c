package chainsmith

import (
	"bytes"
	"errors"
	"io"
	"os"

	hqgoerrors "github.com/hueristiq/hq-go-errors"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigPathEnvironmentVariable names the variable consulted by ConfigPathFromEnvironment.
	ConfigPathEnvironmentVariable = "CHAINSMITH_CONFIG"
	// DefaultConfigPath is used when ConfigPathEnvironmentVariable is unset.
	DefaultConfigPath = "./config/chainsmith.yml"
)

// Config describes a CA certificate in YAML.
//
//	subject:
//	  C: US
//	  CN: yourdomain.com
//	subject_alternative_names:
//	  - localhost
//	certs_path: certs.yml
//	private_keys_path: private_keys.yml
//
// The subject may also be written as a single "/C=US/CN=yourdomain.com" string.
type Config struct {
	Subject                 *Subject `yaml:"subject"`
	SubjectAlternativeNames []string `yaml:"subject_alternative_names"`
	CertificatesPath        string   `yaml:"certs_path"`
	PrivateKeysPath         string   `yaml:"private_keys_path"`
}

// ConfigPathFromEnvironment returns $CHAINSMITH_CONFIG, or DefaultConfigPath when it is unset or empty.
func ConfigPathFromEnvironment() string {
	if path := os.Getenv(ConfigPathEnvironmentVariable); path != "" {
		return path
	}

	return DefaultConfigPath
}

// LoadConfig reads and decodes a YAML config file.
//
// Parameters:
//   - path (string): The config file.
//
// Returns:
//   - cfg (*Config): The decoded config.
//   - err (error): An error with stack trace and metadata if the file cannot be read or decoded.
func LoadConfig(path string) (cfg *Config, err error) {
	var content []byte

	content, err = os.ReadFile(path)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to read config file", hqgoerrors.WithField("path", path))

		return
	}

	cfg, err = ParseConfig(content)
	if err != nil {
		err = hqgoerrors.Wrap(err, "failed to parse config file", hqgoerrors.WithField("path", path))

		return
	}

	return
}

// ParseConfig decodes YAML config content. Unknown fields are rejected; empty content yields an
// empty Config.
func ParseConfig(content []byte) (cfg *Config, err error) {
	cfg = &Config{}

	decoder := yaml.NewDecoder(bytes.NewReader(content))

	decoder.KnownFields(true)

	if err = decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		cfg = nil

		err = hqgoerrors.Wrap(err, "failed to decode YAML config")

		return
	}

	err = nil

	return
}

// CertificateAuthorityParameters builds parameters from the config: the subject becomes the
// Distinguished Name and the SANs, when present, replace the defaults.
//
// Parameters:
//   - options (...CertificateAuthorityParametersOptionFunc): Options for the new parameters.
//
// Returns:
//   - parameters (*CertificateAuthorityParameters): Parameters ready for Generate.
func (cfg *Config) CertificateAuthorityParameters(options ...CertificateAuthorityParametersOptionFunc) (parameters *CertificateAuthorityParameters) {
	parameters = NewCertificateAuthorityParameters(options...)

	if cfg.Subject != nil {
		subject := cfg.Subject.Clone()

		subject._Logger = parameters._Logger

		parameters._DistinguishedName = append(parameters._DistinguishedName, subject.DistinguishedName()...)
	}

	if cfg.SubjectAlternativeNames != nil {
		parameters.WithSAN(cfg.SubjectAlternativeNames)
	}

	return
}
