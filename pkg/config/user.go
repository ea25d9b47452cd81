package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/dirmirror/pkg/errors"
	"github.com/sidkik/dirmirror/pkg/mirror"
)

const (
	// UserConfigPath is the default path to the dirmirror user config.
	UserConfigPath = "~/.dirmirror.yaml"

	// InitialUserConfigVersion is the first version of the dirmirror user
	// config. Config files that do not specify a version will default to
	// this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the dirmirror
	// user config of the current binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains optional settings that apply to every run. The file doesn't
// need to exist.
type User struct {
	Version string `json:"version,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `json:"verbose,omitempty"`

	// Hash is the name of the fingerprint algorithm.
	Hash string `json:"hash,omitempty"`

	// Watch starts a pass as soon as the source tree changes, rather than
	// only on the interval.
	Watch bool `json:"watch,omitempty"`
}

// userConfigErrTemplate is shown when the user config isn't valid yaml, has
// fields of the wrong type, or has unknown fields. The yaml library loses the
// context of where the error occurred, so the parser's message is passed on
// as-is.
const userConfigErrTemplate = "The dirmirror config %q could not be parsed.\n" +
	"The supported settings are `version`, `verbose`, `hash`, and `watch`.\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

type unsupportedVersionError struct {
	path, actual string
}

func (err unsupportedVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err unsupportedVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The dirmirror config %q has version %q, but this "+
		"version of dirmirror only reads %q.\n"+
		"Update the version or delete the file.",
		err.path, err.actual, SupportedUserConfigVersion)
}

// DefaultUser returns the settings used when there is no user config.
func DefaultUser() User {
	return User{
		Version: SupportedUserConfigVersion,
		Hash:    mirror.SHA512,
	}
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser parses the User config stored in the default path. If the file
// doesn't exist, the defaults are returned.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config, err := readUser(path)
	if err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return DefaultUser(), nil
		}
		return User{}, errors.WithContext(err, "parse")
	}

	if config.Hash == "" {
		config.Hash = mirror.SHA512
	}
	if _, err := mirror.NewHasher(fs, config.Hash); err != nil {
		return User{}, errors.NewFriendlyError("Invalid hash %q in %q. "+
			"Supported values are %q and %q.", config.Hash, path, mirror.SHA512, mirror.BLAKE2b)
	}
	return config, nil
}

// readUser reads the user config at `path`. Settings that aren't in the file
// keep their zero value, except for the version, which defaults to the initial
// version.
func readUser(path string) (User, error) {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return User{}, errors.FileNotFound{Path: path}
		}
		return User{}, errors.WithContext(err, "read file")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := yaml.Unmarshal(configBytes, &config); err != nil {
		return User{}, errors.NewFriendlyError(userConfigErrTemplate, path, err)
	}

	// Check the version before rejecting unknown fields, since fields may
	// have been added or removed between versions.
	if config.Version != SupportedUserConfigVersion {
		return User{}, unsupportedVersionError{path: path, actual: config.Version}
	}

	if err := yaml.UnmarshalStrict(configBytes, &config, yaml.DisallowUnknownFields); err != nil {
		return User{}, errors.NewFriendlyError(userConfigErrTemplate, path, err)
	}
	return config, nil
}

// WriteUser writes `cfg` to the default path, replacing any existing user
// config.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	if _, err := mirror.NewHasher(fs, cfg.Hash); err != nil {
		return errors.NewFriendlyError("Invalid hash %q. Supported values are %q and %q.",
			cfg.Hash, mirror.SHA512, mirror.BLAKE2b)
	}

	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's dirmirror configuration.
// This path is expanded, so it can be directly passed to file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
