// Package config loads the application configuration from INI files,
// environment variables and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
	"github.com/randomchars42/Sortingshop/internal/validation"
)

// EnvPrefix prefixes environment overrides: SORTINGSHOP_METADATA_USE_SIDECAR.
const EnvPrefix = "SORTINGSHOP"

// Keys of the configuration, "Section.key" as in the INI file.
const (
	KeyEnvironment = "App.environment"
	KeyLogLevel    = "App.log_level"
	KeyLogFormat   = "App.log_format"

	KeyWorkingDir      = "Paths.working_dir"
	KeyPathTagsets     = "Paths.path_tagsets"
	KeyMediaExtensions = "Paths.media_extensions"

	KeyImageMaxSize              = "UI.image_max_size"
	KeyMetadataFieldSizeVertical = "UI.metadata_field_size_vertical"

	KeyRenameFiles     = "Renaming.rename_files"
	KeyRenameCommand   = "Renaming.rename_command"
	KeyDetectScheme    = "Renaming.detect_scheme"
	KeyCounterLength   = "Renaming.counter_length"
	KeyNameHasCounter  = "Renaming.mediafile_name_has_counter"
	KeyFieldTags       = "Metadata.field_tags"
	KeyUseSidecar      = "Metadata.use_sidecar"
	KeySoftCheck       = "Metadata.soft_check"
	KeyPruneMetadata   = "Metadata.prune_metadata"
	KeyMandatory       = "Metadata.mandatory_metadata"
	KeyRemove          = "Metadata.remove_metadata"
	KeyApplyDefaultSet = "Metadata.apply_default_tagset"

	KeySortingRegex = "Sorting.sorting_tag_regex"
	KeySortingSub   = "Sorting.sorting_tag_sub"
	KeySortingField = "Sorting.sorting_field"
	KeyTargetDir    = "Sorting.target_dir"

	KeyExiftoolBinary  = "Exiftool.binary"
	KeyExiftoolTimeout = "Exiftool.timeout"

	KeyServerEnabled      = "Server.enabled"
	KeyServerListen       = "Server.listen"
	KeyServerOrigins      = "Server.allowed_origins"
	KeyServerReadTimeout  = "Server.read_timeout"
	KeyServerWriteTimeout = "Server.write_timeout"
)

// defaults holds the built-in value of every known key.
var defaults = map[string]string{
	KeyEnvironment: "development",
	KeyLogLevel:    "info",
	KeyLogFormat:   "",

	KeyWorkingDir:      "",
	KeyPathTagsets:     "",
	KeyMediaExtensions: ".jpg .jpeg .png .cr2 .tif .tiff",

	KeyImageMaxSize:              "400",
	KeyMetadataFieldSizeVertical: "300",

	KeyRenameFiles:     "true",
	KeyRenameCommand:   `${DateTimeOriginal;DateFmt("%Y%m%d_%H%M%S")}`,
	KeyDetectScheme:    `^[0-9]{8}_[0-9]{6}(_[0-9]+)?\.[^.]+$`,
	KeyCounterLength:   "3",
	KeyNameHasCounter:  "false",
	KeyFieldTags:       "HierarchicalSubject",
	KeyUseSidecar:      "true",
	KeySoftCheck:       "true",
	KeyPruneMetadata:   "false",
	KeyMandatory:       "DateTimeOriginal CreateDate Make Model",
	KeyRemove:          "Subject Keywords",
	KeyApplyDefaultSet: "true",

	KeySortingRegex: `.*([0-9]{4} [^\/\\]+).*`,
	KeySortingSub:   `\1`,
	KeySortingField: "",
	KeyTargetDir:    "",

	KeyExiftoolBinary:  "exiftool",
	KeyExiftoolTimeout: "30s",

	KeyServerEnabled:      "false",
	KeyServerListen:       "127.0.0.1:8642",
	KeyServerOrigins:      "",
	KeyServerReadTimeout:  "15s",
	KeyServerWriteTimeout: "60s",
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"env":         KeyEnvironment,
	"log-level":   KeyLogLevel,
	"log-format":  KeyLogFormat,
	"working-dir": KeyWorkingDir,
	"tagsets":     KeyPathTagsets,
	"exiftool":    KeyExiftoolBinary,
	"target-dir":  KeyTargetDir,
	"serve":       KeyServerEnabled,
	"listen":      KeyServerListen,
}

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Paths    PathsConfig
	UI       UIConfig
	Renaming RenamingConfig
	Metadata MetadataConfig
	Sorting  SortingConfig
	Exiftool ExiftoolConfig
	Server   ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `ini:"environment" validate:"oneof=development production"`
	LogLevel    string `ini:"log_level" validate:"oneof=debug info warn warning error"`
	// LogFormat is pretty or json; empty picks by environment.
	LogFormat string `ini:"log_format" validate:"omitempty,oneof=pretty json"`
}

// PathsConfig locates the working directory and the global tagsets.
type PathsConfig struct {
	WorkingDir string `ini:"working_dir" validate:"required"`
	// Tagsets is the global tagset file; empty disables global tagsets.
	Tagsets         string   `ini:"path_tagsets"`
	MediaExtensions []string `ini:"media_extensions" validate:"min=1,dive,startswith=."`
}

// UIConfig is passed through to front ends.
type UIConfig struct {
	ImageMaxSize              int `ini:"image_max_size" json:"imageMaxSize" validate:"gte=1"`
	MetadataFieldSizeVertical int `ini:"metadata_field_size_vertical" json:"metadataFieldSizeVertical" validate:"gte=1"`
}

// RenamingConfig controls file renaming during preparation.
type RenamingConfig struct {
	RenameFiles bool `ini:"rename_files"`
	// RenameCommand is the exiftool print template producing the new stem.
	RenameCommand  string         `ini:"rename_command" validate:"required_if=RenameFiles true"`
	DetectScheme   *regexp.Regexp `ini:"detect_scheme"`
	CounterLength  int            `ini:"counter_length" validate:"gte=1,lte=9"`
	NameHasCounter bool           `ini:"mediafile_name_has_counter"`
}

// MetadataConfig controls where metadata lives and which fields are kept.
type MetadataConfig struct {
	FieldTags          string   `ini:"field_tags" validate:"required"`
	UseSidecar         bool     `ini:"use_sidecar"`
	SoftCheck          bool     `ini:"soft_check"`
	PruneMetadata      bool     `ini:"prune_metadata"`
	MandatoryMetadata  []string `ini:"mandatory_metadata"`
	RemoveMetadata     []string `ini:"remove_metadata"`
	ApplyDefaultTagset bool     `ini:"apply_default_tagset"`
}

// SortingConfig describes how sort keys are derived from tags.
type SortingConfig struct {
	SortingTagRegex *regexp.Regexp `ini:"sorting_tag_regex"`
	SortingTagSub   string         `ini:"sorting_tag_sub" validate:"required"`
	SortingField    string         `ini:"sorting_field" validate:"required"`
	TargetDir       string         `ini:"target_dir" validate:"required"`
}

// ExiftoolConfig locates the metadata tool.
type ExiftoolConfig struct {
	Binary  string        `ini:"binary" validate:"required"`
	Timeout time.Duration `ini:"timeout" validate:"gt=0"`
}

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Enabled        bool          `ini:"enabled"`
	Listen         string        `ini:"listen" validate:"required,hostname_port"`
	AllowedOrigins []string      `ini:"allowed_origins"`
	ReadTimeout    time.Duration `ini:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `ini:"write_timeout" validate:"gt=0"`
}

// Load builds the configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority), a positional argument sets the working directory.
// 2. Environment variables (SORTINGSHOP_SECTION_KEY).
// 3. The user config, $XDG_CONFIG_HOME/sortingshop/config.ini.
// 4. The file named by -config.
// 5. Default values (lowest priority).
func Load(args []string, output io.Writer) (*Config, error) {
	flags := flag.NewFlagSet("sortingshop", flag.ContinueOnError)
	if output != nil {
		flags.SetOutput(output)
	}

	configFile := flags.String("config", "", "Path to a config.ini file")
	flags.String("env", "", "Environment (development, production)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (pretty, json)")
	flags.String("working-dir", "", "Directory holding the media files")
	flags.String("tagsets", "", "Path to the global tagset file")
	flags.String("exiftool", "", "Path to the exiftool binary")
	flags.String("target-dir", "", "Root directory for sorted files")
	flags.Bool("serve", false, "Serve the HTTP control surface instead of the console")
	flags.String("listen", "", "Address of the HTTP control surface")

	if err := flags.Parse(args); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeConfig, "invalid command line")
	}

	vp := viper.New()
	for key, value := range defaults {
		vp.SetDefault(key, value)
	}

	if *configFile != "" {
		if err := loadINI(vp, *configFile, true); err != nil {
			return nil, err
		}
	}
	if path := UserConfigPath(); path != "" {
		if err := loadINI(vp, path, false); err != nil {
			return nil, err
		}
	}

	applyEnv(vp)

	flags.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			vp.Set(key, f.Value.String())
		}
	})
	if flags.NArg() > 0 {
		vp.Set(KeyWorkingDir, flags.Arg(0))
	}

	return Decode(vp)
}

// UserConfigPath returns $XDG_CONFIG_HOME/sortingshop/config.ini, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func UserConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "sortingshop", "config.ini")
}

// loadINI copies every key of an INI file into vp as "Section.key".
func loadINI(vp *viper.Viper, path string, required bool) error {
	// Templates and patterns may contain ';' and '#', so only blank-prefixed
	// inline comments are stripped.
	file, err := ini.LoadSources(ini.LoadOptions{SpaceBeforeInlineComment: true}, path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return domainerrors.Wrapf(err, domainerrors.CodeConfig, "load config file %s", path)
	}

	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		for _, key := range section.Keys() {
			vp.Set(section.Name()+"."+key.Name(), key.Value())
		}
	}
	return nil
}

// applyEnv overrides known keys from SORTINGSHOP_SECTION_KEY variables.
func applyEnv(vp *viper.Viper) {
	replacer := strings.NewReplacer(".", "_")
	for key := range defaults {
		name := EnvPrefix + "_" + replacer.Replace(strings.ToUpper(key))
		if value, found := os.LookupEnv(name); found {
			vp.Set(key, value)
		}
	}
}

// Decode converts the merged key space into a typed, validated Config.
// Every malformed value is reported, not only the first.
func Decode(vp *viper.Viper) (*Config, error) {
	d := &decoder{vp: vp}

	cfg := &Config{
		App: AppConfig{
			Environment: d.str(KeyEnvironment),
			LogLevel:    strings.ToLower(d.str(KeyLogLevel)),
			LogFormat:   strings.ToLower(d.str(KeyLogFormat)),
		},
		Paths: PathsConfig{
			WorkingDir:      d.str(KeyWorkingDir),
			Tagsets:         d.str(KeyPathTagsets),
			MediaExtensions: lowerAll(d.list(KeyMediaExtensions)),
		},
		UI: UIConfig{
			ImageMaxSize:              d.integer(KeyImageMaxSize),
			MetadataFieldSizeVertical: d.integer(KeyMetadataFieldSizeVertical),
		},
		Renaming: RenamingConfig{
			RenameFiles:    d.boolean(KeyRenameFiles),
			RenameCommand:  d.str(KeyRenameCommand),
			DetectScheme:   d.pattern(KeyDetectScheme),
			CounterLength:  d.integer(KeyCounterLength),
			NameHasCounter: d.boolean(KeyNameHasCounter),
		},
		Metadata: MetadataConfig{
			FieldTags:          d.str(KeyFieldTags),
			UseSidecar:         d.boolean(KeyUseSidecar),
			SoftCheck:          d.boolean(KeySoftCheck),
			PruneMetadata:      d.boolean(KeyPruneMetadata),
			MandatoryMetadata:  d.list(KeyMandatory),
			RemoveMetadata:     d.list(KeyRemove),
			ApplyDefaultTagset: d.boolean(KeyApplyDefaultSet),
		},
		Sorting: SortingConfig{
			SortingTagRegex: d.pattern(KeySortingRegex),
			SortingTagSub:   d.str(KeySortingSub),
			SortingField:    d.str(KeySortingField),
			TargetDir:       d.str(KeyTargetDir),
		},
		Exiftool: ExiftoolConfig{
			Binary:  d.str(KeyExiftoolBinary),
			Timeout: d.duration(KeyExiftoolTimeout),
		},
		Server: ServerConfig{
			Enabled:        d.boolean(KeyServerEnabled),
			Listen:         d.str(KeyServerListen),
			AllowedOrigins: d.list(KeyServerOrigins),
			ReadTimeout:    d.duration(KeyServerReadTimeout),
			WriteTimeout:   d.duration(KeyServerWriteTimeout),
		},
	}

	if len(d.errs) > 0 {
		return nil, domainerrors.Wrap(errors.Join(d.errs...), domainerrors.CodeConfig, "invalid configuration")
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeConfig, "invalid path")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	if err := validation.New().Validate(c); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeConfig, "config validation failed")
	}

	if c.Sorting.SortingTagRegex == nil {
		return domainerrors.Configf("%s is required", KeySortingRegex)
	}
	if c.Renaming.DetectScheme == nil && c.Renaming.RenameFiles && c.Metadata.SoftCheck {
		return domainerrors.Configf("%s is required when renaming with soft check", KeyDetectScheme)
	}
	return nil
}

// expandPaths makes all paths absolute and fills path defaults that depend
// on other paths.
func (c *Config) expandPaths() error {
	if c.Paths.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		c.Paths.WorkingDir = wd
	}

	var err error
	if c.Paths.WorkingDir, err = expandPath(c.Paths.WorkingDir, ""); err != nil {
		return err
	}
	if c.Paths.Tagsets, err = expandPath(c.Paths.Tagsets, ""); err != nil {
		return err
	}
	if c.Sorting.TargetDir, err = expandPath(c.Sorting.TargetDir, filepath.Dir(c.Paths.WorkingDir)); err != nil {
		return err
	}

	if c.Sorting.SortingField == "" {
		c.Sorting.SortingField = c.Metadata.FieldTags
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// decoder reads typed values from viper and collects parse failures.
type decoder struct {
	vp   *viper.Viper
	errs []error
}

func (d *decoder) str(key string) string {
	return strings.TrimSpace(d.vp.GetString(key))
}

func (d *decoder) list(key string) []string {
	return strings.Fields(d.vp.GetString(key))
}

// boolean accepts the spellings of INI files: true/false, yes/no, on/off, 1/0.
func (d *decoder) boolean(key string) bool {
	raw := strings.ToLower(d.str(key))
	switch raw {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
	}
	return v
}

func (d *decoder) integer(key string) int {
	raw := d.str(key)
	v, err := strconv.Atoi(raw)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
	}
	return v
}

func (d *decoder) duration(key string) time.Duration {
	raw := d.str(key)
	v, err := time.ParseDuration(raw)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %q is not a duration", key, raw))
	}
	return v
}

// pattern compiles the value of key. An empty value yields nil.
func (d *decoder) pattern(key string) *regexp.Regexp {
	raw := d.vp.GetString(key)
	if raw == "" {
		return nil
	}
	re, err := regexp.Compile(raw)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %w", key, err))
	}
	return re
}

func lowerAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}
