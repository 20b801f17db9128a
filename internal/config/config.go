package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "CALLTREE"

// Keys shared by the command line flags and the environment.
const (
	KeyTrace           = "trace"
	KeyFIFO            = "fifo"
	KeyNoFIFO          = "no-fifo"
	KeyLister          = "lister"
	KeySymbolsFile     = "symbols-file"
	KeyDemangler       = "demangler"
	KeyDemangleOptions = "demangle-options"
	KeyIndent          = "indent"
	KeyFolded          = "folded"
	KeyPprof           = "pprof"
	KeyLogLevel        = "log-level"
)

const (
	ListerNm   = "nm"
	ListerElf  = "elf"
	ListerFile = "file"

	DemanglerCxxFilt  = "c++filt"
	DemanglerItanium  = "itanium"
	DemanglerNone     = "none"
	DefaultTracePath  = "trace.out"
	DefaultIndentUnit = " "
)

type Config struct {
	Binary string

	TracePath string
	// FIFOPath is created as a named pipe before reading unless NoFIFO is
	// set. It defaults to TracePath.
	FIFOPath string
	NoFIFO   bool

	Lister      string
	SymbolsFile string

	Demangler       string
	DemangleOptions []string

	Indent     string
	FoldedPath string
	PprofPath  string
	LogLevel   slog.Level
}

// NewViper returns a viper instance with defaults and CALLTREE_* env lookup.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyTrace, DefaultTracePath)
	v.SetDefault(KeyLister, ListerNm)
	v.SetDefault(KeyDemangler, DemanglerCxxFilt)
	v.SetDefault(KeyIndent, DefaultIndentUnit)
	v.SetDefault(KeyLogLevel, "warn")
	return v
}

func Load(v *viper.Viper, binary string) (*Config, error) {
	cfg := &Config{
		Binary:          binary,
		TracePath:       v.GetString(KeyTrace),
		FIFOPath:        v.GetString(KeyFIFO),
		NoFIFO:          v.GetBool(KeyNoFIFO),
		Lister:          v.GetString(KeyLister),
		SymbolsFile:     v.GetString(KeySymbolsFile),
		Demangler:       v.GetString(KeyDemangler),
		DemangleOptions: v.GetStringSlice(KeyDemangleOptions),
		Indent:          v.GetString(KeyIndent),
		FoldedPath:      v.GetString(KeyFolded),
		PprofPath:       v.GetString(KeyPprof),
	}
	if cfg.FIFOPath == "" {
		cfg.FIFOPath = cfg.TracePath
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Binary == "" {
		return errors.New("binary is required")
	}
	if c.TracePath == "" {
		return fmt.Errorf("%s must not be empty", KeyTrace)
	}
	switch c.Lister {
	case ListerNm, ListerElf:
	case ListerFile:
		if c.SymbolsFile == "" {
			return fmt.Errorf("lister %q needs --%s", ListerFile, KeySymbolsFile)
		}
	default:
		return fmt.Errorf("unknown lister %q (want %s, %s or %s)", c.Lister, ListerNm, ListerElf, ListerFile)
	}
	switch c.Demangler {
	case DemanglerCxxFilt, DemanglerItanium, DemanglerNone:
	default:
		return fmt.Errorf("unknown demangler %q (want %s, %s or %s)", c.Demangler, DemanglerCxxFilt, DemanglerItanium, DemanglerNone)
	}
	if len(c.DemangleOptions) > 0 && c.Demangler != DemanglerItanium {
		return fmt.Errorf("--%s only applies to the %s demangler", KeyDemangleOptions, DemanglerItanium)
	}
	return nil
}
