package config

import (
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/user/rsabench/internal/benchmark"
)

const DefaultFile = "rsabench.yaml"

const TemplateProfile = `benchmark:
  # keygen, encrypt, decrypt
  operations:
    - keygen
  # size of each prime in bits; the modulus is about twice this
  bit_lengths:
    - 256
    - 512
  # iterations per worker
  iterations: 10
  # number of concurrent workers
  parallel: 1
  # Miller-Rabin rounds per prime candidate
  rounds: 20
  # non-zero makes runs reproducible; zero uses crypto/rand
  seed: 0
  show_progress: true
  # seconds per operation and bit length, 0 disables
  timeout: 300
  verbose: false

server:
  # http listen port
  port: "8080"
  # concurrent benchmark jobs
  workers: 2

log:
  # debug, info, warn, error
  level: "info"
  # rotated log file, empty disables
  file: ""
`

type Server struct {
	Port    string `mapstructure:"port" yaml:"port"`
	Workers int    `mapstructure:"workers" yaml:"workers"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

type Profile struct {
	Benchmark benchmark.Config `mapstructure:"benchmark" yaml:"benchmark"`
	Server    Server           `mapstructure:"server" yaml:"server"`
	Log       Log              `mapstructure:"log" yaml:"log"`
}

func DefaultProfile() *Profile {
	return &Profile{
		Benchmark: benchmark.DefaultConfig(),
		Server:    Server{Port: "8080", Workers: 2},
		Log:       Log{Level: "info"},
	}
}

// Load reads the profile at fpath over the defaults. Keys absent from the
// file keep their default values.
func Load(fpath string) (*Profile, error) {
	fstat, err := os.Stat(fpath)
	if err != nil {
		return nil, err
	}
	if fstat.IsDir() {
		return nil, errors.Errorf("the '%v' is not a file", fpath)
	}

	ext := path.Ext(fpath)
	if len(ext) < 2 {
		return nil, errors.Errorf("cannot infer the format of '%v'", fpath)
	}

	v := viper.New()
	setDefaults(v, DefaultProfile())
	v.SetConfigFile(fpath)
	v.SetConfigType(ext[1:])
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "[ReadInConfig]")
	}

	p := &Profile{}
	if err := v.Unmarshal(p); err != nil {
		return nil, errors.Wrap(err, "[Unmarshal]")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func setDefaults(v *viper.Viper, def *Profile) {
	b := def.Benchmark
	v.SetDefault("benchmark.operations", b.Operations)
	v.SetDefault("benchmark.bit_lengths", b.BitLengths)
	v.SetDefault("benchmark.iterations", b.Iterations)
	v.SetDefault("benchmark.parallel", b.Parallel)
	v.SetDefault("benchmark.rounds", b.Rounds)
	v.SetDefault("benchmark.seed", b.Seed)
	v.SetDefault("benchmark.show_progress", b.ShowProgress)
	v.SetDefault("benchmark.timeout", b.Timeout)
	v.SetDefault("benchmark.verbose", b.Verbose)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.workers", def.Server.Workers)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
}

func (p *Profile) Validate() error {
	if err := p.Benchmark.Validate(); err != nil {
		return errors.Wrap(err, "benchmark")
	}
	if len(p.Server.Port) == 0 {
		return errors.New("'server.port' can not be empty")
	}
	if p.Server.Workers < 1 {
		return errors.Errorf("'server.workers' must be at least 1, got %d", p.Server.Workers)
	}
	switch p.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level: %v", p.Log.Level)
	}
	return nil
}
