package stress

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

var ErrInvalidConfig = errors.New("[stress] invalid config")

type AllocatorKind string

const (
	HeapAllocator  AllocatorKind = "heap"
	PoolAllocator  AllocatorKind = "pool"
	ArenaAllocator AllocatorKind = "arena"
)

// Config of a verification run. Every tree is driven by one task, the
// tasks share a worker pool of Workers goroutines.
type Config struct {
	Workers    int           `yaml:"workers"`
	Trees      int           `yaml:"trees"`
	Ops        int           `yaml:"ops"`
	KeySpace   uint64        `yaml:"keySpace"`
	EraseRatio float64       `yaml:"eraseRatio"`
	CheckEvery int           `yaml:"checkEvery"`
	Seed       uint64        `yaml:"seed"`
	Allocator  AllocatorKind `yaml:"allocator"`
	Stats      bool          `yaml:"stats"`
}

func DefaultConfig() Config {
	return Config{
		Workers:    4,
		Trees:      16,
		Ops:        100_000,
		KeySpace:   1 << 12,
		EraseRatio: 0.4,
		CheckEvery: 1000,
		Seed:       1,
		Allocator:  HeapAllocator,
	}
}

func (cfg Config) Validate() error {
	var merr error
	if cfg.Workers <= 0 {
		merr = multierr.Append(merr, fmt.Errorf("%w: workers %d", ErrInvalidConfig, cfg.Workers))
	}
	if cfg.Trees <= 0 {
		merr = multierr.Append(merr, fmt.Errorf("%w: trees %d", ErrInvalidConfig, cfg.Trees))
	}
	if cfg.Ops < 0 {
		merr = multierr.Append(merr, fmt.Errorf("%w: ops %d", ErrInvalidConfig, cfg.Ops))
	}
	if cfg.KeySpace == 0 {
		merr = multierr.Append(merr, fmt.Errorf("%w: empty key space", ErrInvalidConfig))
	}
	if cfg.EraseRatio < 0 || cfg.EraseRatio > 1 {
		merr = multierr.Append(merr, fmt.Errorf("%w: erase ratio %v out of [0, 1]", ErrInvalidConfig, cfg.EraseRatio))
	}
	if cfg.CheckEvery < 0 {
		merr = multierr.Append(merr, fmt.Errorf("%w: check every %d", ErrInvalidConfig, cfg.CheckEvery))
	}
	switch cfg.Allocator {
	case HeapAllocator, PoolAllocator, ArenaAllocator:
	default:
		merr = multierr.Append(merr, fmt.Errorf("%w: allocator %q", ErrInvalidConfig, cfg.Allocator))
	}
	return merr
}

// ParseConfig overlays the YAML document on DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, infra.WrapErrorStackWithMessage(err, "[stress] unable to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, infra.WrapErrorStackWithMessage(err, "[stress] unable to read config "+path)
	}
	return ParseConfig(data)
}

// newAllocator returns a fresh allocator per tree, the arena and the
// heap ones are not safe to share between tasks.
func newAllocator(kind AllocatorKind) tree.NodeAllocator[uint64, uint64] {
	switch kind {
	case PoolAllocator:
		return tree.NewPoolAllocator[uint64, uint64]()
	case ArenaAllocator:
		return tree.NewArenaAllocator[uint64, uint64](0)
	default:
	}
	return tree.NewHeapAllocator[uint64, uint64]()
}
