package game

import (
	"fmt"
	"strconv"
	"time"

	"github.com/samdwyer/towerpath/internal/world"
)

// Environment variables read by LoadConfig.
const (
	EnvSeed         = "TOWERPATH_SEED"
	EnvWidth        = "TOWERPATH_WIDTH"
	EnvHeight       = "TOWERPATH_HEIGHT"
	EnvAgents       = "TOWERPATH_AGENTS"
	EnvRepathMS     = "TOWERPATH_REPATH_MS"
	EnvTickMS       = "TOWERPATH_TICK_MS"
	EnvIncludeWater = "TOWERPATH_INCLUDE_WATER"
	EnvCellSize     = "TOWERPATH_CELL_SIZE"
	EnvTerrainFile  = "TOWERPATH_TERRAIN_FILE"
	EnvSampleRatio  = "TOWERPATH_TRACE_SAMPLE_RATIO"
)

// Config holds game configuration options.
type Config struct {
	// Seed for random number generation. Used for reproducible level generation.
	// A seed of 0 means a random seed will be generated.
	Seed int64

	Width, Height int
	Agents        int

	// RepathInterval is how often each agent re-plans its path.
	RepathInterval time.Duration
	// TickInterval is the simulation step; agents move one cell per tick.
	TickInterval time.Duration

	// IncludeWater lets the default agents swim.
	IncludeWater bool
	// CellSize scales grid paths to world coordinates.
	CellSize float64

	// TerrainFile overrides the embedded terrain definitions when set.
	TerrainFile string
	// TraceSampleRatio is passed to telemetry setup.
	TraceSampleRatio float64
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Width:            world.DefaultWidth,
		Height:           world.DefaultHeight,
		Agents:           3,
		RepathInterval:   300 * time.Millisecond,
		TickInterval:     100 * time.Millisecond,
		CellSize:         1,
		TraceSampleRatio: 0.1,
	}
}

// LoadConfig reads the configuration from the environment through getenv,
// usually os.Getenv. Unset variables keep their defaults; malformed ones are errors.
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	p := envParser{getenv: getenv}

	p.parseInt64(EnvSeed, &cfg.Seed)
	p.parseInt(EnvWidth, &cfg.Width)
	p.parseInt(EnvHeight, &cfg.Height)
	p.parseInt(EnvAgents, &cfg.Agents)
	p.parseMillis(EnvRepathMS, &cfg.RepathInterval)
	p.parseMillis(EnvTickMS, &cfg.TickInterval)
	p.parseBool(EnvIncludeWater, &cfg.IncludeWater)
	p.parseFloat(EnvCellSize, &cfg.CellSize)
	p.parseFloat(EnvSampleRatio, &cfg.TraceSampleRatio)
	cfg.TerrainFile = getenv(EnvTerrainFile)

	if p.err != nil {
		return Config{}, p.err
	}
	return cfg, cfg.Validate()
}

// Validate checks that the configuration can produce a playable board.
func (c Config) Validate() error {
	switch {
	case c.Width < 2*minLevelSide || c.Height < minLevelSide:
		return fmt.Errorf("level %dx%d too small, need at least %dx%d", c.Width, c.Height, 2*minLevelSide, minLevelSide)
	case c.Agents < 0:
		return fmt.Errorf("agent count %d is negative", c.Agents)
	case c.RepathInterval <= 0:
		return fmt.Errorf("repath interval %v must be positive", c.RepathInterval)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick interval %v must be positive", c.TickInterval)
	case c.CellSize <= 0:
		return fmt.Errorf("cell size %v must be positive", c.CellSize)
	}
	return nil
}

// minLevelSide fits one BSP room with its wall border.
const minLevelSide = 12

// envParser records the first parse error and skips the rest.
type envParser struct {
	getenv func(string) string
	err    error
}

func (p *envParser) lookup(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := p.getenv(key)
	return v, v != ""
}

func (p *envParser) fail(key, value string, err error) {
	p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
}

func (p *envParser) parseInt64(key string, dst *int64) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *envParser) parseInt(key string, dst *int) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *envParser) parseMillis(key string, dst *time.Duration) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = time.Duration(n) * time.Millisecond
	}
}

func (p *envParser) parseBool(key string, dst *bool) {
	if v, ok := p.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (p *envParser) parseFloat(key string, dst *float64) {
	if v, ok := p.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = f
	}
}
