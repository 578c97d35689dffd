package seamscope

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML description of the areas to analyze plus engine
// tunables. Per-game/emulator specifics (surface pools, addresses) live in
// whatever produced the file; the engine only sees geometry.
type Config struct {
	Params ParamsCfg `yaml:"params"`
	Areas  []AreaCfg `yaml:"areas"`
}

// ParamsCfg mirrors Params in YAML; zero values take engine defaults.
type ParamsCfg struct {
	Workers          int `yaml:"workers,omitempty"`
	BatchSize        int `yaml:"batchSize,omitempty"`
	InteriorSamples  int `yaml:"interiorSamples,omitempty"`
	OracleRetries    int `yaml:"oracleRetries,omitempty"`
	SeamFailureLimit int `yaml:"seamFailureLimit,omitempty"`
}

// Build converts the YAML block to engine params with defaults applied.
func (p ParamsCfg) Build() Params {
	return Params{
		Workers:          p.Workers,
		BatchSize:        p.BatchSize,
		SeamFailureLimit: p.SeamFailureLimit,
		Classifier: ClassifierParams{
			InteriorSamples: p.InteriorSamples,
			OracleRetries:   p.OracleRetries,
		},
	}.withDefaults()
}

// AreaCfg is one named region and its collision surfaces.
type AreaCfg struct {
	Name     string       `yaml:"name"`
	Surfaces []SurfaceCfg `yaml:"surfaces"`
}

// SurfaceCfg is one collision triangle: three s16 vertices and a normal.
type SurfaceCfg struct {
	Vertices [3][3]int16 `yaml:"vertices"`
	Normal   [3]float32  `yaml:"normal"`
}

// Build converts the YAML surface to the engine type.
func (s SurfaceCfg) Build() Surface {
	return Surface{
		Vertex1: s.Vertices[0],
		Vertex2: s.Vertices[1],
		Vertex3: s.Vertices[2],
		Normal:  s.Normal,
	}
}

// BuildSurfaces converts an area's surface list.
func (a AreaCfg) BuildSurfaces() []Surface {
	out := make([]Surface, len(a.Surfaces))
	for i, s := range a.Surfaces {
		out[i] = s.Build()
	}
	return out
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses and validates YAML config bytes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Areas) == 0 {
		return nil, fmt.Errorf("no areas defined")
	}
	names := make(map[string]struct{}, len(cfg.Areas))
	for i, a := range cfg.Areas {
		if a.Name == "" {
			return nil, fmt.Errorf("area %d: empty name", i)
		}
		if _, dup := names[a.Name]; dup {
			return nil, fmt.Errorf("area %q defined twice", a.Name)
		}
		names[a.Name] = struct{}{}
	}
	return &cfg, nil
}
