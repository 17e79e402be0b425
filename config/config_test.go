package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if got, want := len(cfg.Derived.SurvivalRate), 4*cfg.MaxAge; got != want {
		t.Errorf("survival table length = %d, want %d", got, want)
	}
	if got, want := len(cfg.Derived.WeightForAge), cfg.MaxAge; got != want {
		t.Errorf("weight table length = %d, want %d", got, want)
	}
	if got, want := len(cfg.Derived.Migration), cfg.MaxAge; got != want {
		t.Errorf("migration table length = %d, want %d", got, want)
	}
	if cfg.Derived.NumLocations != 4 {
		t.Errorf("num locations = %d, want 4", cfg.Derived.NumLocations)
	}

	for i, s := range cfg.Derived.SurvivalRate {
		if s < 0 || s > 1 {
			t.Errorf("survival rate [%d] = %v, outside [0,1]", i, s)
		}
	}

	// Elongation repeats the final configured entry.
	last := cfg.Derived.SurvivalRate[len(cfg.Mortality.Natural)-1]
	for i := len(cfg.Mortality.Natural); i < len(cfg.Derived.SurvivalRate); i++ {
		if cfg.Derived.SurvivalRate[i] != last {
			t.Fatalf("survival rate [%d] = %v, want elongated value %v", i, cfg.Derived.SurvivalRate[i], last)
		}
	}
	lastMatrix := cfg.Migration.Matrices[len(cfg.Migration.Matrices)-1]
	for age := len(cfg.Migration.Matrices); age < cfg.MaxAge; age++ {
		for from := range lastMatrix {
			for to := range lastMatrix[from] {
				if cfg.Derived.Migration[age][from][to] != lastMatrix[from][to] {
					t.Fatalf("migration [age %d] not elongated from last matrix", age)
				}
			}
		}
	}
}

func TestWeightCurve(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	weight := cfg.Derived.WeightForAge
	if weight[0] != 0 {
		t.Errorf("weight(0) = %v, want 0", weight[0])
	}
	for age := 1; age < len(weight); age++ {
		if weight[age] <= weight[age-1] {
			t.Errorf("weight not strictly increasing at age %d: %v <= %v",
				age, weight[age], weight[age-1])
		}
		if weight[age] >= cfg.Growth.MaxWeight {
			t.Errorf("weight(%d) = %v, want < max_weight %v",
				age, weight[age], cfg.Growth.MaxWeight)
		}
	}
}

func TestLoadExplicitWeightTable(t *testing.T) {
	cfg := loadOverride(t, `
growth:
  max_weight: 500.0
  rate: 0.08
  weight_for_age: [0, 10, 20]
`)
	if cfg.Derived.WeightForAge[1] != 10 {
		t.Errorf("weight(1) = %v, want explicit table value 10", cfg.Derived.WeightForAge[1])
	}
	// Explicit tables elongate like computed ones.
	if got := cfg.Derived.WeightForAge[cfg.MaxAge-1]; got != 20 {
		t.Errorf("weight(max) = %v, want elongated value 20", got)
	}
}

func TestLoadRejectsMalformedBundles(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"non-stochastic migration row",
			`
migration:
  matrices:
    - - [0.5, 0.4]
      - [0.5, 0.5]
breeding_places: 1
`,
			"sums to",
		},
		{
			"negative natural mortality",
			`
mortality:
  natural: [0.1, -0.2]
  fishing: [0.0, 0.0]
`,
			"negative",
		},
		{
			"mismatched mortality lengths",
			`
mortality:
  natural: [0.1, 0.2, 0.3]
  fishing: [0.0, 0.0]
`,
			"disagree in length",
		},
		{
			"ragged migration matrix",
			`
migration:
  matrices:
    - - [0.5, 0.5]
      - [1.0]
breeding_places: 1
`,
			"entries",
		},
		{
			"too many breeding places",
			`
breeding_places: 9
`,
			"breeding_places",
		},
		{
			"zero max age",
			`
max_age: 0
`,
			"max_age",
		},
		{
			"negative overdispersion",
			`
recruitment:
  coef: 0.1
  overdispersion_k: -1.0
`,
			"overdispersion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load succeeded, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.MaxAge != cfg.MaxAge || reloaded.BreedingPlaces != cfg.BreedingPlaces {
		t.Error("reloaded config differs from original")
	}
}

func loadOverride(t *testing.T, yaml string) *Config {
	t.Helper()
	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}
