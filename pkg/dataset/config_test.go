package dataset

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.OutputPath != "audio_files/transfer/" || cfg.Format != "melspectrogram" ||
		cfg.NFFT != 2048 || cfg.SampleSize != 0.8 || cfg.SampleType != "all" ||
		cfg.Seed != 7 || cfg.TestSize != 0.25 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("defaults without train path: %v", err)
	}
	cfg.TrainPath = "data/train"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"format", func(c *Config) { c.Format = "mfcc" }},
		{"n_fft", func(c *Config) { c.NFFT = 0 }},
		{"sample size", func(c *Config) { c.SampleSize = 0 }},
		{"sample type", func(c *Config) { c.SampleType = "some" }},
		{"test size zero", func(c *Config) { c.TestSize = 0 }},
		{"test size one", func(c *Config) { c.TestSize = 1 }},
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"classes format", func(c *Config) { c.ClassesFormat = "pickle" }},
		{"output", func(c *Config) { c.OutputPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.TrainPath = "train"
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigDerives(t *testing.T) {
	tests := []struct {
		test, eval string
		deriveEval bool
		wantTest   bool
		wantEval   bool
	}{
		{"", "", false, true, false},
		{"", "", true, true, true},
		{"t", "", false, false, true},
		{"", "e", false, true, false},
		{"t", "e", false, false, false},
	}
	for _, tt := range tests {
		cfg := Config{TestPath: tt.test, EvalPath: tt.eval, DeriveEval: tt.deriveEval}
		if got := cfg.derives(Test); got != tt.wantTest {
			t.Errorf("%+v derives(test) = %v", tt, got)
		}
		if got := cfg.derives(Eval); got != tt.wantEval {
			t.Errorf("%+v derives(eval) = %v", tt, got)
		}
		if cfg.derives(Train) {
			t.Errorf("%+v derives(train)", tt)
		}
	}
}

func TestConfigSources(t *testing.T) {
	cfg := Config{TrainPath: "tr", TestPath: "te", EvalPath: "ev"}
	src := cfg.Sources()
	want := []Source{{Train, "tr"}, {Test, "te"}, {Eval, "ev"}}
	for i := range want {
		if src[i] != want[i] {
			t.Fatalf("Sources()[%d] = %+v, want %+v", i, src[i], want[i])
		}
	}
}

func TestFeatureShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	cfg.NFFT = 256
	cfg.NMels = 16
	cfg.SampleSize = 0.25
	rows, cols := cfg.FeatureShape()
	if rows != 16 || cols != 1+(2000-256)/64 {
		t.Fatalf("shape = (%d, %d)", rows, cols)
	}
	cfg.Format = "spectrogram"
	if rows, _ := cfg.FeatureShape(); rows != 129 {
		t.Fatalf("linear rows = %d", rows)
	}
}
