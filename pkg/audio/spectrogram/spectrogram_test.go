package spectrogram

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mari-linhares/deep-audio/pkg/audio/wavfile"
)

func TestHannWindow(t *testing.T) {
	w := hannWindow(400)
	if len(w) != 400 {
		t.Fatalf("expected 400, got %d", len(w))
	}
	if w[0] != 0 {
		t.Errorf("w[0] = %f, want 0", w[0])
	}
	if math.Abs(w[200]-1.0) > 1e-9 {
		t.Errorf("w[200] = %f, want 1.0", w[200])
	}
}

func TestMelConversion(t *testing.T) {
	// hzToMel(1000) = 2595 * log10(1 + 1000/700) ≈ 1000.45
	mel := hzToMel(1000)
	if math.Abs(mel-1000.45) > 1.0 {
		t.Errorf("hzToMel(1000) = %f, want ~1000.45", mel)
	}
	hz := melToHz(mel)
	if math.Abs(hz-1000) > 0.1 {
		t.Errorf("melToHz(hzToMel(1000)) = %f, want 1000", hz)
	}
}

func TestMelFilterBank(t *testing.T) {
	bank := melFilterBank(128, 2048, 22050, 0, 11025)
	if len(bank) != 128 {
		t.Fatalf("expected 128 filters, got %d", len(bank))
	}
	for i, f := range bank {
		if len(f) != 1025 {
			t.Fatalf("filter %d: expected 1025 bins, got %d", i, len(f))
		}
		if isZero(f) {
			t.Errorf("filter %d is all zeros", i)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"spectrogram", "melspectrogram"} {
		if k, err := ParseKind(s); err != nil || string(k) != s {
			t.Errorf("ParseKind(%q) = %q, %v", s, k, err)
		}
	}
	if _, err := ParseKind("mfcc"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.FFTSize = 1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for FFT size 1")
	}
	bad = DefaultConfig()
	bad.NumMels = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero mel bins")
	}
	bad = DefaultConfig()
	bad.LowFreq = 20000
	if err := bad.Validate(); err == nil {
		t.Error("expected error for low frequency above Nyquist")
	}
}

func TestExtractShape(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		n        int
		wantRows int
		wantCols int
	}{
		{"mel one second", Mel, 22050, 128, 1 + (22050-2048)/512},
		{"linear one second", Linear, 22050, 1025, 1 + (22050-2048)/512},
		{"short input padded", Mel, 100, 128, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Kind = tt.kind
			e := New(cfg)
			samples := wavfile.Tone(440, time.Second, 22050).Samples[:tt.n]
			m := e.Extract(samples)
			rows, cols := m.Shape()
			if rows != tt.wantRows || cols != tt.wantCols {
				t.Fatalf("shape = (%d, %d), want (%d, %d)", rows, cols, tt.wantRows, tt.wantCols)
			}
			for _, row := range m {
				for _, v := range row {
					if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
						t.Fatal("non-finite value in output")
					}
				}
			}
		})
	}
}

func TestExtractPeakBin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kind = Linear
	e := New(cfg)
	m := e.Extract(wavfile.Tone(1000, time.Second, 22050).Samples)

	// 1000 Hz lands near bin 1000 * 2048 / 22050 ≈ 92.9.
	best := 0
	for k := range m {
		if m[k][0] > m[best][0] {
			best = k
		}
	}
	if best < 92 || best > 94 {
		t.Errorf("peak bin = %d, want ~93", best)
	}
}

func TestExtractSilence(t *testing.T) {
	e := New(DefaultConfig())
	m := e.Extract(make([]float64, 4096))
	want := float32(10 * math.Log10(floorPower))
	for _, row := range m {
		for _, v := range row {
			if v != want {
				t.Fatalf("silence value = %f, want %f", v, want)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	m := Matrix{{1, 2, 3, 4, 5}, {7, 7, 7, 7, 7}}
	Normalize(m)

	sum := 0.0
	for _, v := range m[0] {
		sum += float64(v)
	}
	if math.Abs(sum/5) > 1e-6 {
		t.Errorf("mean = %f, want 0", sum/5)
	}
	for _, v := range m[1] {
		if v != 0 {
			t.Errorf("constant row value = %f, want 0", v)
		}
	}
}

func TestNewMatrix(t *testing.T) {
	m := NewMatrix(2, 3)
	if r, c := m.Shape(); r != 2 || c != 3 {
		t.Fatalf("Shape = (%d, %d), want (2, 3)", r, c)
	}
	m[0] = append(m[0], 7)
	if m[1][0] != 0 {
		t.Fatal("appending to a row overwrote the next row")
	}
	if r, c := (Matrix{}).Shape(); r != 0 || c != 0 {
		t.Errorf("empty Shape = (%d, %d)", r, c)
	}
}

func TestTransformerConcurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	if err := wavfile.Write(path, wavfile.Tone(440, 500*time.Millisecond, 22050)); err != nil {
		t.Fatal(err)
	}

	tr, err := NewTransformer(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ref, err := tr.Transform(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := tr.Transform(context.Background(), path)
			if err != nil {
				errs <- err
				return
			}
			for r := range m {
				for c := range m[r] {
					if m[r][c] != ref[r][c] {
						t.Errorf("mismatch at (%d, %d)", r, c)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestTransformerResamples(t *testing.T) {
	tr, err := NewTransformer(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	m, err := tr.TransformAudio(wavfile.Tone(440, time.Second, 44100))
	if err != nil {
		t.Fatal(err)
	}
	if _, cols := m.Shape(); cols != 1+(22050-2048)/512 {
		t.Errorf("cols = %d, want %d", cols, 1+(22050-2048)/512)
	}
}

func TestTransformMissingFile(t *testing.T) {
	tr, err := NewTransformer(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Transform(context.Background(), filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func BenchmarkExtract(b *testing.B) {
	e := New(DefaultConfig())
	samples := wavfile.Tone(440, time.Second, 22050).Samples
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Extract(samples)
	}
}
