package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mari-linhares/deep-audio/pkg/audio/wavfile"
)

// testConfig returns a small, fast configuration rooted at train.
func testConfig(t *testing.T, train string) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TrainPath = train
	cfg.OutputPath = t.TempDir()
	cfg.SampleRate = 8000
	cfg.NFFT = 256
	cfg.NMels = 16
	cfg.SampleSize = 0.25
	return cfg
}

// writeTree writes a 600ms tone for each relative path under root. Each
// class directory gets its own frequency.
func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	freqs := map[string]float64{}
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		class := filepath.Base(filepath.Dir(full))
		f, ok := freqs[class]
		if !ok {
			f = 220 * float64(len(freqs)+1)
			freqs[class] = f
		}
		if err := wavfile.Write(full, wavfile.Tone(f, 600*time.Millisecond, 8000)); err != nil {
			t.Fatal(err)
		}
	}
}

func sameFeatures(t *testing.T, a, b []Feature) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("feature count %d != %d", len(a), len(b))
	}
	for i := range a {
		for r := range a[i] {
			for c := range a[i][r] {
				if a[i][r][c] != b[i][r][c] {
					t.Fatalf("feature %d differs at (%d, %d)", i, r, c)
				}
			}
		}
	}
}

func sameLabels(t *testing.T, a, b []int) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("label count %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("label %d: %d != %d", i, a[i], b[i])
		}
	}
}

func partitionNames(ds *Dataset) []Name {
	var names []Name
	for _, p := range ds.Partitions {
		names = append(names, p.Name)
	}
	return names
}
