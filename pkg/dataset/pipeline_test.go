package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mari-linhares/deep-audio/pkg/featcache"
	"github.com/mari-linhares/deep-audio/pkg/kv"
)

func twoClassTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root,
		"dog/1.wav", "dog/2.wav", "dog/3.wav", "dog/4.wav",
		"cat/1.wav", "cat/2.wav", "cat/3.wav", "cat/4.wav")
	return root
}

func TestBuildTrainOnly(t *testing.T) {
	cfg := testConfig(t, twoClassTree(t))
	ds, err := Build(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := partitionNames(ds); !slices.Equal(got, []Name{Train, Test}) {
		t.Fatalf("partitions = %v, want [train test]", got)
	}
	train, test := ds.Partition(Train), ds.Partition(Test)
	// 8 files x 2 segments = 16 samples; ceil(0.25*16) = 4 held out.
	if train.Len()+test.Len() != 16 || test.Len() != 4 {
		t.Fatalf("train %d + test %d", train.Len(), test.Len())
	}
	if !test.Derived || train.Derived {
		t.Fatal("derived flags wrong")
	}
	for _, p := range ds.Partitions {
		if err := p.Validate(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildDeriveEval(t *testing.T) {
	cfg := testConfig(t, twoClassTree(t))
	cfg.DeriveEval = true
	ds, err := Build(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := partitionNames(ds); !slices.Equal(got, []Name{Train, Test, Eval}) {
		t.Fatalf("partitions = %v", got)
	}
	// test takes ceil(0.25*16) = 4, eval ceil(0.25*12) = 3 of the rest.
	if ds.Partition(Test).Len() != 4 || ds.Partition(Eval).Len() != 3 || ds.Partition(Train).Len() != 9 {
		t.Fatalf("sizes %d/%d/%d", ds.Partition(Train).Len(), ds.Partition(Test).Len(), ds.Partition(Eval).Len())
	}
}

func TestBuildExplicitEvalDerivesTest(t *testing.T) {
	eval := t.TempDir()
	writeTree(t, eval, "cat/9.wav", "bird/9.wav")
	cfg := testConfig(t, twoClassTree(t))
	cfg.EvalPath = eval
	ds, err := Build(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := partitionNames(ds); !slices.Equal(got, []Name{Train, Test, Eval}) {
		t.Fatalf("partitions = %v", got)
	}
	if ds.Partition(Eval).Derived {
		t.Fatal("explicit eval marked derived")
	}
	if got := ds.Registry.Names(); !slices.Equal(got, []string{"cat", "dog", "bird"}) {
		t.Fatalf("classes = %v", got)
	}
}

func TestBuildAllExplicit(t *testing.T) {
	test, eval := t.TempDir(), t.TempDir()
	writeTree(t, test, "dog/t.wav")
	writeTree(t, eval, "cat/e.wav")
	cfg := testConfig(t, twoClassTree(t))
	cfg.TestPath, cfg.EvalPath = test, eval
	ds, err := Build(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Partition(Train).Len() != 16 {
		t.Fatalf("train split although all paths were given: %d", ds.Partition(Train).Len())
	}
	if want := []int{1, 1}; !slices.Equal(ds.Partition(Test).Labels, want) {
		t.Fatalf("test labels = %v", ds.Partition(Test).Labels)
	}
}

func TestBuildDeterministic(t *testing.T) {
	root := twoClassTree(t)
	for _, mode := range []string{"all", "random"} {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig(t, root)
			cfg.SampleType = mode
			a, err := Build(context.Background(), cfg, Options{})
			if err != nil {
				t.Fatal(err)
			}
			b, err := Build(context.Background(), cfg, Options{})
			if err != nil {
				t.Fatal(err)
			}
			for _, name := range []Name{Train, Test} {
				sameLabels(t, a.Partition(name).Labels, b.Partition(name).Labels)
				sameFeatures(t, a.Partition(name).Features, b.Partition(name).Features)
			}
		})
	}
}

func TestBuildWorkersIndependent(t *testing.T) {
	root := twoClassTree(t)
	cfg := testConfig(t, root)
	cfg.SampleType = "random"
	seq, err := Build(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	cfg.Workers = 4
	par, err := Build(context.Background(), cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []Name{Train, Test} {
		sameLabels(t, seq.Partition(name).Labels, par.Partition(name).Labels)
		sameFeatures(t, seq.Partition(name).Features, par.Partition(name).Features)
	}
}

func TestBuildWarmCache(t *testing.T) {
	root := twoClassTree(t)
	cfg := testConfig(t, root)
	cache := featcache.New(kv.NewMemory())
	ctx := context.Background()

	cold, err := Build(ctx, cfg, Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 8 {
		t.Fatalf("cache entries = %d, want 8", stats.Entries)
	}

	warm, err := Build(ctx, cfg, Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []Name{Train, Test} {
		sameLabels(t, cold.Partition(name).Labels, warm.Partition(name).Labels)
		sameFeatures(t, cold.Partition(name).Features, warm.Partition(name).Features)
	}

	cfg.NFFT = 512
	if _, err := Build(ctx, cfg, Options{Cache: cache}); err != nil {
		t.Fatal(err)
	}
	if stats, _ := cache.Stats(ctx); stats.Entries != 16 {
		t.Fatalf("changed params reused cache entries: %d", stats.Entries)
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("missing train", func(t *testing.T) {
		cfg := testConfig(t, filepath.Join(t.TempDir(), "nope"))
		if _, err := Build(context.Background(), cfg, Options{}); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t, t.TempDir())
		cfg.TestSize = 2
		if _, err := Build(context.Background(), cfg, Options{}); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("too few to split", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "dog/1.wav")
		cfg := testConfig(t, root)
		cfg.SampleSize = 0.5
		if _, err := Build(context.Background(), cfg, Options{}); !errors.Is(err, ErrTooFewSamples) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cfg := testConfig(t, twoClassTree(t))
		if _, err := Build(ctx, cfg, Options{}); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	})
}
