package commands

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/mari-linhares/deep-audio/pkg/dataset"
)

// barProgress renders one mpb bar per partition.
type barProgress struct {
	p *mpb.Progress

	mu   sync.Mutex
	bars map[dataset.Name]*mpb.Bar
}

func newBarProgress(w io.Writer) *barProgress {
	return &barProgress{
		p:    mpb.New(mpb.WithOutput(w), mpb.WithWidth(48)),
		bars: make(map[dataset.Name]*mpb.Bar),
	}
}

func (b *barProgress) StartPartition(name dataset.Name, files int) {
	if files == 0 {
		return
	}
	bar := b.p.AddBar(int64(files),
		mpb.PrependDecorators(
			decor.Name(string(name)+" "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Name(" "),
			decor.AverageETA(decor.ET_STYLE_GO),
		),
	)
	b.mu.Lock()
	b.bars[name] = bar
	b.mu.Unlock()
}

func (b *barProgress) FileDone(name dataset.Name) {
	b.mu.Lock()
	bar := b.bars[name]
	b.mu.Unlock()
	if bar != nil {
		bar.Increment()
	}
}

// Wait aborts unfinished bars, as left by a failed build, and waits for
// rendering to stop.
func (b *barProgress) Wait() {
	b.mu.Lock()
	for _, bar := range b.bars {
		if !bar.Completed() {
			bar.Abort(false)
		}
	}
	b.mu.Unlock()
	b.p.Wait()
}
