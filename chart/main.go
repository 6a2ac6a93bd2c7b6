package chart

import (
	"context"
	"time"

	"github.com/mum4k/termdash"
	"github.com/mum4k/termdash/cell"
	"github.com/mum4k/termdash/container"
	"github.com/mum4k/termdash/terminal/tcell"
	"github.com/mum4k/termdash/widgets/linechart"
	"github.com/mum4k/termdash/widgets/text"

	"memtree/config"
)

func appendWithLimit(slice []float64, value float64, limit int) []float64 {
	slice = append(slice, value)
	if len(slice) > limit {
		slice = slice[1:]
	}
	return slice
}

// Chart renders a live view of the benchmark: a linechart of
// operations per second on top and a rolling log underneath.
type Chart struct {
	OpsChannel  chan float64
	LogChannel  chan string
	StopChannel chan struct{}
}

func NewChart() *Chart {
	return &Chart{
		OpsChannel:  make(chan float64, 16),
		LogChannel:  make(chan string, 16),
		StopChannel: make(chan struct{}),
	}
}

func (chart *Chart) Start() error {
	t, err := tcell.New()
	if err != nil {
		return err
	}
	defer t.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lc, err := linechart.New(
		linechart.AxesCellOpts(cell.FgColor(cell.ColorWhite)),
		linechart.YLabelCellOpts(cell.FgColor(cell.ColorWhite)),
		linechart.XLabelCellOpts(cell.FgColor(cell.ColorWhite)),
		linechart.YAxisAdaptive(),
	)
	if err != nil {
		return err
	}

	operationsLog, err := text.New(text.RollContent(), text.WrapAtWords())
	if err != nil {
		return err
	}

	go func() {
		samples := []float64{}

		seriesOpts := []linechart.SeriesOption{
			linechart.SeriesCellOpts(cell.FgColor(cell.ColorGreen)),
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-chart.StopChannel:
				cancel()
				return
			case message := <-chart.LogChannel:
				operationsLog.Write(message + "\n")
			case sample := <-chart.OpsChannel:
				samples = appendWithLimit(samples, sample, config.ChartHistory)

				if err := lc.Series("operations", samples, seriesOpts...); err != nil {
					return
				}
			}
		}
	}()

	c, err := container.New(
		t,
		container.SplitHorizontal(
			container.Top(
				container.PlaceWidget(lc),
			),
			container.Bottom(
				container.PlaceWidget(operationsLog),
			),
			container.SplitPercent(70),
		),
	)
	if err != nil {
		return err
	}

	return termdash.Run(ctx, t, c, termdash.RedrawInterval(250*time.Millisecond))
}
