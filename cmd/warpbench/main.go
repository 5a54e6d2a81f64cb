// warpbench runs the warp kernel families repeatedly on a single stream and
// reports wall-clock launch timings measured with stream events.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/janpfeifer/must"
	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/stat"

	"github.com/warpml/warp"
)

// result is one kernel's timing summary over all iterations.
type result struct {
	Kernel   string  `json:"kernel"`
	Elements int     `json:"elements"`
	Iters    int     `json:"iters"`
	MeanSec  float64 `json:"meanSec"`
	StdSec   float64 `json:"stdSec"`
	TotalSec float64 `json:"totalSec"`
}

func main() {
	app := &cli.Command{
		Name:  "warpbench",
		Usage: "Micro-benchmarks for the warp kernel families",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "size", Value: 1 << 20, Usage: "elements per launch"},
			&cli.IntFlag{Name: "batch", Value: 128, Usage: "batch count for axis-1 gather"},
			&cli.IntFlag{Name: "indices", Value: 1880, Usage: "index count for axis-1 gather"},
			&cli.IntFlag{Name: "iters", Value: 100, Usage: "timed launches per kernel"},
			&cli.BoolFlag{Name: "json", Usage: "emit results as JSON"},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	size := int(cmd.Int("size"))
	batch := int(cmd.Int("batch"))
	indexCount := int(cmd.Int("indices"))
	iters := int(cmd.Int("iters"))

	dev, err := warp.OpenDevice(0)
	if err != nil {
		return err
	}
	stream := dev.NewStream()
	defer stream.Close()

	results := []result{
		benchStridedCopy(dev, stream, size, iters),
		benchGather(dev, stream, size, iters),
		benchGatherAxis1(dev, stream, batch, size/batch, indexCount, iters),
		benchQuantize(dev, stream, size, iters),
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	fmt.Printf("%s: %d cores, %.1f GiB\n", dev.Name(), dev.NumCores(), float64(dev.TotalMem())/(1<<30))
	for _, r := range results {
		fmt.Printf("%-12s %10d elems  %4d iters  mean %10s  σ %10s\n",
			r.Kernel, r.Elements, r.Iters,
			time.Duration(r.MeanSec*float64(time.Second)),
			time.Duration(r.StdSec*float64(time.Second)))
	}
	return nil
}

// timeLaunches runs fn iters times, each launch bracketed by events, and
// summarizes the per-launch durations.
func timeLaunches(stream *warp.Stream, kernel string, elements, iters int, fn func() error) result {
	samples := make([]float64, 0, iters)
	for i := 0; i < iters; i++ {
		start := must.M1(stream.RecordEvent())
		must.M(fn())
		end := must.M1(stream.RecordEvent())
		d := must.M1(warp.Elapsed(start, end))
		samples = append(samples, d.Seconds())
	}
	must.M(stream.Synchronize())

	total := 0.0
	for _, s := range samples {
		total += s
	}
	return result{
		Kernel:   kernel,
		Elements: elements,
		Iters:    iters,
		MeanSec:  stat.Mean(samples, nil),
		StdSec:   stat.StdDev(samples, nil),
		TotalSec: total,
	}
}

func benchStridedCopy(dev *warp.Device, stream *warp.Stream, size, iters int) result {
	input := must.M1(dev.Alloc(size * 4))
	output := must.M1(dev.Alloc(size * 4))
	defer input.Destroy()
	defer output.Destroy()

	fill(input.Float32())
	dense := []int32{1}

	return timeLaunches(stream, "stridedcopy", size, iters, func() error {
		return warp.StridedCopy(stream, 1, size, dense, dense, dense, input, output)
	})
}

func benchGather(dev *warp.Device, stream *warp.Stream, size, iters int) result {
	input := must.M1(dev.Alloc(size * 4))
	indices := must.M1(dev.Alloc(size * 4))
	output := must.M1(dev.Alloc(size * 4))
	defer input.Destroy()
	defer indices.Destroy()
	defer output.Destroy()

	fill(input.Float32())
	idx := indices.Int32()
	for i := range idx {
		idx[i] = int32((i * 7) % size)
	}

	return timeLaunches(stream, "gather", size, iters, func() error {
		return warp.Gather(stream, size, indices, input, output)
	})
}

func benchGatherAxis1(dev *warp.Device, stream *warp.Stream, batch, inputSize, indexCount, iters int) result {
	if inputSize < 1 {
		inputSize = 1
	}
	input := must.M1(dev.Alloc(batch * inputSize * 4))
	indices := must.M1(dev.Alloc(indexCount * 4))
	output := must.M1(dev.Alloc(batch * indexCount * 4))
	defer input.Destroy()
	defer indices.Destroy()
	defer output.Destroy()

	fill(input.Float32())
	idx := indices.Float32()
	for i := range idx {
		idx[i] = float32((i * 13) % inputSize)
	}

	return timeLaunches(stream, "gatheraxis1", batch*indexCount, iters, func() error {
		return warp.GatherAxis1(stream, batch, inputSize, inputSize, 1, indexCount, input, indices, output)
	})
}

func benchQuantize(dev *warp.Device, stream *warp.Stream, size, iters int) result {
	input := must.M1(dev.Alloc(size * 4))
	codes := must.M1(dev.Alloc(size))
	output := must.M1(dev.Alloc(size * 4))
	defer input.Destroy()
	defer codes.Destroy()
	defer output.Destroy()

	in := input.Float32()
	for i := range in {
		in[i] = float32(i%1000) / 1000
	}

	return timeLaunches(stream, "quantize", size, iters, func() error {
		if err := warp.Quantize(stream, size, input, codes); err != nil {
			return err
		}
		return warp.Unquantize(stream, size, codes, output)
	})
}

func fill(p []float32) {
	for i := range p {
		p[i] = float32(i%255) / 255
	}
}
