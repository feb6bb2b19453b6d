package web

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/colorfulnotion/blockmetrics/analysis"
	"github.com/colorfulnotion/blockmetrics/types"
)

func msOrZero(d *types.BlockRecord, field func(*types.BlockRecord) *float64) float64 {
	if d == nil {
		return 0
	}
	if v := field(d); v != nil {
		return *v
	}
	return 0
}

func processingMS(rec *types.BlockRecord) *float64 {
	if rec.Processing == nil {
		return nil
	}
	v := types.Milliseconds(*rec.Processing)
	return &v
}

func elapsedMS(rec *types.BlockRecord) *float64 {
	v := types.Milliseconds(rec.Elapsed)
	return &v
}

func rootMS(rec *types.BlockRecord) *float64 {
	if rec.RootElapsed == nil {
		return nil
	}
	v := types.Milliseconds(*rec.RootElapsed)
	return &v
}

// overviewPage charts the common blocks of both runs: proof processing time
// side by side, and the per-block elapsed time difference (run 1 - run 2,
// positive when run 2 was faster).
func overviewPage(res *analysis.Result, limit int) *components.Page {
	blocks := res.Common
	if limit > 0 && len(blocks) > limit {
		blocks = blocks[:limit]
	}
	by1, by2 := res.Run1.ByNumber(), res.Run2.ByNumber()

	var labels []string
	var proc1, proc2, diffs []opts.BarData
	for _, n := range blocks {
		r1, ok1 := by1[n]
		r2, ok2 := by2[n]
		if !ok1 || !ok2 {
			continue
		}
		labels = append(labels, fmt.Sprintf("%d", n))
		proc1 = append(proc1, opts.BarData{Value: msOrZero(r1, processingMS)})
		proc2 = append(proc2, opts.BarData{Value: msOrZero(r2, processingMS)})
		diffs = append(diffs, opts.BarData{Value: msOrZero(r1, elapsedMS) - msOrZero(r2, elapsedMS)})
	}

	procBar := charts.NewBar()
	procBar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Proof Processing Time Comparison", Subtitle: "milliseconds per block"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	procBar.SetXAxis(labels).
		AddSeries("Run 1", proc1).
		AddSeries("Run 2", proc2)

	diffBar := charts.NewBar()
	diffBar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Block Elapsed Time Difference (Run 1 - Run 2)", Subtitle: "positive = run 2 faster"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	diffBar.SetXAxis(labels).AddSeries("Difference (ms)", diffs)

	page := components.NewPage()
	page.AddCharts(procBar, diffBar)
	return page
}

// blockPage charts one block's three timing metrics across both runs.
func blockPage(number uint64, rec1, rec2 *types.BlockRecord) *components.Page {
	metrics := []string{"Processing Time", "Block Elapsed Time", "Root Calculation Time"}
	run1 := []opts.BarData{
		{Value: msOrZero(rec1, processingMS)},
		{Value: msOrZero(rec1, elapsedMS)},
		{Value: msOrZero(rec1, rootMS)},
	}
	run2 := []opts.BarData{
		{Value: msOrZero(rec2, processingMS)},
		{Value: msOrZero(rec2, elapsedMS)},
		{Value: msOrZero(rec2, rootMS)},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Block %d Performance Comparison", number), Subtitle: "milliseconds"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(metrics).
		AddSeries("Run 1", run1).
		AddSeries("Run 2", run2)

	page := components.NewPage()
	page.AddCharts(bar)
	return page
}

// counterPage plots the three end-condition counters per sample, optionally
// restricted to one block window.
func counterPage(samples []types.Event, title string) *components.Page {
	var labels []string
	var pp, supr, ppr []opts.LineData
	for _, s := range samples {
		labels = append(labels, s.Time.Format("15:04:05.000000"))
		pp = append(pp, opts.LineData{Value: s.ProofsProcessed})
		supr = append(supr, opts.LineData{Value: s.StateUpdateProofsRequested})
		ppr = append(ppr, opts.LineData{Value: s.PrefetchProofsRequested})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(labels).
		AddSeries("proofs_processed", pp).
		AddSeries("state_update_proofs_requested", supr).
		AddSeries("prefetch_proofs_requested", ppr)

	page := components.NewPage()
	page.AddCharts(line)
	return page
}
