package verification

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"signal-backtest-lab/internal/backtest"
	"signal-backtest-lab/internal/domain"
	"signal-backtest-lab/internal/storage/memory"
)

func testSummary() domain.PerformanceSummary {
	return domain.PerformanceSummary{
		SharpeRatio:            1.5,
		CalmarRatio:            math.Inf(1),
		Beta:                   math.NaN(),
		MaxDrawdown:            -0.12,
		LongEntries:            3,
		ShortEntries:           2,
		TradeCount:             5,
		LongBars:               40,
		ShortBars:              20,
		LongShortDurationRatio: 2,
		AccumulatedReturn:      0.3,
		BarCount:               100,
		PeriodCount:            4,
	}
}

func TestCompareSummaries_ExactMatch(t *testing.T) {
	if d := CompareSummaries(testSummary(), testSummary()); len(d) != 0 {
		t.Errorf("expected no divergences, got %v", d)
	}
}

func TestCompareSummaries_WithinTolerance(t *testing.T) {
	replayed := testSummary()
	replayed.SharpeRatio += FloatTolerance / 2

	if d := CompareSummaries(testSummary(), replayed); len(d) != 0 {
		t.Errorf("expected no divergences within tolerance, got %v", d)
	}
}

func TestCompareSummaries_Divergences(t *testing.T) {
	replayed := testSummary()
	replayed.SharpeRatio = 1.4
	replayed.CalmarRatio = math.Inf(-1)
	replayed.Beta = 0.8
	replayed.TradeCount = 6

	d := CompareSummaries(testSummary(), replayed)
	want := []string{"SharpeRatio", "CalmarRatio", "Beta", "TradeCount"}
	if len(d) != len(want) {
		t.Fatalf("expected %d divergences, got %v", len(want), d)
	}
	for i, f := range want {
		if d[i].Field != f {
			t.Errorf("divergence %d: expected %s, got %s", i, f, d[i].Field)
		}
	}
}

func TestFloatEquals(t *testing.T) {
	tests := []struct {
		a, b float64
		want bool
	}{
		{1, 1, true},
		{1, 1 + 1e-10, true},
		{1, 1.001, false},
		{math.NaN(), math.NaN(), true},
		{math.NaN(), 0, false},
		{math.Inf(1), math.Inf(1), true},
		{math.Inf(1), math.Inf(-1), false},
		{math.Inf(1), 1e308, false},
	}
	for _, tt := range tests {
		if got := floatEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("floatEquals(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func bars(n int) []domain.Bar {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Bar, n)
	for i := range out {
		x := float64(i)
		out[i] = domain.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Price:     100 + 3*math.Sin(x/4) + 0.2*x,
			Indicator: 20 + 5*math.Sin(x/2) + 2*math.Cos(x*1.3),
		}
	}
	return out
}

func bandConfig(period int) domain.BacktestConfig {
	return domain.BacktestConfig{
		Strategy:        domain.StrategyParams{Variant: domain.VariantBand, RollingPeriod: period, ZThresh: 1},
		TransactionCost: 0.001,
		Direction:       1,
		BarsPerPeriod:   4,
	}
}

func TestReplayVerifier_VerifyRun(t *testing.T) {
	ctx := context.Background()
	barStore := memory.NewBarStore()
	runStore := memory.NewRunStore()
	if err := barStore.InsertBulk(ctx, "btc", bars(60)); err != nil {
		t.Fatal(err)
	}

	_, rec, err := backtest.NewRunner(barStore, runStore, nil).RunDataset(ctx, "btc", bandConfig(5))
	if err != nil {
		t.Fatal(err)
	}

	v := NewReplayVerifier(barStore, runStore)
	result, err := v.VerifyRun(ctx, rec.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Match {
		t.Errorf("expected match, got divergences %v", result.Divergences)
	}

	_, err = v.VerifyRun(ctx, "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestReplayVerifier_VerifyDataset(t *testing.T) {
	ctx := context.Background()
	barStore := memory.NewBarStore()
	runStore := memory.NewRunStore()
	if err := barStore.InsertBulk(ctx, "btc", bars(60)); err != nil {
		t.Fatal(err)
	}

	runner := backtest.NewRunner(barStore, runStore, nil)
	if _, _, err := runner.RunDataset(ctx, "btc", bandConfig(5)); err != nil {
		t.Fatal(err)
	}

	// tampered summary
	res, err := backtest.Run(ctx, bandConfig(8), bars(60))
	if err != nil {
		t.Fatal(err)
	}
	tampered := &domain.RunRecord{
		RunID:     "tampered",
		DatasetID: "btc",
		Config:    bandConfig(8),
		Summary:   res.Summary,
		CreatedAt: time.Now().UTC(),
	}
	tampered.Summary.TradeCount++
	if err := runStore.Insert(ctx, tampered); err != nil {
		t.Fatal(err)
	}

	// configuration that no longer runs on this dataset
	broken := &domain.RunRecord{
		RunID:     "broken",
		DatasetID: "btc",
		Config:    bandConfig(500),
		CreatedAt: time.Now().UTC(),
	}
	if err := runStore.Insert(ctx, broken); err != nil {
		t.Fatal(err)
	}

	report, err := NewReplayVerifier(barStore, runStore).VerifyDataset(ctx, "btc")
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalRuns != 3 || report.MatchedRuns != 1 || report.DivergentRuns != 2 {
		t.Fatalf("unexpected report counts: %+v", report)
	}

	for _, r := range report.Results {
		switch r.RunID {
		case "tampered":
			fields := map[string]bool{}
			for _, d := range r.Divergences {
				fields[d.Field] = true
			}
			if !fields["TradeCount"] || !fields["RunID"] {
				t.Errorf("expected TradeCount and RunID divergences, got %v", r.Divergences)
			}
		case "broken":
			if len(r.Divergences) != 1 || r.Divergences[0].Field != "Error" {
				t.Errorf("expected a single Error divergence, got %v", r.Divergences)
			}
		}
	}
}

func TestReplayVerifier_WindowedRunReplaysItsSpan(t *testing.T) {
	ctx := context.Background()
	barStore := memory.NewBarStore()
	runStore := memory.NewRunStore()
	all := bars(200)
	if err := barStore.InsertBulk(ctx, "ds", all); err != nil {
		t.Fatal(err)
	}

	runner := backtest.NewRunner(barStore, runStore, nil)
	_, windowed, err := runner.RunBars(ctx, "ds", bandConfig(5), all[100:])
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := runner.RunBars(ctx, "ds", bandConfig(5), all); err != nil {
		t.Fatal(err)
	}

	v := NewReplayVerifier(barStore, runStore)
	result, err := v.VerifyRun(ctx, windowed.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Match {
		t.Errorf("windowed run diverged: %v", result.Divergences)
	}

	report, err := v.VerifyDataset(ctx, "ds")
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalRuns != 2 || report.MatchedRuns != 2 {
		t.Errorf("unexpected report counts: %+v", report)
	}
}
