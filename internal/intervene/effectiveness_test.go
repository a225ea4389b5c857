package intervene

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"refocusd/internal/profile"
)

var ledgerNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// history builds n records with the given response and refocus seconds.
func history(n int, resp profile.Response, refocus int) []profile.InterventionRecord {
	out := make([]profile.InterventionRecord, n)
	for i := range out {
		out[i] = profile.InterventionRecord{
			Timestamp:     ledgerNow.Add(time.Duration(i) * time.Hour),
			Trigger:       profile.TriggerShinyObject,
			Strategy:      profile.StrategyAccountability,
			Response:      resp,
			TimeToRefocus: refocus,
		}
	}
	return out
}

func TestScoreEmptyHistoryIsZero(t *testing.T) {
	if got := Score(nil); got != 0 {
		t.Fatalf("empty history score = %v, want 0", got)
	}
}

func TestScoreStaysInUnitInterval(t *testing.T) {
	histories := [][]profile.InterventionRecord{
		nil,
		history(1, profile.ResponseComplied, 0),
		history(50, profile.ResponseComplied, 1000),
		history(50, profile.ResponseOverrode, 0),
		history(50, profile.ResponseIgnored, 600),
		append(history(7, profile.ResponseComplied, 30), history(7, profile.ResponseOverrode, 0)...),
	}
	for i, h := range histories {
		got := Score(h)
		if got < 0 || got > 1 || math.IsNaN(got) {
			t.Errorf("history %d: score %v outside [0,1]", i, got)
		}
	}
}

func TestScoreComplianceBeatsRejection(t *testing.T) {
	for _, refocus := range []int{0, 60, 300, 900} {
		complied := Score(history(8, profile.ResponseComplied, refocus))
		overrode := Score(history(8, profile.ResponseOverrode, refocus))
		ignored := Score(history(8, profile.ResponseIgnored, refocus))
		if complied <= overrode {
			t.Errorf("refocus %d: complied %v not above overrode %v", refocus, complied, overrode)
		}
		if complied <= ignored {
			t.Errorf("refocus %d: complied %v not above ignored %v", refocus, complied, ignored)
		}
	}
}

func TestScoreScenarios(t *testing.T) {
	// Five compliances with fast refocus should read as clearly working.
	var good []profile.InterventionRecord
	for _, secs := range []int{5, 8, 10, 3, 7} {
		good = append(good, history(1, profile.ResponseComplied, secs)...)
	}
	if got := Score(good); got <= 0.6 {
		t.Errorf("fast-compliance score = %v, want > 0.6", got)
	}

	// Five rejections should read as clearly failing.
	bad := append(history(3, profile.ResponseOverrode, 150), history(2, profile.ResponseIgnored, 120)...)
	if got := Score(bad); got >= 0.3 {
		t.Errorf("all-rejection score = %v, want < 0.3", got)
	}
}

func TestCalculateMetricsRatesSumToOne(t *testing.T) {
	h := append(history(4, profile.ResponseComplied, 20), history(3, profile.ResponseOverrode, 0)...)
	h = append(h, history(2, profile.ResponseIgnored, 0)...)

	m := CalculateMetrics(h)
	sum := m.ComplianceRate + m.OverrideRate + m.IgnoreRate
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("rates sum to %v, want 1", sum)
	}

	want := Metrics{
		ComplianceRate: 4.0 / 9.0,
		AverageRefocus: 20,
		OverrideRate:   3.0 / 9.0,
		IgnoreRate:     2.0 / 9.0,
		RecentTrend:    TrendStable,
	}
	if diff := cmp.Diff(want, m, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateMetricsEmptyHistoryIsNeutral(t *testing.T) {
	m := CalculateMetrics(nil)
	if m.ComplianceRate != 0 || m.OverrideRate != 0 || m.IgnoreRate != 0 || m.AverageRefocus != 0 {
		t.Errorf("empty metrics not neutral: %+v", m)
	}
	if m.RecentTrend != TrendStable {
		t.Errorf("empty trend = %q, want stable", m.RecentTrend)
	}
}

func TestRecentTrendNeedsTenRecords(t *testing.T) {
	for n := 0; n < 10; n++ {
		h := history(n, profile.ResponseOverrode, 0)
		if got := CalculateMetrics(h).RecentTrend; got != TrendStable {
			t.Errorf("n=%d: trend %q, want stable", n, got)
		}
	}
}

func TestRecentTrendDirections(t *testing.T) {
	improving := append(history(5, profile.ResponseIgnored, 0), history(5, profile.ResponseComplied, 10)...)
	if got := CalculateMetrics(improving).RecentTrend; got != TrendImproving {
		t.Errorf("improving history trend = %q", got)
	}

	declining := append(history(5, profile.ResponseComplied, 10), history(5, profile.ResponseIgnored, 0)...)
	if got := CalculateMetrics(declining).RecentTrend; got != TrendDeclining {
		t.Errorf("declining history trend = %q", got)
	}

	flat := history(10, profile.ResponseComplied, 10)
	if got := CalculateMetrics(flat).RecentTrend; got != TrendStable {
		t.Errorf("flat history trend = %q", got)
	}
}

func TestNeedsAdjustmentOnHighOverrideRate(t *testing.T) {
	// Override rate above half forces adjustment regardless of score.
	h := append(history(6, profile.ResponseOverrode, 0), history(4, profile.ResponseComplied, 5)...)
	if !NeedsAdjustment(h, 0.0) {
		t.Fatal("override rate 0.6 should need adjustment even with threshold 0")
	}
}

func TestNeedsAdjustmentOnLowScore(t *testing.T) {
	if !NeedsAdjustment(history(6, profile.ResponseIgnored, 0), DefaultAdjustmentThreshold) {
		t.Error("all-ignored history should need adjustment")
	}
	if NeedsAdjustment(history(6, profile.ResponseComplied, 5), DefaultAdjustmentThreshold) {
		t.Error("all-complied history should not need adjustment")
	}
	if NeedsAdjustment(nil, DefaultAdjustmentThreshold) {
		t.Error("empty history should not need adjustment")
	}
}

func TestRecommendStrategy(t *testing.T) {
	strong := history(8, profile.ResponseComplied, 5)
	weak := history(8, profile.ResponseIgnored, 0)

	tests := []struct {
		name      string
		histories map[profile.Strategy][]profile.InterventionRecord
		current   profile.Strategy
		want      profile.Strategy
	}{
		{
			"clear-winner",
			map[profile.Strategy][]profile.InterventionRecord{
				profile.StrategyAccountability: weak,
				profile.StrategyMicroTask:      strong,
			},
			profile.StrategyAccountability,
			profile.StrategyMicroTask,
		},
		{
			"best-is-current",
			map[profile.Strategy][]profile.InterventionRecord{
				profile.StrategyMicroTask: strong,
			},
			profile.StrategyMicroTask,
			"",
		},
		{
			"too-few-records",
			map[profile.Strategy][]profile.InterventionRecord{
				profile.StrategyAccountability: weak,
				profile.StrategyMicroTask:      history(4, profile.ResponseComplied, 5),
			},
			profile.StrategyAccountability,
			"",
		},
		{
			"marginal-improvement",
			map[profile.Strategy][]profile.InterventionRecord{
				profile.StrategyAccountability: history(8, profile.ResponseComplied, 40),
				profile.StrategyMicroTask:      history(8, profile.ResponseComplied, 5),
			},
			profile.StrategyAccountability,
			"",
		},
		{
			"no-history-at-all",
			map[profile.Strategy][]profile.InterventionRecord{},
			profile.StrategyAccountability,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecommendStrategy(tt.histories, tt.current); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
