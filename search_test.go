// search_test.go
package main

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setComp(name string, kind ComponentKind, set []float64, tol float64) *Component {
	return &Component{Name: name, Kind: kind, ValueSet: set, Tolerance: tol}
}

// y = R1 の値をそのまま返す評価関数
func identityEval(fixed, x map[string]float64) (map[string]float64, error) {
	return map[string]float64{"y": Get(x, "R1")}, nil
}

func TestExpandValues_FixedValue(t *testing.T) {
	c := &Component{Name: "C1", Kind: Capacitor, Value: f64(1e-6)}
	vals, err := expandValues(c, E12Series)
	require.NoError(t, err)
	assert.Equal(t, []float64{1e-6}, vals)
}

func TestExpandValues_ExplicitSetKeepsOrder(t *testing.T) {
	set := []float64{10e-6, 1e-6, 4.7e-6}
	c := &Component{Name: "C2", Kind: Capacitor, ValueSet: set}
	vals, err := expandValues(c, E12Series)
	require.NoError(t, err)
	assert.Equal(t, set, vals)
}

func TestExpandValues_ScaleMajorSeriesMinor(t *testing.T) {
	c := &Component{Name: "R1", Kind: Resistor, ValueScale: []float64{10, 100}}
	vals, err := expandValues(c, []float64{1.0, 2.0})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 100, 200}, vals)
}

func TestExpandValues_ScaleTimesSeriesLength(t *testing.T) {
	c := &Component{Name: "R1", Kind: Resistor, ValueScale: []float64{100, 1000, 10000, 100000}}
	vals, err := expandValues(c, E24Series)
	require.NoError(t, err)
	assert.Len(t, vals, 4*24)
}

func TestExpandValues_FixedValueWinsOverSetAndScale(t *testing.T) {
	c := &Component{
		Name:       "R1",
		Kind:       Resistor,
		Value:      f64(4700),
		ValueSet:   []float64{1, 2},
		ValueScale: []float64{100},
	}
	vals, err := expandValues(c, E24Series)
	require.NoError(t, err)
	assert.Equal(t, []float64{4700}, vals)
}

func TestExpandValues_NoSourceIsConfigError(t *testing.T) {
	c := &Component{Name: "R9", Kind: Resistor}
	_, err := expandValues(c, E24Series)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "R9", cerr.Name)
}

func TestExpandValues_ScaleWithoutSeriesIsConfigError(t *testing.T) {
	// インダクタには標準系列が無いので value_scale は使えない
	c := &Component{Name: "L1", Kind: Inductor, ValueScale: []float64{1e-3}}
	_, err := expandValues(c, c.Kind.Series())
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestExpandTolerance(t *testing.T) {
	assert.Equal(t, []float64{990.0, 1000.0, 1010.0}, expandTolerance(1000, 1.0))
}

func TestCombinationCount(t *testing.T) {
	lists := [][]float64{
		make([]float64, 96),
		make([]float64, 96),
		make([]float64, 96),
		make([]float64, 1),
		make([]float64, 2),
		make([]float64, 1),
	}
	total, err := combinationCount(lists)
	require.NoError(t, err)
	assert.Equal(t, int64(1_769_472), total)
}

func TestCombinationCount_EmptyListIsZero(t *testing.T) {
	total, err := combinationCount([][]float64{{1, 2}, {}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestCombinationIterator_LexicographicOrder(t *testing.T) {
	it := newCombinationIterator([][]float64{{1, 2}, {10, 20, 30}})

	var got [][]float64
	for {
		vals, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, append([]float64(nil), vals...))
	}

	// 先頭の成分が最も遅く回る
	want := [][]float64{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}
	assert.Equal(t, want, got)
}

func TestCombinationIterator_Reset(t *testing.T) {
	it := newCombinationIterator([][]float64{{1, 2}, {3, 4}})

	count := func() int {
		n := 0
		for {
			if _, ok := it.Next(); !ok {
				break
			}
			n++
		}
		return n
	}

	assert.Equal(t, 4, count())
	it.Reset()
	assert.Equal(t, 4, count())
}

func TestOrderedComponents_RThenCThenLSortedByName(t *testing.T) {
	s := &Searcher{Components: []*Component{
		setComp("L1", Inductor, nil, 0),
		setComp("C2", Capacitor, nil, 0),
		setComp("R2", Resistor, nil, 0),
		setComp("R1", Resistor, nil, 0),
		setComp("C1", Capacitor, nil, 0),
	}}
	var names []string
	for _, c := range s.orderedComponents() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"R1", "R2", "C1", "C2", "L1"}, names)
}

func TestRunBest_FindsMinimumAndFirstWinsTies(t *testing.T) {
	target := &Target{Name: "y", TargetValue: 2.5}
	s := &Searcher{
		Components: []*Component{setComp("R1", Resistor, []float64{1, 2, 3, 4}, 1.0)},
		Targets:    []*Target{target},
		Evaluate:   identityEval,
	}

	res, err := s.RunBest()
	require.NoError(t, err)
	require.True(t, res.Completed)
	assert.Equal(t, int64(4), res.Combinations)

	// 2 と 3 は同点（誤差 0.5）だが、先に出た 2 が勝つ
	assert.Equal(t, 2.0, s.Components[0].BestValue)
	assert.Equal(t, 2.0, target.BestValue)
	assert.InDelta(t, 0.5, res.State.BestError, 1e-12)
}

func TestRunBest_Idempotent(t *testing.T) {
	target := &Target{Name: "y", TargetValue: 7.0}
	s := &Searcher{
		Components: []*Component{setComp("R1", Resistor, []float64{3, 6, 9, 12}, 1.0)},
		Targets:    []*Target{target},
		Evaluate:   identityEval,
	}

	res1, err := s.RunBest()
	require.NoError(t, err)
	best1 := s.Components[0].BestValue
	targetBest1 := target.BestValue

	res2, err := s.RunBest()
	require.NoError(t, err)

	assert.Equal(t, res1.State.BestError, res2.State.BestError)
	assert.Equal(t, best1, s.Components[0].BestValue)
	assert.Equal(t, targetBest1, target.BestValue)
}

func TestRunWorst_RequiresBestPass(t *testing.T) {
	s := &Searcher{
		Components: []*Component{setComp("R1", Resistor, []float64{100}, 10.0)},
		Targets:    []*Target{{Name: "y", TargetValue: 100}},
		Evaluate:   identityEval,
	}
	_, err := s.RunWorst()
	var perr *PrecursorError
	require.ErrorAs(t, err, &perr)
}

func TestRunWorst_ManhattanOverToleranceBand(t *testing.T) {
	target := &Target{Name: "y", TargetValue: 100}
	s := &Searcher{
		Components: []*Component{setComp("R1", Resistor, []float64{100}, 10.0)},
		Targets:    []*Target{target},
		Evaluate:   identityEval,
	}

	best, err := s.RunBest()
	require.NoError(t, err)
	require.True(t, best.Completed)
	assert.Equal(t, 0.0, best.State.BestError)

	worst, err := s.RunWorst()
	require.NoError(t, err)
	require.True(t, worst.Completed)

	// 帯は {90, 100, 110}。誤差 10 は 90 と 110 で同点、先の 90 が勝つ
	assert.Equal(t, int64(3), worst.Combinations)
	assert.Equal(t, 10.0, worst.State.WorstError)
	assert.Equal(t, 90.0, s.Components[0].WorstValue)
	assert.Equal(t, 90.0, target.WorstValue)
}

func TestSafetyGate_DeclinedStopsBeforeEvaluation(t *testing.T) {
	evalCalls := 0
	var asked int64
	s := &Searcher{
		Components: []*Component{
			setComp("R1", Resistor, make([]float64, 20), 1.0),
			setComp("R2", Resistor, make([]float64, 20), 1.0),
		},
		Targets: []*Target{{Name: "y", TargetValue: 0}},
		Evaluate: func(fixed, x map[string]float64) (map[string]float64, error) {
			evalCalls++
			return map[string]float64{"y": 0}, nil
		},
		GateThreshold: 100,
		Confirm: func(total int64) bool {
			asked = total
			return false
		},
	}

	res, err := s.RunBest()
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, int64(400), res.Combinations)
	assert.Equal(t, int64(400), asked)
	assert.Zero(t, evalCalls)
}

func TestSafetyGate_ConfirmedRunsToCompletion(t *testing.T) {
	s := &Searcher{
		Components: []*Component{
			setComp("R1", Resistor, []float64{1, 2, 3, 4, 5}, 1.0),
			setComp("R2", Resistor, []float64{1, 2, 3}, 1.0),
		},
		Targets: []*Target{{Name: "y", TargetValue: 0}},
		Evaluate: func(fixed, x map[string]float64) (map[string]float64, error) {
			return map[string]float64{"y": Get(x, "R1") + Get(x, "R2")}, nil
		},
		GateThreshold: 10,
		Confirm:       func(total int64) bool { return true },
	}

	res, err := s.RunBest()
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, int64(15), res.Combinations)
}

func TestSafetyGate_NilConfirmDeclines(t *testing.T) {
	s := &Searcher{
		Components:    []*Component{setComp("R1", Resistor, []float64{1, 2, 3}, 1.0)},
		Targets:       []*Target{{Name: "y", TargetValue: 0}},
		Evaluate:      identityEval,
		GateThreshold: 2,
	}
	res, err := s.RunBest()
	require.NoError(t, err)
	assert.False(t, res.Completed)
}

func TestSafetyGate_AppliesToWorstPass(t *testing.T) {
	// 許容差の組み合わせ 3^N もゲートを通る
	s := &Searcher{
		Components: []*Component{setComp("R1", Resistor, []float64{100}, 10.0)},
		Targets:    []*Target{{Name: "y", TargetValue: 100}},
		Evaluate:   identityEval,
		Confirm:    func(total int64) bool { return true },
	}
	_, err := s.RunBest()
	require.NoError(t, err)

	s.GateThreshold = 2
	s.Confirm = func(total int64) bool { return false }
	worst, err := s.RunWorst()
	require.NoError(t, err)
	assert.False(t, worst.Completed)
	assert.Equal(t, int64(3), worst.Combinations)
}

func TestEvaluatorErrorAbortsPass(t *testing.T) {
	s := &Searcher{
		Components: []*Component{setComp("R1", Resistor, []float64{1, 2, 3}, 1.0)},
		Targets:    []*Target{{Name: "y", TargetValue: 0}},
		Evaluate: func(fixed, x map[string]float64) (map[string]float64, error) {
			if Get(x, "R1") == 3 {
				return nil, fmt.Errorf("division by zero")
			}
			return map[string]float64{"y": Get(x, "R1")}, nil
		},
	}

	res, err := s.RunBest()
	assert.Nil(t, res)
	var eerr *EvalError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, 3.0, eerr.Values["R1"])
	assert.EqualError(t, eerr.Inner, "division by zero")
}

func TestMissingTargetInEvaluatorOutput(t *testing.T) {
	s := &Searcher{
		Components: []*Component{setComp("R1", Resistor, []float64{1}, 1.0)},
		Targets:    []*Target{{Name: "y", TargetValue: 0}},
		Evaluate: func(fixed, x map[string]float64) (map[string]float64, error) {
			return map[string]float64{"z": 0}, nil
		},
	}
	_, err := s.RunBest()
	var eerr *EvalError
	require.ErrorAs(t, err, &eerr)
}

func TestRunBest_NoComponentsIsConfigError(t *testing.T) {
	s := &Searcher{Evaluate: identityEval}
	_, err := s.RunBest()
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestProgressOutput(t *testing.T) {
	vals := make([]float64, 2100)
	for i := range vals {
		vals[i] = float64(i)
	}
	var buf bytes.Buffer
	s := &Searcher{
		Components: []*Component{setComp("R1", Resistor, vals, 1.0)},
		Targets:    []*Target{{Name: "y", TargetValue: 1000}},
		Evaluate:   identityEval,
		Progress:   &buf,
	}

	res, err := s.RunBest()
	require.NoError(t, err)
	require.True(t, res.Completed)

	out := buf.String()
	assert.Contains(t, out, "Number of combinations: 2100")
	assert.Contains(t, out, "Estimated time:")
	assert.Contains(t, out, "Progress: ||")
}

// 元の分圧回路の例をスケールを絞って探索し、適当な 1 点
// （R1=R2=R3=10k）より厳密に良い解が見つかることを確かめる。
func TestSchmittTriggerScenario_Reduced(t *testing.T) {
	cfg := DefaultConfig()

	scales := []float64{1000, 10000}
	components := []*Component{
		{Name: "R1", Kind: Resistor, ValueScale: scales, Tolerance: 1.0},
		{Name: "R2", Kind: Resistor, ValueScale: scales, Tolerance: 1.0},
		{Name: "R3", Kind: Resistor, ValueScale: scales, Tolerance: 1.0},
	}

	s := &Searcher{
		Fixed:      cfg.FixedParams,
		Components: components,
		Targets:    cfg.Targets,
		Evaluate:   cfg.Evaluate,
	}

	res, err := s.RunBest()
	require.NoError(t, err)
	require.True(t, res.Completed)
	assert.Equal(t, int64(48*48*48), res.Combinations)

	// 適当に選んだ 1 点の誤差
	naive, err := cfg.Evaluate(
		fixedMapOf(cfg.FixedParams),
		map[string]float64{"R1": 10000, "R2": 10000, "R3": 10000},
	)
	require.NoError(t, err)
	naiveErr := 0.0
	for _, tg := range cfg.Targets {
		d := tg.TargetValue - naive[tg.Name]
		naiveErr += d * d
	}
	naiveErr = math.Sqrt(naiveErr)

	assert.Less(t, res.State.BestError, naiveErr)
	assert.Less(t, res.State.BestError, 0.05)

	worst, err := s.RunWorst()
	require.NoError(t, err)
	require.True(t, worst.Completed)
	assert.Equal(t, int64(27), worst.Combinations)
	assert.Greater(t, worst.State.WorstError, 0.0)
}

// 元の例そのまま（R1,R2,R3 を 4 スケール×E24、C1 固定、C2 は 2 値、
// L1 固定）。組み合わせ数は 96^3 * 1 * 2 * 1 = 1,769,472。
func TestSchmittTriggerScenario_Full(t *testing.T) {
	if testing.Short() {
		t.Skip("1.7M combinations, skipped with -short")
	}

	cfg := DefaultConfig()
	s := &Searcher{
		Fixed:      cfg.FixedParams,
		Components: cfg.Components,
		Targets:    cfg.Targets,
		Evaluate:   cfg.Evaluate,
	}

	res, err := s.RunBest()
	require.NoError(t, err)
	require.True(t, res.Completed)
	assert.Equal(t, int64(1_769_472), res.Combinations)
	assert.Less(t, res.State.BestError, 0.01)

	for _, tg := range cfg.Targets {
		assert.InDelta(t, tg.TargetValue, tg.BestValue, 0.01)
	}

	worst, err := s.RunWorst()
	require.NoError(t, err)
	require.True(t, worst.Completed)
	assert.Equal(t, int64(729), worst.Combinations) // 3^6
	assert.Greater(t, worst.State.WorstError, 0.0)
}
