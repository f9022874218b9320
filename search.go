// search.go
// RCL 部品値の全探索の本体。
// - 候補値の展開：value（固定値）> value_set（明示的な集合）> value_scale×標準系列
// - 展開した候補リストの直積をオドメータ方式で列挙（先頭の部品が最も遅く回る）
// - best パス：目標値とのユークリッド距離が最小の組み合わせを探す
// - worst パス：best 値の許容差 3 点 {v-δ, v, v+δ} でマンハッタン距離が最大の
//   組み合わせを探す（許容差解析）
// - 組み合わせ数が安全しきい値を超えたら確認してから列挙を始める
package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"
)

type ComponentKind int

const (
	Resistor ComponentKind = iota
	Capacitor
	Inductor
)

func (k ComponentKind) String() string {
	switch k {
	case Resistor:
		return "resistor"
	case Capacitor:
		return "capacitor"
	case Inductor:
		return "inductor"
	default:
		return "unknown"
	}
}

// Units は報告に使う単位（原単位）。
func (k ComponentKind) Units() string {
	switch k {
	case Resistor:
		return "Ohm"
	case Capacitor:
		return "Farad"
	case Inductor:
		return "Henry"
	default:
		return ""
	}
}

// Series は候補値の展開に使う標準系列。インダクタには無い。
func (k ComponentKind) Series() []float64 {
	switch k {
	case Resistor:
		return E24Series
	case Capacitor:
		return E12Series
	default:
		return nil
	}
}

// FixedParam は探索中に変化しない定数（電源電圧など）。
type FixedParam struct {
	Name        string
	Value       float64
	Units       string
	Description string
}

// Component は 1 つの部品の仕様。Value / ValueSet / ValueScale の
// いずれか 1 つで候補値を決める（優先順位はこの順）。
type Component struct {
	Name        string
	Kind        ComponentKind
	Value       *float64  // 固定値（nil なら未指定）
	ValueSet    []float64 // 明示的な候補値（与えた順を保つ）
	ValueScale  []float64 // 標準系列に掛けるスケール係数
	Tolerance   float64   // 許容差 [%]
	Description string

	// 内部状態（探索が埋める）
	expandedValues    []float64
	expandedTolerance []float64
	BestValue         float64
	WorstValue        float64
}

// Target は回路方程式の出力 1 つ分。TargetValue に近づけたい値。
type Target struct {
	Name        string
	TargetValue float64
	Units       string
	Description string

	// 内部状態（組み合わせごとに更新される）
	CalcValue  float64
	BestValue  float64
	WorstValue float64
}

// SearchState は 2 つの走っている極値。BestError は単調減少、
// WorstError は単調増加しかしない。
type SearchState struct {
	BestError  float64
	WorstError float64
}

// Result は 1 パス分の結果。安全ゲートで中止したときは Completed が
// false でエラーにはしない（想定内の終了）。
type Result struct {
	Completed    bool
	Combinations int64
	State        SearchState
}

// EvalFunc は回路方程式。fixed は固定パラメータ、values は現在の
// 組み合わせ（部品名→値）。target 名→計算値を返す純関数であること。
type EvalFunc func(fixed, values map[string]float64) (map[string]float64, error)

// ConfirmFunc は安全ゲートの判定。true なら列挙を続行する。
type ConfirmFunc func(total int64) bool

// ConsistencyFunc は固定パラメータと目標値の整合性検査（任意）。
type ConsistencyFunc func(fixed, targets map[string]float64) bool

// 安全ゲートのしきい値。これを超える組み合わせ数は確認してから回す。
const DefaultGateThreshold = 25_000_000

// 実行時間を見積もるまでの組み合わせ数
const warmupCount = 1000

// ConfigError は部品・目標値の指定の誤り。列挙が始まる前に検出される。
type ConfigError struct {
	Name   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Name, e.Reason)
}

// PrecursorError は best パスを済ませる前に許容差解析を呼んだ誤り。
type PrecursorError struct {
	Reason string
}

func (e *PrecursorError) Error() string {
	return "precursor missing: " + e.Reason
}

// EvalError は回路方程式が返した失敗。失敗した組み合わせを保持する。
// このパスはその場で中断される（組み合わせ単位の隔離はしない）。
type EvalError struct {
	Values map[string]float64
	Inner  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluator failed for %v: %v", e.Values, e.Inner)
}

func (e *EvalError) Unwrap() error { return e.Inner }

// Get は map から値を取り出す。ユーザー関数でキー打ち間違いしたら
// 即気づけるようにする。
func Get(x map[string]float64, key string) float64 {
	v, ok := x[key]
	if !ok {
		panic("missing key in x: " + key)
	}
	return v
}

// expandValues は 1 つの部品の候補値リストを作る。
// 優先順位は value > value_set > value_scale×series。
// scale-major / series-minor の順で連結する。
func expandValues(c *Component, series []float64) ([]float64, error) {
	switch {
	case c.Value != nil:
		return []float64{*c.Value}, nil
	case c.ValueSet != nil:
		return append([]float64(nil), c.ValueSet...), nil
	case c.ValueScale != nil:
		if len(series) == 0 {
			return nil, &ConfigError{c.Name, "value_scale needs a standard series (give value or value_set instead)"}
		}
		vals := make([]float64, 0, len(c.ValueScale)*len(series))
		for _, scale := range c.ValueScale {
			for _, unit := range series {
				vals = append(vals, unit*scale)
			}
		}
		return vals, nil
	default:
		return nil, &ConfigError{c.Name, "none of value / value_set / value_scale is set"}
	}
}

// expandTolerance は許容差の 3 点 {v-δ, v, v+δ} を返す。δ = v·t/100。
func expandTolerance(nominal, tolerancePercent float64) []float64 {
	delta := nominal * tolerancePercent * 0.01
	return []float64{nominal - delta, nominal, nominal + delta}
}

// combinationIterator は候補リストの直積をオドメータ方式で列挙する。
// 先頭のリストが最も遅く回る（辞書式順序）。全組み合わせを
// メモリに持たず、1 つずつ生成する。
type combinationIterator struct {
	lists [][]float64
	idx   []int
	vals  []float64
	done  bool
}

func newCombinationIterator(lists [][]float64) *combinationIterator {
	it := &combinationIterator{lists: lists}
	it.Reset()
	return it
}

// Reset は列挙を先頭からやり直す。
func (it *combinationIterator) Reset() {
	it.idx = make([]int, len(it.lists))
	it.vals = make([]float64, len(it.lists))
	it.done = false
	for _, lst := range it.lists {
		if len(lst) == 0 {
			it.done = true
			return
		}
	}
}

// Next は次の組み合わせを返す。返すスライスは内部バッファの再利用
// なので、保持したい場合は呼び出し側でコピーすること。
func (it *combinationIterator) Next() ([]float64, bool) {
	if it.done {
		return nil, false
	}
	for i, lst := range it.lists {
		it.vals[i] = lst[it.idx[i]]
	}
	// 末尾の桁から繰り上げる
	i := len(it.idx) - 1
	for ; i >= 0; i-- {
		it.idx[i]++
		if it.idx[i] < len(it.lists[i]) {
			break
		}
		it.idx[i] = 0
	}
	if i < 0 {
		it.done = true
	}
	return it.vals, true
}

// combinationCount は組み合わせ総数（各リスト長の積）を O(#部品) で
// 求める。int64 を超える場合はエラー。
func combinationCount(lists [][]float64) (int64, error) {
	total := int64(1)
	for _, lst := range lists {
		n := int64(len(lst))
		if n == 0 {
			return 0, nil
		}
		if total > math.MaxInt64/n {
			return 0, &ConfigError{"combinations", "combination count overflows int64"}
		}
		total *= n
	}
	return total, nil
}

// Searcher は 1 回分の探索。Components と Targets の内部状態を
// 直接埋めるので、並行実行するなら別の Searcher（と別の記録先）を使う。
type Searcher struct {
	Fixed      []FixedParam
	Components []*Component
	Targets    []*Target
	Evaluate   EvalFunc

	GateThreshold int64       // 0 なら DefaultGateThreshold
	Confirm       ConfirmFunc // ゲートにかかったときの判定。nil なら中止
	Progress      io.Writer   // 進行表示の出力先。nil なら表示しない

	state    SearchState
	bestDone bool
}

func fixedMapOf(params []FixedParam) map[string]float64 {
	m := make(map[string]float64, len(params))
	for _, p := range params {
		m[p.Name] = p.Value
	}
	return m
}

func targetMapOf(targets []*Target) map[string]float64 {
	m := make(map[string]float64, len(targets))
	for _, t := range targets {
		m[t.Name] = t.TargetValue
	}
	return m
}

// orderedComponents は R → C → L、各グループ内は名前順の並びを返す。
// この並びが列挙の辞書式順序を決める（再現性のため固定）。
func (s *Searcher) orderedComponents() []*Component {
	out := append([]*Component(nil), s.Components...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// RunBest は候補値を展開して全組み合わせを列挙し、目標値との
// ユークリッド距離が最小の組み合わせを探す。
func (s *Searcher) RunBest() (*Result, error) {
	if len(s.Components) == 0 {
		return nil, &ConfigError{"components", "no components to search"}
	}
	if s.Evaluate == nil {
		return nil, &ConfigError{"evaluate", "no circuit evaluation function"}
	}
	comps := s.orderedComponents()
	lists := make([][]float64, len(comps))
	for i, c := range comps {
		vals, err := expandValues(c, c.Kind.Series())
		if err != nil {
			return nil, err
		}
		c.expandedValues = vals
		lists[i] = vals
	}

	s.state.BestError = math.Inf(1)
	res, err := s.runPass(comps, lists, s.observeBest)
	if err == nil && res.Completed {
		s.bestDone = true
	}
	return res, err
}

// RunWorst は best パスで得た値を中心に許容差の 3 点を展開し、
// マンハッタン距離が最大（最悪ケース）の組み合わせを探す。
// RunBest が完了している必要がある。
func (s *Searcher) RunWorst() (*Result, error) {
	if !s.bestDone {
		return nil, &PrecursorError{"tolerance analysis needs a completed best pass"}
	}
	comps := s.orderedComponents()
	lists := make([][]float64, len(comps))
	for i, c := range comps {
		c.expandedTolerance = expandTolerance(c.BestValue, c.Tolerance)
		lists[i] = c.expandedTolerance
	}

	s.state.WorstError = 0
	return s.runPass(comps, lists, s.observeWorst)
}

type observeFunc func(comps []*Component, values []float64, calc map[string]float64) error

// runPass は 1 パス分の列挙。ゲート → 列挙 → 評価 → 記録の順。
// best / worst ともに同じ経路を通る（許容差の組み合わせ 3^N も
// 部品数が多ければ大きくなるので、ゲートは両方に効かせる）。
func (s *Searcher) runPass(comps []*Component, lists [][]float64, observe observeFunc) (*Result, error) {
	total, err := combinationCount(lists)
	if err != nil {
		return nil, err
	}

	threshold := s.GateThreshold
	if threshold == 0 {
		threshold = DefaultGateThreshold
	}
	if total > threshold {
		if s.Confirm == nil || !s.Confirm(total) {
			return &Result{Completed: false, Combinations: total, State: s.state}, nil
		}
	}

	w := s.Progress
	if w != nil {
		fmt.Fprintf(w, "Number of combinations: %d   5%%: %d\n", total, total/20)
	}

	fixed := fixedMapOf(s.Fixed)
	names := make([]string, len(comps))
	for i, c := range comps {
		names[i] = c.Name
	}
	values := make(map[string]float64, len(comps))

	it := newCombinationIterator(lists)
	start := time.Now()
	var index int64
	for {
		vals, ok := it.Next()
		if !ok {
			break
		}
		if w != nil {
			printProgress(w, index, total, start)
		}
		index++

		for i, v := range vals {
			values[names[i]] = v
		}
		calc, evalErr := s.Evaluate(fixed, values)
		if evalErr != nil {
			return nil, &EvalError{Values: snapshotValues(names, vals), Inner: evalErr}
		}
		if obsErr := observe(comps, vals, calc); obsErr != nil {
			return nil, obsErr
		}
	}
	if w != nil && total > warmupCount {
		fmt.Fprintln(w)
	}
	return &Result{Completed: true, Combinations: total, State: s.state}, nil
}

// observeBest は現在の組み合わせをユークリッド距離で採点し、
// 厳密に小さいときだけ best を更新する（同点なら先の組み合わせが勝つ）。
func (s *Searcher) observeBest(comps []*Component, values []float64, calc map[string]float64) error {
	sum := 0.0
	for _, t := range s.Targets {
		got, ok := calc[t.Name]
		if !ok {
			return &EvalError{
				Values: snapshotValues(componentNames(comps), values),
				Inner:  fmt.Errorf("target %s missing from evaluator output", t.Name),
			}
		}
		t.CalcValue = got
		d := t.TargetValue - got
		sum += d * d
	}
	dist := math.Sqrt(sum)
	if dist < s.state.BestError {
		s.state.BestError = dist
		for _, t := range s.Targets {
			t.BestValue = t.CalcValue
		}
		for i, c := range comps {
			c.BestValue = values[i]
		}
	}
	return nil
}

// observeWorst はマンハッタン距離で採点し、厳密に大きいときだけ
// worst を更新する。best とは意図的に別の距離（最悪ケースの上界）。
func (s *Searcher) observeWorst(comps []*Component, values []float64, calc map[string]float64) error {
	sum := 0.0
	for _, t := range s.Targets {
		got, ok := calc[t.Name]
		if !ok {
			return &EvalError{
				Values: snapshotValues(componentNames(comps), values),
				Inner:  fmt.Errorf("target %s missing from evaluator output", t.Name),
			}
		}
		t.CalcValue = got
		sum += math.Abs(t.TargetValue - got)
	}
	if sum > s.state.WorstError {
		s.state.WorstError = sum
		for _, t := range s.Targets {
			t.WorstValue = t.CalcValue
		}
		for i, c := range comps {
			c.WorstValue = values[i]
		}
	}
	return nil
}

func componentNames(comps []*Component) []string {
	names := make([]string, len(comps))
	for i, c := range comps {
		names[i] = c.Name
	}
	return names
}

func snapshotValues(names []string, vals []float64) map[string]float64 {
	m := make(map[string]float64, len(names))
	for i, n := range names {
		m[n] = vals[i]
	}
	return m
}

// printProgress は warmupCount 件経過した時点で全体時間を見積もって
// 表示し、以後は 5% ごとに "."、25% / 50% ごとに "|" を打つ。
func printProgress(w io.Writer, index, total int64, start time.Time) {
	if index == warmupCount {
		elapsed := time.Since(start)
		est := time.Duration(float64(elapsed) * float64(total) / float64(warmupCount))
		h := int(est.Hours())
		m := int(est.Minutes()) % 60
		sec := int(est.Seconds()) % 60
		fmt.Fprintf(w, "Estimated time: %d H %d M %d S\n", h, m, sec)
		fmt.Fprint(w, "Progress: ||")
		return
	}
	if index <= warmupCount {
		return
	}
	fivePerc := total / 20
	if fivePerc == 0 {
		return
	}
	if index%(fivePerc*10) == 0 {
		fmt.Fprint(w, "|")
	}
	if index%(fivePerc*5) == 0 {
		fmt.Fprint(w, "|")
	} else if index%fivePerc == 0 {
		fmt.Fprint(w, ".")
	}
}
