// config.go
package main

import (
	"fmt"
	"math"
)

// Config は「ユーザー設定」をまとめたもの。別の回路を探索するときは
// ここ（または config_local.go の LocalOverride）を書き換える。
type Config struct {
	FixedParams []FixedParam
	Components  []*Component
	Targets     []*Target
	Evaluate    EvalFunc
	Consistency ConsistencyFunc // nil なら検査しない

	GateThreshold int64       // 0 なら DefaultGateThreshold
	Confirm       ConfirmFunc // 安全ゲートの判定

	XLSXFile string // "" なら保存しない
	TSVFile  string // "" なら保存しない
}

// config.go に触らずに設定を差し替えるためのフック（config_local.go 側）
var LocalOverride func(*Config)

func f64(v float64) *float64 { return &v }

// ============================================================
// ユーザー設定（ここから）
// ============================================================

// 例：非対称反転シュミットトリガ（単電源）の分圧回路。
// R1, R2, R3 を探索して 2 つのしきい値電圧を目標に合わせる。

func DefaultConfig() Config {
	// Step 1：回路図に合わせて固定パラメータ・部品・目標値を書く。
	fixedParams := []FixedParam{
		{Name: "VCC", Value: 5.0, Units: "Volt", Description: "Positive supply reference voltage."},
		{Name: "GND", Value: 0.0, Units: "Volt", Description: "Ground reference voltage."},
	}

	// OpAmp が安定する抵抗値はふつう 1K〜100K だが、ここでは
	// 100Ω〜1MΩ に広げている。
	scales := []float64{100, 1000, 10000, 100000}

	components := []*Component{
		{Name: "R1", Kind: Resistor, ValueScale: scales, Tolerance: 1.0,
			Description: "Upper resistor of voltage divider."},
		{Name: "R2", Kind: Resistor, ValueScale: scales, Tolerance: 1.0,
			Description: "Lower resistor of voltage divider."},
		{Name: "R3", Kind: Resistor, ValueScale: scales, Tolerance: 1.0,
			Description: "OpAmp feedback resistor."},
		{Name: "C1", Kind: Capacitor, Value: f64(1e-6), Tolerance: 10.0,
			Description: "Not used capacitor."},
		{Name: "C2", Kind: Capacitor, ValueSet: []float64{1e-6, 10e-6}, Tolerance: 1.0,
			Description: "Not used capacitor."},
		{Name: "L1", Kind: Inductor, Value: f64(1e-3), Tolerance: 20.0,
			Description: "Not used inductor."},
	}

	targets := []*Target{
		{Name: "V_low_threshold", TargetValue: 0.555, Units: "Volt",
			Description: "The threshold for the lower voltage."},
		{Name: "V_high_threshold", TargetValue: 0.575, Units: "Volt",
			Description: "The threshold for the higher voltage."},
	}

	// Step 2：回路方程式。1 つの組み合わせを評価して target 名→計算値を返す。
	// キーは components / fixedParams の Name と一致している必要がある
	// （Get を使うとミスは即発覚する）。
	evaluate := func(fixed, x map[string]float64) (map[string]float64, error) {
		VCC := Get(fixed, "VCC")
		R1 := Get(x, "R1")
		R2 := Get(x, "R2")
		R3 := Get(x, "R3")

		// V_low_threshold：R2‖R3 と R1 の分圧
		rTotalLow := (R2 * R3) / (R2 + R3)
		vLow := VCC * rTotalLow / (R1 + rTotalLow)

		// V_high_threshold：R1‖R3 と R2 の分圧
		rTotalHigh := (R1 * R3) / (R1 + R3)
		vHigh := VCC * R2 / (R2 + rTotalHigh)

		if math.IsNaN(vLow) || math.IsNaN(vHigh) {
			return nil, fmt.Errorf("degenerate combination: R1=%g R2=%g R3=%g", R1, R2, R3)
		}
		return map[string]float64{
			"V_low_threshold":  vLow,
			"V_high_threshold": vHigh,
		}, nil
	}

	// Step 3：固定パラメータと目標値の整合性検査（任意）。探索前に呼ばれる。
	consistency := func(fixed, targets map[string]float64) bool {
		VCC := Get(fixed, "VCC")
		vLow := Get(targets, "V_low_threshold")
		vHigh := Get(targets, "V_high_threshold")

		passed := true
		if !(0 < VCC) {
			fmt.Println("Error in specification VCC, it has to be: 0 < VCC")
			passed = false
		}
		if !(vLow < vHigh) {
			fmt.Println("Error in specification, it has to be: V_low_threshold < V_high_threshold")
			passed = false
		}
		if !(0 <= vLow && vLow <= VCC) {
			fmt.Println("Error in specification, it has to be: 0 <= V_low_threshold <= VCC")
			passed = false
		}
		if !(0 <= vHigh && vHigh <= VCC) {
			fmt.Println("Error in specification, it has to be: 0 <= V_high_threshold <= VCC")
			passed = false
		}
		return passed
	}

	// ============================================================
	// ユーザー設定（ここまで）
	// ============================================================

	cfg := Config{
		FixedParams: fixedParams,
		Components:  components,
		Targets:     targets,
		Evaluate:    evaluate,
		Consistency: consistency,

		GateThreshold: DefaultGateThreshold,
		Confirm:       askToContinue,

		XLSXFile: "",
		TSVFile:  "",
	}
	if LocalOverride != nil {
		LocalOverride(&cfg)
	}
	return cfg
}
