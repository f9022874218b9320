// main.go
// 回路の RCL 部品値を全探索するプラットフォーム（許容差解析つき）
// - 各部品の候補値を value（固定値）/ value_set / value_scale×標準系列で展開
// - 全組み合わせを列挙して、目標値とのユークリッド距離が最小の組を探す
// - 見つけた値の許容差 3 点 {v-δ, v, v+δ} から最悪ケース
//   （マンハッタン距離が最大）を解析する
// - 組み合わせ数が安全しきい値を超えたら y/n を尋ねてから回す
//
// 回路は config.go（Step 1〜3 のコメント参照）で差し替える。

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// askToContinue は安全ゲートのデフォルト実装。y/n を尋ね、
// どちらかを入力するまで繰り返す。
func askToContinue(total int64) bool {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("ALERT: Can take a long time to process, combinations = %d, continue (y, n)? ", total)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.TrimSpace(line) {
		case "y", "Y":
			return true
		case "n", "N":
			return false
		}
	}
}

func main() {
	fmt.Println("#####################################################")
	fmt.Println("#                                                   #")
	fmt.Println("#  Platform to search any circuit component values  #")
	fmt.Println("#             and tolerance analysis.               #")
	fmt.Println("#                                                   #")
	fmt.Println("#####################################################")
	fmt.Println()

	cfg := DefaultConfig()

	PrintSpec(os.Stdout, &cfg)

	if cfg.Consistency != nil {
		if !cfg.Consistency(fixedMapOf(cfg.FixedParams), targetMapOf(cfg.Targets)) {
			os.Exit(1)
		}
	}

	s := &Searcher{
		Fixed:         cfg.FixedParams,
		Components:    cfg.Components,
		Targets:       cfg.Targets,
		Evaluate:      cfg.Evaluate,
		GateThreshold: cfg.GateThreshold,
		Confirm:       cfg.Confirm,
		Progress:      os.Stdout,
	}

	best, err := s.RunBest()
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if !best.Completed {
		// ゲートで中止。想定内の終了。
		fmt.Println("Search not started.")
		return
	}
	PrintBestReport(os.Stdout, s, best)

	worst, err := s.RunWorst()
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if !worst.Completed {
		fmt.Println("Tolerance analysis not started.")
		return
	}
	PrintWorstReport(os.Stdout, s, worst)

	if cfg.XLSXFile != "" {
		if err := SaveToXLSX(cfg.XLSXFile, s, best, worst); err != nil {
			fmt.Println("xlsx save error:", err)
		} else {
			fmt.Println("xlsx saved:", cfg.XLSXFile)
		}
	}
	if cfg.TSVFile != "" {
		if err := SaveToTSV(cfg.TSVFile, s); err != nil {
			fmt.Println("tsv save error:", err)
		} else {
			fmt.Println("tsv saved:", cfg.TSVFile)
		}
	}
}
