// output.go
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

func fmt6(x float64) string { return fmt.Sprintf("%.6g", x) }

// printTable は列幅を中身から決めて ASCII の表を描く。
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for j, cell := range row {
			if len(cell) > widths[j] {
				widths[j] = len(cell)
			}
		}
	}

	printLine := func() {
		fmt.Fprint(w, "+")
		for _, width := range widths {
			fmt.Fprint(w, strings.Repeat("-", width+2)+"+")
		}
		fmt.Fprintln(w)
	}

	printLine()
	fmt.Fprint(w, "|")
	for i, h := range headers {
		fmt.Fprintf(w, " %-*s |", widths[i], h)
	}
	fmt.Fprintln(w)
	printLine()

	for _, row := range rows {
		fmt.Fprint(w, "|")
		for j, cell := range row {
			fmt.Fprintf(w, " %*s |", widths[j], cell)
		}
		fmt.Fprintln(w)
	}
	printLine()
	fmt.Fprintln(w)
}

// PrintSpec は探索を始める前に仕様（固定パラメータと目標値）を表示する。
func PrintSpec(w io.Writer, cfg *Config) {
	fmt.Fprintln(w, "### Specification:")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Fixed parameters.")
	for _, p := range cfg.FixedParams {
		fmt.Fprintf(w, "%s: %f %s\n", p.Name, p.Value, p.Units)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Target calculation values.")
	for _, t := range cfg.Targets {
		fmt.Fprintf(w, "%s_target: %f %s\n", t.Name, t.TargetValue, t.Units)
	}
	fmt.Fprintln(w)
}

func targetRows(targets []*Target, pick func(*Target) float64) [][]string {
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		got := pick(t)
		rows = append(rows, []string{
			t.Name,
			fmt6(t.TargetValue),
			fmt6(got),
			fmt6(math.Abs(t.TargetValue - got)),
			t.Units,
		})
	}
	return rows
}

func componentRows(comps []*Component, pick func(*Component) float64) [][]string {
	rows := make([][]string, 0, len(comps))
	for _, c := range comps {
		rows = append(rows, []string{
			c.Name,
			c.Kind.String(),
			fmt6(pick(c)),
			fmt6(c.Tolerance),
			c.Kind.Units(),
		})
	}
	return rows
}

// PrintBestReport は best パスの結果（最小誤差の組み合わせ）を表示する。
func PrintBestReport(w io.Writer, s *Searcher, res *Result) {
	fmt.Fprintln(w, "### Solution")
	fmt.Fprintf(w, "Combinations: %d\n", res.Combinations)
	fmt.Fprintf(w, "Best_error: %g\n", res.State.BestError)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Obtained calculation values.")
	printTable(w,
		[]string{"Name", "Target", "Obtained", "Delta", "Units"},
		targetRows(s.Targets, func(t *Target) float64 { return t.BestValue }))

	fmt.Fprintln(w, "Best component values.")
	printTable(w,
		[]string{"Name", "Kind", "Best", "Tolerance [%]", "Units"},
		componentRows(s.orderedComponents(), func(c *Component) float64 { return c.BestValue }))
}

// PrintWorstReport は許容差解析の結果（最悪ケース）を表示する。
func PrintWorstReport(w io.Writer, s *Searcher, res *Result) {
	fmt.Fprintln(w, "### Tolerance analysis")
	fmt.Fprintf(w, "Combinations: %d\n", res.Combinations)
	fmt.Fprintf(w, "Worst_error: %g\n", res.State.WorstError)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Worst obtained calculation values.")
	printTable(w,
		[]string{"Name", "Target", "Obtained", "Delta", "Units"},
		targetRows(s.Targets, func(t *Target) float64 { return t.WorstValue }))

	fmt.Fprintln(w, "Worst component values.")
	printTable(w,
		[]string{"Name", "Kind", "Worst", "Tolerance [%]", "Units"},
		componentRows(s.orderedComponents(), func(c *Component) float64 { return c.WorstValue }))
}

// SaveToXLSX は両パスの結果を 1 つのブックに保存する。
// Summary / Targets / Components の 3 シート。
func SaveToXLSX(filename string, s *Searcher, best, worst *Result) error {
	f := excelize.NewFile()

	// Summary
	summary := "Summary"
	f.SetSheetName("Sheet1", summary)

	f.SetCellValue(summary, "A1", "Pass")
	f.SetCellValue(summary, "B1", "Combinations")
	f.SetCellValue(summary, "C1", "Error")

	f.SetCellValue(summary, "A2", "Best")
	f.SetCellValue(summary, "B2", best.Combinations)
	f.SetCellValue(summary, "C2", best.State.BestError)

	f.SetCellValue(summary, "A3", "Worst")
	f.SetCellValue(summary, "B3", worst.Combinations)
	f.SetCellValue(summary, "C3", worst.State.WorstError)

	writeRow := func(sheet string, row int, cells []interface{}) {
		for i, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	// Targets
	f.NewSheet("Targets")
	writeRow("Targets", 1, []interface{}{"No", "Name", "Target", "Best", "BestDelta", "Worst", "WorstDelta", "Units"})
	for i, t := range s.Targets {
		writeRow("Targets", i+2, []interface{}{
			i + 1, t.Name, t.TargetValue,
			t.BestValue, math.Abs(t.TargetValue - t.BestValue),
			t.WorstValue, math.Abs(t.TargetValue - t.WorstValue),
			t.Units,
		})
	}

	// Components
	f.NewSheet("Components")
	writeRow("Components", 1, []interface{}{"No", "Name", "Kind", "Best", "Worst", "Tolerance [%]", "Units"})
	for i, c := range s.orderedComponents() {
		writeRow("Components", i+2, []interface{}{
			i + 1, c.Name, c.Kind.String(), c.BestValue, c.WorstValue, c.Tolerance, c.Kind.Units(),
		})
	}

	return f.SaveAs(filename)
}

// SaveToTSV は部品の best / worst 値を TSV で保存する
// （目標値まで要るときは xlsx の方を使う）。
func SaveToTSV(filename string, s *Searcher) error {
	if filename == "" {
		return nil
	}

	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()

	w := csv.NewWriter(fp)
	w.Comma = '\t'

	if err := w.Write([]string{"name", "kind", "best", "worst", "tolerance_pct", "units"}); err != nil {
		return err
	}
	for _, c := range s.orderedComponents() {
		row := []string{
			c.Name,
			c.Kind.String(),
			fmt6(c.BestValue),
			fmt6(c.WorstValue),
			fmt6(c.Tolerance),
			c.Kind.Units(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
