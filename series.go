// series.go
// 標準系列（1 decade あたりの値）。スケール係数と掛け合わせて実際の
// 部品値になる。インダクタには標準系列を持たせないので、L は value か
// value_set で指定する。
package main

// E24 系列（抵抗用）
var E24Series = []float64{
	1.0, 1.1, 1.2, 1.3, 1.5, 1.6, 1.8, 2.0, 2.2,
	2.4, 2.7, 3.0, 3.3, 3.6, 3.9, 4.3, 4.7, 5.1,
	5.6, 6.2, 6.8, 7.5, 8.2, 9.1,
}

// E12 系列（コンデンサ用）
var E12Series = []float64{
	1.0, 1.2, 1.5, 1.8, 2.2, 2.7, 3.3, 3.9, 4.7,
	5.6, 6.8, 8.2,
}
