// config_local.go
// config.go に直接さわらずにここで差し替え

package main

func init() {
	LocalOverride = func(cfg *Config) {

		// コメントアウトでデフォルト値が使われる。

		// 安全ゲートのしきい値（これを超える組み合わせ数は y/n を尋ねる）
		// cfg.GateThreshold = 1_000_000

		// xlsx 出力のファイル名（"" なら保存しない）
		// cfg.XLSXFile = "result.xlsx"

		// tsv 出力のファイル名（"" なら保存しない）
		// cfg.TSVFile = "result.tsv"
	}
}
