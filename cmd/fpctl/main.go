// Command fpctl は指紋認証サービスの運用コマンドです。
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
