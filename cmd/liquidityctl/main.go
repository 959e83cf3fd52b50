package main

import "github.com/example/liquidity-gate/internal/cli"

func main() {
	cli.Execute()
}
