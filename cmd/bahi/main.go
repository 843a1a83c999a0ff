package main

import "github.com/bahi-ledger/bahi/internal/cli"

func main() {
	cli.Execute()
}
