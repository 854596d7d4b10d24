package main

import "github.com/splitflow/splitflow/internal/cli"

func main() {
	cli.Execute()
}
