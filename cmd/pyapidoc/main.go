package main

import "github.com/drift-labs/pyapidoc/internal/cli"

func main() {
	cli.Execute()
}
