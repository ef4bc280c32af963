package main

import "batchrunner/cmd/cli"

func main() {
	cli.Execute()
}
