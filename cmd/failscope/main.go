package main

import "failscope/internal/cli"

func main() {
	cli.Execute()
}
