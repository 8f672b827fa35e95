package main

import "taxcsv/internal/cli"

func main() {
	cli.Execute()
}
