package main

import "github.com/contentlake/lakeq/cli"

func main() {
	cli.Main()
}
