package main

import "github.com/handiism/dstask/internal/cli"

func main() {
	cli.Execute()
}
