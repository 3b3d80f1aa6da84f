package main

import (
	"github.com/NVIDIA/skiff/pkg/cli"
)

func main() {
	cli.Execute()
}
