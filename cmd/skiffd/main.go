package main

import (
	"log"

	"github.com/NVIDIA/skiff/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
