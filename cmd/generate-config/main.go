package main

import (
	"os"

	"gopkg.in/yaml.v2"
	"pypoker-client/internal/config"
)

// prints the default client configuration, redirect it to config.yaml to get started
func main() {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()

	if err := enc.Encode(config.DefaultConfig()); err != nil {
		panic(err)
	}
}
