package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/food-rescue-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rescuectl:", err)
		os.Exit(1)
	}
}
