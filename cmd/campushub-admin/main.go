package main

import (
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/campushub/campushub/pkg/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
