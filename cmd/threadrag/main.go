package main

import (
	"fmt"
	"os"

	"github.com/siherrmann/threadrag"
)

func main() {
	if err := newRootCommand(threadrag.NewFromConfiguration).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
