package main

import (
	"fmt"
	"os"
)

func main() {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(exitError)
	}

	os.Exit(newApp(dir, os.Stdout, os.Stderr).execute(os.Args[1:]))
}
