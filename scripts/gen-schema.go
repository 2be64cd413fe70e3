//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/maglevlabs/mast/pkg/schema"
)

func main() {
	data, err := schema.GenerateScriptSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/testscript.schema.json", data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/testscript.schema.json")

	legacyData, err := schema.GenerateLegacySchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating legacy schema: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/legacyscript.schema.json", legacyData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/legacyscript.schema.json")
}
