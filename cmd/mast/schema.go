package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maglevlabs/mast/pkg/schema"
	"github.com/maglevlabs/mast/pkg/validate"
)

var schemaOutDir string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Export the JSON Schemas for script files",
	Long: `Export the generated JSON Schemas. Without --out the step-based schema
prints to stdout; with --out both schemas are written into the directory.`,
	RunE: runSchema,
}

var checkSchemaCmd = &cobra.Command{
	Use:   "check-schema [script.json]",
	Short: "Check a file against the generated JSON Schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckSchema,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaOutDir, "out", "", "Directory to write testscript.schema.json and legacyscript.schema.json")

	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(checkSchemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	stepSchema, err := schema.GenerateScriptSchema()
	if err != nil {
		return err
	}

	if schemaOutDir == "" {
		fmt.Println(string(stepSchema))
		return nil
	}

	legacySchema, err := schema.GenerateLegacySchema()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(schemaOutDir, 0755); err != nil {
		return err
	}
	for name, data := range map[string][]byte{
		"testscript.schema.json":   stepSchema,
		"legacyscript.schema.json": legacySchema,
	} {
		path := filepath.Join(schemaOutDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s\n", path)
	}
	return nil
}

func runCheckSchema(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	res := validate.ResultOf(schema.CheckBytes(data))
	printWarnings(res)
	if !res.Valid {
		printErrors(res)
		return fmt.Errorf("schema check failed with %d error(s)", len(res.Errors))
	}
	fmt.Printf("✓ %s matches the schema\n", args[0])
	return nil
}
