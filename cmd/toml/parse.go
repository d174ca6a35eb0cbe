package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/confkit/toml-csl/csl"
	"github.com/confkit/toml-csl/encode"
	"github.com/confkit/toml-csl/token"
	"github.com/confkit/toml-csl/toml"
	"github.com/confkit/toml-csl/validator"
)

// runParse drives the parse pipeline: lex, parse, optionally validate
// against a CSL schema, report diagnostics grouped by file on stderr
// and write the JSON rendition of the tree.
func runParse() int {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}

	in, err := os.Open(cli.Parse)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer in.Close()

	printInfo(os.Stdout)

	tokens, errors, warnings := toml.Lex(in, true)
	result := toml.Parse(tokens)
	errors = append(errors, result.Errors...)
	warnings = append(warnings, result.Warnings...)
	report(cli.Parse, errors, warnings)
	exitCode := 0
	if len(errors)+len(warnings) > 0 {
		exitCode = 1
	}

	if cli.Validate != "" {
		schemaIn, err := os.Open(cli.Validate)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer schemaIn.Close()
		schemaTokens, schemaErrors, schemaWarnings := csl.Lex(schemaIn, true)
		schemas, parseErrors, parseWarnings := csl.Parse(schemaTokens)
		schemaErrors = append(schemaErrors, parseErrors...)
		schemaWarnings = append(schemaWarnings, parseWarnings...)
		report(cli.Validate, schemaErrors, schemaWarnings)

		validationErrors, validationWarnings := validator.Validate(cli.Schema, schemas, result.Root)
		report(cli.Parse, validationErrors, validationWarnings)
		if len(schemaErrors)+len(schemaWarnings)+len(validationErrors)+len(validationWarnings) > 0 {
			exitCode = 1
		}
	}

	rendered := encode.JSON(result.Root, cli.Tagged)
	if cli.Output != "" {
		out, err := os.Create(cli.Output)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer out.Close()
		if _, err := fmt.Fprintln(out, rendered); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := out.Sync(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	} else {
		fmt.Println("\nJSON:")
		fmt.Println(rendered)
	}
	return exitCode
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
)

func report(path string, errors, warnings []token.Diag) {
	if len(errors) > 0 {
		fmt.Fprintf(os.Stderr, "\nErrors in %s:\n", path)
		for _, e := range errors {
			errorColor.Fprintf(os.Stderr, "Error (line %d, col %d): ", e.Region.Start.Line, e.Region.Start.Col)
			fmt.Fprintln(os.Stderr, e.Message)
		}
	}
	if len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "\nWarnings in %s:\n", path)
		for _, w := range warnings {
			warningColor.Fprintf(os.Stderr, "Warning (line %d, col %d): ", w.Region.Start.Line, w.Region.Start.Col)
			fmt.Fprintln(os.Stderr, w.Message)
		}
	}
}
