package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"RecipeImporter/internal/app"
	"RecipeImporter/internal/config"
	"RecipeImporter/internal/logging"
)

func main() {
	fromStdin := flag.Bool("stdin", false, "import pasted HTML/text from stdin instead of a URL")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	var result any
	switch {
	case *fromStdin:
		text, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			logger.Error("read stdin", "error", readErr)
			os.Exit(1)
		}
		result, err = application.ImportFromText(ctx, string(text))
	case flag.NArg() == 1:
		result, err = application.ImportFromURL(ctx, flag.Arg(0))
	default:
		fmt.Fprintln(os.Stderr, "usage: recipeimporter <url> | recipeimporter -stdin < page.html")
		os.Exit(2)
	}

	if err != nil {
		logger.Error("import failed", "error", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
