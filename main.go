package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/askmongo/askmongo/cmd"
	apperrors "github.com/askmongo/askmongo/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var appErr *apperrors.Error
		if errors.As(err, &appErr) && len(appErr.Suggestions) > 0 {
			fmt.Fprintln(os.Stderr, "\nSuggestions:")

			for _, suggestion := range appErr.Suggestions {
				fmt.Fprintf(os.Stderr, "  • %s\n", suggestion)
			}
		}

		os.Exit(1)
	}
}
