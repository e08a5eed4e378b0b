// cmd/image-picker/main.go
package main

import (
	"context"
	"os"

	"github.com/roostergrin/image-picker/internal/app"
)

func main() {
	if err := app.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
