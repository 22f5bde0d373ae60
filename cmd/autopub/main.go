package main

import (
	"os"

	"github.com/moodworks/autopub/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
