package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Makepad-fr/foodtrack/internal/cli"
)

func main() {
	// .env is optional; FOODTRACK_* variables may also come from the shell.
	_ = godotenv.Load()

	os.Exit(cli.Run(os.Args[1:], cli.Options{}))
}
