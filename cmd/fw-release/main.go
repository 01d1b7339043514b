package main

import (
	"github.com/joho/godotenv"

	"github.com/oshokin/fw-release/cmd/fw-release/cmd"
)

func main() {
	// Best-effort: a missing .env file is fine, variables stay as they are.
	_ = godotenv.Load()

	cmd.Execute()
}
