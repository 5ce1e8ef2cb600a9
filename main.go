package main

import (
	"github.com/joho/godotenv"
	"github.com/quantbench/sweep/cmd"
)

func main() {
	// Credentials for uploads/webhooks may live in a local .env file;
	// a missing file is not an error.
	_ = godotenv.Load()

	cmd.Execute()
}
