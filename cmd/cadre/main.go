package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; a missing one is not an error.
	_ = godotenv.Load()

	Execute()
}
