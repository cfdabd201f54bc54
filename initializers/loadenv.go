package initializers

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given .env files (default ".env") without
// overriding ones already set in the environment.
func LoadEnv(files ...string) error {
	log.Println("Loading env file")
	if err := godotenv.Load(files...); err != nil {
		log.Println("env not loading")
		return fmt.Errorf("env not loading: %w", err)
	}
	log.Println("Env loaded successfully")
	return nil
}
