package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/panyam/ohscript/cmd/ohs/commands"
)

func main() {
	envfile := os.Getenv("OHS_ENV_FILE")
	if envfile == "" {
		envfile = ".env"
	}
	// the env file is optional, OHS_* variables may come from the shell
	if err := godotenv.Load(envfile); err != nil && !os.IsNotExist(err) {
		log.Fatal("Error loading env file ", envfile, ": ", err)
	}
	commands.Execute()
}
