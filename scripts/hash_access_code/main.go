package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Prints a bcrypt hash suitable for ACCESS_CODE_HASH.
func main() {
	var (
		code string
		cost int
	)
	flag.StringVar(&code, "code", "", "Institution access code; read from stdin when empty")
	flag.IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if code == "" {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("failed to read access code: %v", err)
		}
		code = strings.TrimSpace(line)
	}
	if code == "" {
		log.Fatal("access code must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		log.Fatalf("failed to hash access code: %v", err)
	}
	fmt.Println(string(hash))
}
