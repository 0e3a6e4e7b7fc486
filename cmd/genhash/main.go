// CREDENTIAL HASH TOOL - cmd/genhash/main.go
//
// Generates a bcrypt hash for a plaintext credential, or verifies a
// plaintext against an existing hash. Handy for seeding and debugging.
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: genhash PLAINTEXT [HASH]")
	}

	plaintext := os.Args[1]

	if len(os.Args) >= 3 {
		hash := os.Args[2]
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
			fmt.Printf("Verification FAILED: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Verification SUCCESS")
		return
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash: %v", err)
	}
	fmt.Println(string(digest))
}
