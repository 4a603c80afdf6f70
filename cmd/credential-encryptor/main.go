package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"

	"github.com/joho/godotenv"

	"github.com/relaymesh/push-relay/internal/credential"
	"github.com/relaymesh/push-relay/internal/encryption"
)

// credential-encryptor is the producer-side tool: it encrypts a
// service-account JSON file into the blob that clients hand to the relay.
// Encryption is deterministic, so the same file and key always produce the
// same blob.
func main() {
	var (
		filePath = flag.String("file", "", "Path to the service account JSON file")
		key      = flag.String("key", "", "Secret key (defaults to RELAY_SECRET_KEY)")
		showHelp = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *showHelp || *filePath == "" {
		fmt.Println("Credential Encryptor")
		fmt.Println("Usage: go run cmd/credential-encryptor/main.go -file service-account.json [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	secretKey := *key
	if secretKey == "" {
		secretKey = os.Getenv("RELAY_SECRET_KEY")
	}
	if secretKey == "" {
		log.Fatal("A secret key is required: pass -key or set RELAY_SECRET_KEY")
	}

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to read credential file: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		log.Fatalf("Credential file is not a JSON object: %v", err)
	}

	// Validate before encrypting so broken credentials are caught at
	// production time rather than at relay time.
	if result := credential.Validate(credential.Credential{Raw: raw, Fields: fields}); !result.IsValid {
		log.Println("Credential failed validation:")
		for _, e := range result.Errors {
			log.Printf("  - %s", e)
		}
		os.Exit(1)
	}

	blob, err := encryption.Encrypt(fields, secretKey)
	if err != nil {
		log.Fatalf("Failed to encrypt credential: %v", err)
	}

	// Round-trip self-check: the relay must be able to decrypt what we
	// just produced.
	plaintext, err := encryption.Decrypt(blob, secretKey)
	if err != nil {
		log.Fatalf("Self-check decrypt failed: %v", err)
	}
	var roundTripped map[string]interface{}
	if err := json.Unmarshal(plaintext, &roundTripped); err != nil {
		log.Fatalf("Self-check parse failed: %v", err)
	}
	if !reflect.DeepEqual(roundTripped, fields) {
		log.Fatal("Self-check failed: decrypted credential does not match the input")
	}

	fmt.Println("Encrypted credential blob (send as firebaseConfig):")
	fmt.Println("")
	fmt.Println(blob)
}
