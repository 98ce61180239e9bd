package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paylane.backend/internal/config"
	"paylane.backend/internal/domain/entities"
	"paylane.backend/internal/infrastructure/repositories"
	"paylane.backend/pkg/crypto"
	"paylane.backend/pkg/utils"
)

// Mints a merchant with fresh API credentials. The secret is printed once
// and stored only as a bcrypt hash.
func main() {
	name := flag.String("name", "", "merchant name")
	email := flag.String("email", "", "merchant email")
	flag.Parse()

	if *name == "" || *email == "" {
		log.Fatal("usage: apikey-gen -name <merchant name> -email <merchant email>")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.Database.URL(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	apiKey := utils.GenerateID(utils.APIKeyPrefix)
	secret, err := crypto.GenerateRandomToken(24)
	if err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}
	secretHash, err := crypto.HashSecret(secret)
	if err != nil {
		log.Fatalf("failed to hash secret: %v", err)
	}

	merchant := &entities.Merchant{
		Name:          *name,
		Email:         *email,
		APIKey:        apiKey,
		APISecretHash: secretHash,
	}

	merchantRepo := repositories.NewMerchantRepository(db)
	if err := merchantRepo.Create(context.Background(), merchant); err != nil {
		log.Fatalf("failed to create merchant: %v", err)
	}

	fmt.Println("Merchant created")
	fmt.Printf("  id:         %s\n", merchant.ID)
	fmt.Printf("  api key:    %s\n", apiKey)
	fmt.Printf("  api secret: %s (store it now, it is not recoverable)\n", secret)
}
