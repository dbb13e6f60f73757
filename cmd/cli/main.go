package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/alextreichler/storefront/internal/cart"
	"github.com/alextreichler/storefront/internal/config"
	"github.com/alextreichler/storefront/internal/shop"
	"github.com/alextreichler/storefront/internal/store"
)

const usage = "expected 'create-admin' or 'seed' subcommand"

func main() {
	createAdminCmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
	username := createAdminCmd.String("username", "", "Username for the admin account")
	password := createAdminCmd.String("password", "", "Password for the admin account")

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-admin":
		createAdminCmd.Parse(os.Args[2:])
		if *username == "" || *password == "" {
			fmt.Println("username and password are required")
			createAdminCmd.PrintDefaults()
			os.Exit(1)
		}
		createAdmin(*username, *password)
	case "seed":
		seedCmd.Parse(os.Args[2:])
		seed()
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

// openStore opens and migrates the configured database, so the CLI can run
// before the server ever has.
func openStore() *store.Store {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := store.NewStore(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func createAdmin(username, password string) {
	db := openStore()
	defer db.Close()

	svc := shop.New(db, cart.NewStore())
	created, err := svc.Auth.ProvisionAdmin(context.Background(), username, password)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	if created {
		fmt.Printf("Admin '%s' created successfully.\n", username)
	} else {
		fmt.Printf("User '%s' promoted to admin.\n", username)
	}
}

func seed() {
	db := openStore()
	defer db.Close()

	if err := db.SeedCatalog(context.Background()); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	fmt.Println("Starter catalog seeded.")
}
