// cmd/adduser/main.go
// Registers a jockey account, or resets the password of an existing one.
//
// Usage:
//
//	go run ./cmd/adduser -name "Yutaka Take" -username take -password secret1 -license JRA-0001
//	go run ./cmd/adduser -reset -username take -password newsecret
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/jraweb/jraweb/config"
	bundb "github.com/jraweb/jraweb/db"
	"github.com/jraweb/jraweb/repository"
	"github.com/jraweb/jraweb/validate"
)

func main() {
	name := flag.String("name", "", "full name")
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	license := flag.String("license", "", "JRA license number")
	reset := flag.Bool("reset", false, "reset the password of an existing account")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}

	ctx := context.Background()
	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatal("create tables:", err)
	}
	jockeys := repository.New(db, repository.Options{BcryptCost: cfg.BcryptCost}).Jockeys

	if *reset {
		if err := jockeys.SetPassword(ctx, *username, *password); err != nil {
			log.Fatalf("reset password for %q: %v", *username, err)
		}
		fmt.Printf("password for %q reset\n", *username)
		return
	}

	reg := validate.Registration{FullName: *name, Username: *username, Password: *password, LicenseNumber: *license}
	if err := reg.Check(); err != nil {
		log.Fatal(err)
	}
	j, err := jockeys.Create(ctx, reg)
	if errors.Is(err, repository.ErrUsernameTaken) {
		log.Fatalf("username %q already exists, use -reset to change its password", *username)
	}
	if err != nil {
		log.Fatal("create jockey:", err)
	}

	fmt.Printf("jockey %q saved with id %d\n", j.Username, j.ID)
}
