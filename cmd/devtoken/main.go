// Package main выпускает JWT для локальной разработки тем же ключом,
// которым сервис проверяет токены.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/magabrotheeeer/car-subscription/internal/config"
	"github.com/magabrotheeeer/car-subscription/internal/lib/jwt"
)

func main() {
	uid := flag.String("uid", "", "user uid")
	email := flag.String("email", "", "user email")
	flag.Parse()

	cfg := config.MustLoad()
	if cfg.Env == "prod" {
		log.Fatal("devtoken is not allowed in prod")
	}

	token, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL).GenerateToken(*uid, *email)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	fmt.Println(token)
}
