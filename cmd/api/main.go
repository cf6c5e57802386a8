package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/LaasyaMarthati/To-Do-List/internal/database"
	"github.com/LaasyaMarthati/To-Do-List/internal/routes"
)

func main() {
	// .env があれば読み込む（本番では環境変数を直接設定）
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db := database.InitDB()
	defer db.Close()
	database.EnsureSchema(db)

	r := routes.SetupRouter(db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on port %s...", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
