package main

import (
	"flag"
	"log"

	"task-system/pkg/config"
	"task-system/pkg/database/postgresql"
	"task-system/seeders"
)

func main() {
	runDicts := flag.Bool("dicts", false, "Засеять команды и категории")
	runAdmin := flag.Bool("admin", false, "Создать администратора по умолчанию")
	runAll := flag.Bool("all", false, "Запустить все сидеры")
	adminLogin := flag.String("admin-login", "admin", "Логин администратора")
	adminPassword := flag.String("admin-password", "admin12345", "Пароль администратора")

	flag.Parse()

	if !*runDicts && !*runAdmin && !*runAll {
		log.Println("Не выбран ни один сидер.")
		flag.PrintDefaults()
		return
	}

	cfg := config.New()
	pool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer pool.Close()

	if *runAll || *runDicts {
		seeders.SeedTeamsAndCategories(pool)
	}
	if *runAll || *runAdmin {
		seeders.SeedAdmin(pool, *adminLogin, *adminPassword)
	}

	log.Println("Сидирование завершено")
}
