package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// SeedTeamsAndCategories наполняет стартовые команды и дерево категорий.
// Вставки идемпотентны: повторный запуск ничего не дублирует.
func SeedTeamsAndCategories(pool *pgxpool.Pool) {
	ctx := context.Background()

	teams := []string{"Инфраструктура", "Разработка", "Поддержка"}
	for _, name := range teams {
		_, err := pool.Exec(ctx, `
			INSERT INTO teams (name)
			SELECT $1 WHERE NOT EXISTS (SELECT 1 FROM teams WHERE name = $1)`, name)
		if err != nil {
			log.Fatalf("ошибка сидирования команды %q: %v", name, err)
		}
	}

	categories := []struct {
		name   string
		parent string
		team   string
	}{
		{"Серверы", "", "Инфраструктура"},
		{"Сети", "", "Инфраструктура"},
		{"Резервное копирование", "Серверы", "Инфраструктура"},
		{"Баги", "", "Разработка"},
		{"Доработки", "", "Разработка"},
		{"Консультации", "", "Поддержка"},
	}
	for _, c := range categories {
		_, err := pool.Exec(ctx, `
			INSERT INTO categories (name, parent_id, team_id)
			SELECT $1,
			       (SELECT id FROM categories WHERE name = $2),
			       (SELECT id FROM teams WHERE name = $3)
			WHERE NOT EXISTS (SELECT 1 FROM categories WHERE name = $1)`,
			c.name, c.parent, c.team)
		if err != nil {
			log.Fatalf("ошибка сидирования категории %q: %v", c.name, err)
		}
	}

	log.Println("Команды и категории засеяны")
}

// SeedAdmin создаёт администратора по умолчанию, если его ещё нет.
func SeedAdmin(pool *pgxpool.Pool, login, password string) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("ошибка хеширования пароля администратора: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO users (fio, email, login, password, role, position_level)
		SELECT 'Администратор системы', $1 || '@local', $1, $2, 'ADMIN', 5
		WHERE NOT EXISTS (SELECT 1 FROM users WHERE login = $1)`,
		login, string(hash))
	if err != nil {
		log.Fatalf("ошибка сидирования администратора: %v", err)
	}

	log.Println("Администратор засеян:", login)
}
