package storage

import (
	"database/sql"
	"fmt"

	"github.com/secretforest/secretforest/internal/core"
	"github.com/secretforest/secretforest/internal/logging"
)

// Seed fills an empty database with the starting cast of the forest:
// five characters, their relationships, starter memories and goals for
// Мо, and the first event. A database that already has agents is left
// untouched.
func (db *DB) Seed() error {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM agents").Scan(&count); err != nil {
		return fmt.Errorf("count agents: %w", err)
	}
	if count > 0 {
		return nil
	}

	err := db.Transaction(func(tx *sql.Tx) error {
		agents := []struct {
			name, ptype, title, description, background, emoji string
			mood                                               core.Mood
		}{
			{"Мо", "ISFP", "мечтатель", "Панда Мо любит тишину и ручьи.", "Живёт у ручья, любит ягоды", "🐼", core.MoodHappy},
			{"Роки", "ENTP", "изобретатель", "Лис Роки придумывает рискованные идеи.", "Всегда ищет приключения", "🦊", core.MoodSad},
			{"Фыр", "ISTJ", "хранитель", "Ежик Фыр защищает свои границы.", "Живёт в норе под дубом", "🦔", core.MoodAngry},
			{"Лея", "INTJ", "стратег", "Змея Лея анализирует каждую ситуацию.", "Обитает в пещере", "🐍", core.MoodNeutral},
			{"Феликс", "INFJ", "мистик", "Кот Феликс чувствителен к изменениям.", "Прячется в кустах", "🐱", core.MoodScared},
		}

		ids := make(map[string]int64, len(agents))
		for _, a := range agents {
			res, err := tx.Exec(`
				INSERT INTO agents (name, mood, personality_type, personality_title,
				                    description, background, avatar_emoji, mood_value)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, a.name, a.mood, a.ptype, a.title, a.description, a.background, a.emoji, a.mood.Value())
			if err != nil {
				return fmt.Errorf("seed agent %s: %w", a.name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids[a.name] = id
		}

		rels := []struct {
			from, to string
			kind     core.RelationKind
			strength int
		}{
			{"Мо", "Роки", core.RelationFriendship, 72},
			{"Роки", "Мо", core.RelationFriendship, 68},
			{"Роки", "Фыр", core.RelationTension, 74},
			{"Мо", "Фыр", core.RelationCare, 63},
			{"Феликс", "Лея", core.RelationRespect, 56},
			{"Лея", "Роки", core.RelationNeutral, 48},
		}
		for _, r := range rels {
			_, err := tx.Exec(`
				INSERT INTO relationships (agent_from_id, agent_to_id, relation_type, strength)
				VALUES (?, ?, ?, ?)
			`, ids[r.from], ids[r.to], r.kind, r.strength)
			if err != nil {
				return fmt.Errorf("seed relationship %s->%s: %w", r.from, r.to, err)
			}
		}

		memories := []struct {
			content string
			isKey   bool
		}{
			{"Обнаружил скрытую поляну со старыми цветущими сакурами, их лепестки танцевали в лунном свете.", true},
			{"Вместе с Феликсом нашли светящийся камень под старым дубом. Договорились никому не рассказывать.", true},
			{"Нашёл потерявшегося малыша-оленёнка и согревал его всю ночь, пока не пришла его мама.", true},
		}
		for _, m := range memories {
			_, err := tx.Exec(
				"INSERT INTO memories (agent_id, content, is_key) VALUES (?, ?, ?)",
				ids["Мо"], m.content, m.isKey,
			)
			if err != nil {
				return fmt.Errorf("seed memory: %w", err)
			}
		}

		goals := []string{
			"Вернуться к ручью, чтобы проверить, поёт ли вода днём.",
			"Дождаться заката на скале Эха и послушать, как ветер свистит.",
			"Найти место, где видно созвездие Большой Медведицы, и просто смотреть вверх.",
		}
		for _, g := range goals {
			_, err := tx.Exec(
				"INSERT INTO goals (agent_id, goal, status) VALUES (?, ?, 'active')",
				ids["Мо"], g,
			)
			if err != nil {
				return fmt.Errorf("seed goal: %w", err)
			}
		}

		_, err := tx.Exec(`
			INSERT INTO events (content, actor_id, mood_after, relation_type, relation_delta)
			VALUES (?, ?, ?, ?, 0)
		`, "Панда Мо медленно прогуливается у ручья.", ids["Мо"], core.MoodHappy, core.RelationNeutral)
		if err != nil {
			return fmt.Errorf("seed event: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	logging.Info("Database seeded with the starting cast")
	return nil
}
