// Утилита сверки: пересчитывает кеш-поля счета участников из журнала
// ответов и сообщает о записях журнала, оставшихся без пользователя или
// кампании. Журнал ответов - единственный источник истины для очков;
// кеш в campaign_participants может отставать после сбоев.
//
// Запуск: go run ./cmd/reconcile [-apply]
// Без флага -apply утилита только печатает расхождения.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	apply := flag.Bool("apply", false, "записать пересчитанные счета в campaign_participants")
	flag.Parse()

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		connStr = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			envOr("DATABASE_HOST", "localhost"),
			envOr("DATABASE_PORT", "5432"),
			envOr("DATABASE_USER", "postgres"),
			os.Getenv("DATABASE_PASSWORD"),
			envOr("DATABASE_NAME", "learnquest_db"),
		)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	drifted, err := reconcileScores(db, *apply)
	if err != nil {
		log.Fatalf("Сверка счетов не удалась: %v", err)
	}

	orphanUsers, orphanCampaigns, err := reportOrphans(db)
	if err != nil {
		log.Fatalf("Поиск осиротевших записей не удался: %v", err)
	}

	fmt.Printf("Расхождений счета: %d\n", drifted)
	fmt.Printf("Записей журнала без пользователя: %d\n", orphanUsers)
	fmt.Printf("Записей журнала без кампании: %d\n", orphanCampaigns)
	if !*apply && drifted > 0 {
		fmt.Println("Запустите с -apply, чтобы записать пересчитанные счета.")
	}
}

// reconcileScores сравнивает кеш счета каждого участника со сверткой
// журнала ответов и при -apply исправляет кеш.
func reconcileScores(db *sql.DB, apply bool) (int, error) {
	rows, err := db.Query(`
		SELECT p.user_id, p.campaign_id, p.score,
		       COALESCE(SUM(r.points_earned), 0) AS ledger_score
		FROM campaign_participants p
		LEFT JOIN user_responses r
		       ON r.user_id = p.user_id AND r.campaign_id = p.campaign_id
		GROUP BY p.user_id, p.campaign_id, p.score
		HAVING p.score <> COALESCE(SUM(r.points_earned), 0)`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type drift struct {
		userID, campaignID int64
		cached, ledger     int64
	}
	var drifts []drift
	for rows.Next() {
		var d drift
		if err := rows.Scan(&d.userID, &d.campaignID, &d.cached, &d.ledger); err != nil {
			return 0, err
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, d := range drifts {
		fmt.Printf("user=%d campaign=%d: кеш=%d журнал=%d\n", d.userID, d.campaignID, d.cached, d.ledger)
		if apply {
			if _, err := db.Exec(
				`UPDATE campaign_participants SET score = $1 WHERE user_id = $2 AND campaign_id = $3`,
				d.ledger, d.userID, d.campaignID,
			); err != nil {
				return len(drifts), err
			}
		}
	}
	return len(drifts), nil
}

// reportOrphans считает записи журнала, ссылающиеся на удаленных
// пользователей или кампании. Такие записи легальны (журнал переживает
// удаление кампании), но их объем стоит отслеживать.
func reportOrphans(db *sql.DB) (int64, int64, error) {
	var orphanUsers int64
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM user_responses r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE u.id IS NULL`).Scan(&orphanUsers); err != nil {
		return 0, 0, err
	}

	var orphanCampaigns int64
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM user_responses r
		LEFT JOIN campaigns c ON c.id = r.campaign_id
		WHERE c.id IS NULL`).Scan(&orphanCampaigns); err != nil {
		return 0, 0, err
	}

	return orphanUsers, orphanCampaigns, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
