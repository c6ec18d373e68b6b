package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/preferredrecruit/intake-gateway/internal/config"
	"github.com/preferredrecruit/intake-gateway/internal/db"
	"github.com/preferredrecruit/intake-gateway/internal/model"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo athletes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo athletes...")

		if err := seedAthletes(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// seedAthletes inserts deterministic demo athletes (idempotent: keyed by the
// UNIQUE tally_submission_id).
func seedAthletes(dbx *sqlx.DB) error {
	athletes := []model.Athlete{
		{
			TallySubmissionID: "seed-kickoff-001",
			FirstName:         "Jordan",
			LastName:          "Avery",
			Email:             "jordan.avery@example.com",
			Phone:             "+15550100001",
			GraduationYear:    2027,
			Sport:             "Soccer",
			NeedsPoster:       true,
		},
		{
			TallySubmissionID: "seed-kickoff-002",
			FirstName:         "Riley",
			LastName:          "Chen",
			Email:             "riley.chen@example.com",
			Phone:             "+15550100002",
			GraduationYear:    2026,
			Sport:             "Volleyball",
			NeedsPoster:       false,
		},
		{
			TallySubmissionID: "seed-kickoff-003",
			FirstName:         "Sam",
			LastName:          "Okafor",
			Email:             "sam.okafor@example.com",
			Phone:             "+15550100003",
			GraduationYear:    2028,
			Sport:             "Track & Field",
			NeedsPoster:       true,
		},
	}

	const q = `
INSERT INTO athletes
    (id, tally_submission_id, first_name, last_name, email, phone,
     graduation_year, sport, needs_poster, poster_url, poster_received,
     onboarding_form_data, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?, ?, ?, ?, '', 0, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    first_name      = VALUES(first_name),
    last_name       = VALUES(last_name),
    email           = VALUES(email),
    graduation_year = VALUES(graduation_year),
    updated_at      = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, a := range athletes {
		formData, _ := json.Marshal(map[string]any{
			"first_name":      a.FirstName,
			"last_name":       a.LastName,
			"needs_poster":    a.NeedsPoster,
			"unmapped_fields": map[string]any{},
		})
		if _, err := tx.Exec(q,
			uuid.NewString(), a.TallySubmissionID, a.FirstName, a.LastName, a.Email, a.Phone,
			a.GraduationYear, a.Sport, a.NeedsPoster, formData, now, now,
		); err != nil {
			return fmt.Errorf("insert athlete %q: %w", a.TallySubmissionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit athletes: %w", err)
	}
	return nil
}
