package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is checked before migrating; its presence means the schema exists.
const sentinelTable = "public.users"

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id              BIGSERIAL   PRIMARY KEY,
  email           TEXT        NOT NULL UNIQUE,
  hashed_password TEXT        NOT NULL,
  full_name       TEXT        NOT NULL,
  is_active       BOOLEAN     NOT NULL DEFAULT TRUE,
  is_verified     BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_onboarding_responses",
		SQL: `CREATE TABLE IF NOT EXISTS onboarding_responses (
  id                            BIGSERIAL   PRIMARY KEY,
  user_id                       BIGINT      NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  visa_type                     TEXT        NOT NULL,
  destination_country           TEXT        NOT NULL,
  travel_purpose                TEXT        NOT NULL,
  previous_travels              TEXT,
  education_level               TEXT,
  employment_status             TEXT,
  preferred_interview_duration  INTEGER     NOT NULL DEFAULT 30,
  preferred_question_difficulty TEXT        NOT NULL DEFAULT 'medium',
  preferred_interview_style     TEXT        NOT NULL DEFAULT 'formal',
  special_requirements          TEXT,
  language_preference           TEXT        NOT NULL DEFAULT 'english',
  created_at                    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at                    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_interview_sessions",
		SQL: `CREATE TABLE IF NOT EXISTS interview_sessions (
  id                     BIGSERIAL   PRIMARY KEY,
  user_id                BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  session_id             TEXT        NOT NULL UNIQUE,
  status                 TEXT        NOT NULL DEFAULT 'pending',
  start_time             TIMESTAMPTZ,
  end_time               TIMESTAMPTZ,
  duration               INTEGER,
  questions_asked        INTEGER     NOT NULL DEFAULT 0,
  questions_total        INTEGER     NOT NULL DEFAULT 10,
  current_question_index INTEGER     NOT NULL DEFAULT 0,
  overall_score          DOUBLE PRECISION,
  confidence_score       DOUBLE PRECISION,
  communication_score    DOUBLE PRECISION,
  content_score          DOUBLE PRECISION,
  audio_file_path        TEXT,
  video_file_path        TEXT,
  evaluation_report_path TEXT,
  created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_questions",
		SQL: `CREATE TABLE IF NOT EXISTS questions (
  id                  BIGSERIAL   PRIMARY KEY,
  session_id          BIGINT      NOT NULL REFERENCES interview_sessions(id) ON DELETE CASCADE,
  question_index      INTEGER     NOT NULL,
  question_text       TEXT        NOT NULL,
  question_type       TEXT        NOT NULL DEFAULT 'general',
  difficulty_level    TEXT        NOT NULL DEFAULT 'medium',
  user_response       TEXT,
  response_audio_path TEXT,
  response_video_path TEXT,
  is_answered         BOOLEAN     NOT NULL DEFAULT FALSE,
  answer_duration     INTEGER,
  confidence_score    DOUBLE PRECISION,
  emotion_score       DOUBLE PRECISION,
  content_score       DOUBLE PRECISION,
  asked_at            TIMESTAMPTZ,
  answered_at         TIMESTAMPTZ,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (session_id, question_index)
);`,
	},
	{
		Name: "create_table_monthly_question_sets",
		SQL: `CREATE TABLE IF NOT EXISTS monthly_question_sets (
  id                      BIGSERIAL   PRIMARY KEY,
  user_id                 BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  month_year              TEXT        NOT NULL,
  status                  TEXT        NOT NULL DEFAULT 'generating',
  total_questions         INTEGER     NOT NULL DEFAULT 0,
  generated_questions     INTEGER     NOT NULL DEFAULT 0,
  questions_data          TEXT,
  audio_files_generated   BOOLEAN     NOT NULL DEFAULT FALSE,
  video_files_generated   BOOLEAN     NOT NULL DEFAULT FALSE,
  error_message           TEXT,
  generation_started_at   TIMESTAMPTZ,
  generation_completed_at TIMESTAMPTZ,
  last_accessed_at        TIMESTAMPTZ,
  created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (user_id, month_year)
);`,
	},
	{
		Name: "create_table_file_metadata",
		SQL: `CREATE TABLE IF NOT EXISTS file_metadata (
  id                BIGSERIAL   PRIMARY KEY,
  file_id           TEXT        NOT NULL UNIQUE,
  original_filename TEXT        NOT NULL,
  file_path         TEXT        NOT NULL UNIQUE,
  file_size         BIGINT      NOT NULL CHECK (file_size >= 0),
  file_type         TEXT        NOT NULL,
  mime_type         TEXT,
  user_id           BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  session_id        BIGINT      REFERENCES interview_sessions(id) ON DELETE SET NULL,
  processing_status TEXT        NOT NULL DEFAULT 'pending',
  processing_error  TEXT,
  storage_type      TEXT        NOT NULL DEFAULT 'local',
  storage_url       TEXT,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_gpu_processing_queue",
		SQL: `CREATE TABLE IF NOT EXISTS gpu_processing_queue (
  id                      BIGSERIAL   PRIMARY KEY,
  task_id                 TEXT        NOT NULL UNIQUE,
  task_type               TEXT        NOT NULL,
  user_id                 BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  session_id              TEXT,
  question_id             BIGINT      REFERENCES questions(id) ON DELETE SET NULL,
  input_file_path         TEXT,
  output_file_path        TEXT,
  parameters              JSONB,
  status                  TEXT        NOT NULL DEFAULT 'queued',
  priority                INTEGER     NOT NULL DEFAULT 1 CHECK (priority BETWEEN 1 AND 3),
  gpu_server_id           TEXT,
  processing_started_at   TIMESTAMPTZ,
  processing_completed_at TIMESTAMPTZ,
  processing_error        TEXT,
  gpu_cost                DOUBLE PRECISION NOT NULL DEFAULT 0,
  processing_duration     INTEGER,
  created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_interview_sessions_user",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_interview_sessions_user ON interview_sessions (user_id, created_at DESC);`,
	},
	{
		Name: "create_index_file_metadata_user",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_file_metadata_user ON file_metadata (user_id, created_at DESC);`,
	},
	{
		Name: "create_index_gpu_queue_user_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_gpu_queue_user_status ON gpu_processing_queue (user_id, status);`,
	},
}

// EnsureMigrated checks for the sentinel table and creates the schema when it is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, log zerolog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With().Str("component", "database").Str("db_host", dbHost).Logger()

	log.Info().Str("event", "db_migration_check").Str("status", "starting").Msg("")

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinelTable).Scan(&exists); err != nil {
		log.Error().
			Str("event", "db_migration_failed").
			Str("status", "error").
			Str("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info().
			Str("event", "db_migration_skip").
			Str("status", "success").
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("schema already exists, skipping migration")
		return nil
	}

	log.Info().Str("event", "db_migration_start").Str("status", "in_progress").Msg("")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error().
				Str("event", "db_migration_failed").
				Str("status", "error").
				Str("migration_step", step.Name).
				Str("error_message", err.Error()).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
				Msg("")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info().
			Str("event", "db_migration_step").
			Str("status", "success").
			Str("migration_step", step.Name).
			Int64("step_duration_ms", time.Since(stepStart).Milliseconds()).
			Msg("")
	}

	log.Info().
		Str("event", "db_migration_success").
		Str("status", "success").
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("")

	return nil
}
