package store

// #region imports
import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/feature"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/ledger"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS q_values (
	state   TEXT NOT NULL,
	action  TEXT NOT NULL,
	value   REAL NOT NULL,
	visits  INTEGER NOT NULL DEFAULT 0,
	ord     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (state, action)
);

CREATE TABLE IF NOT EXISTS intent_history (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	intent  TEXT NOT NULL,
	success INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_prefs (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	intent  TEXT NOT NULL,
	rating  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS engine_params (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	learning_rate REAL NOT NULL,
	epsilon       REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS interactions (
	interaction_id TEXT PRIMARY KEY,
	command        TEXT NOT NULL,
	intent         TEXT NOT NULL,
	result         TEXT,
	user_id        TEXT NOT NULL,
	state          TEXT NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	interaction_id TEXT NOT NULL,
	command        TEXT NOT NULL,
	intent         TEXT NOT NULL,
	rating         INTEGER NOT NULL,
	user_id        TEXT NOT NULL,
	state          TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct

// Store persists the learned model and the append-only interaction/feedback
// logs in SQLite. The model snapshot tables (q_values, intent_history,
// user_prefs, engine_params) are replaced wholesale by SaveModel and read
// wholesale by LoadModel; the log tables are written through at event time
// and are never a load source for learned state.
type Store struct {
	db *sql.DB
}

// #endregion

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion

// #region close

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for read-only tooling (e.g. inspect).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion

// #region save-model

// SaveModel replaces the model snapshot tables with snap inside one
// transaction, so a reader never observes a torn snapshot.
func (s *Store) SaveModel(snap ModelSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"q_values", "intent_history", "user_prefs"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, row := range snap.Entries {
		_, err := tx.Exec(
			`INSERT INTO q_values (state, action, value, visits, ord) VALUES (?, ?, ?, ?, ?)`,
			string(row.State), string(row.Action), row.Value, row.Visits, row.Ord,
		)
		if err != nil {
			return fmt.Errorf("insert q value: %w", err)
		}
	}

	for _, intent := range policy.Actions() {
		for _, success := range snap.History[intent] {
			v := 0
			if success {
				v = 1
			}
			_, err := tx.Exec(
				`INSERT INTO intent_history (intent, success) VALUES (?, ?)`,
				string(intent), v,
			)
			if err != nil {
				return fmt.Errorf("insert history: %w", err)
			}
		}
	}

	for userID, prefs := range snap.Preferences {
		for _, intent := range policy.Actions() {
			for _, rating := range prefs[intent] {
				_, err := tx.Exec(
					`INSERT INTO user_prefs (user_id, intent, rating) VALUES (?, ?, ?)`,
					userID, string(intent), rating,
				)
				if err != nil {
					return fmt.Errorf("insert preference: %w", err)
				}
			}
		}
	}

	_, err = tx.Exec(
		`INSERT INTO engine_params (id, learning_rate, epsilon) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET learning_rate = excluded.learning_rate, epsilon = excluded.epsilon`,
		snap.LearningRate, snap.Epsilon,
	)
	if err != nil {
		return fmt.Errorf("upsert params: %w", err)
	}

	return tx.Commit()
}

// #endregion save-model

// #region load-model

// LoadModel reads the full model snapshot. ok is false when no snapshot has
// ever been saved (fresh database); errors indicate a corrupt or unreadable
// one and leave the caller free to continue with empty state.
func (s *Store) LoadModel() (ModelSnapshot, bool, error) {
	snap := ModelSnapshot{
		History:     make(map[policy.Action][]bool),
		Preferences: make(map[string]map[policy.Action][]int),
	}

	err := s.db.QueryRow(`SELECT learning_rate, epsilon FROM engine_params WHERE id = 1`).
		Scan(&snap.LearningRate, &snap.Epsilon)
	if err == sql.ErrNoRows {
		return ModelSnapshot{}, false, nil
	}
	if err != nil {
		return ModelSnapshot{}, false, fmt.Errorf("load params: %w", err)
	}

	rows, err := s.db.Query(`SELECT state, action, value, visits, ord FROM q_values ORDER BY state, ord`)
	if err != nil {
		return ModelSnapshot{}, false, fmt.Errorf("load q values: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state, action string
		var entry policy.Entry
		if err := rows.Scan(&state, &action, &entry.Value, &entry.Visits, &entry.Ord); err != nil {
			return ModelSnapshot{}, false, fmt.Errorf("scan q value: %w", err)
		}
		entry.State = feature.StateKey(state)
		entry.Action = policy.Action(action)
		snap.Entries = append(snap.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return ModelSnapshot{}, false, fmt.Errorf("iterate q values: %w", err)
	}

	if err := s.loadHistory(&snap); err != nil {
		return ModelSnapshot{}, false, err
	}
	if err := s.loadPreferences(&snap); err != nil {
		return ModelSnapshot{}, false, err
	}
	return snap, true, nil
}

func (s *Store) loadHistory(snap *ModelSnapshot) error {
	rows, err := s.db.Query(`SELECT intent, success FROM intent_history ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var intent string
		var success int
		if err := rows.Scan(&intent, &success); err != nil {
			return fmt.Errorf("scan history: %w", err)
		}
		a := policy.Action(intent)
		snap.History[a] = append(snap.History[a], success != 0)
	}
	return rows.Err()
}

func (s *Store) loadPreferences(snap *ModelSnapshot) error {
	rows, err := s.db.Query(`SELECT user_id, intent, rating FROM user_prefs ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID, intent string
		var rating int
		if err := rows.Scan(&userID, &intent, &rating); err != nil {
			return fmt.Errorf("scan preference: %w", err)
		}
		if snap.Preferences[userID] == nil {
			snap.Preferences[userID] = make(map[policy.Action][]int)
		}
		a := policy.Action(intent)
		snap.Preferences[userID][a] = append(snap.Preferences[userID][a], rating)
	}
	return rows.Err()
}

// #endregion load-model

// #region interaction-log

// AppendInteraction writes the durable copy of an issued decision.
func (s *Store) AppendInteraction(rec *ledger.Interaction) error {
	_, err := s.db.Exec(
		`INSERT INTO interactions (interaction_id, command, intent, result, user_id, state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Command, string(rec.Intent), nullIfEmpty(rec.Result),
		rec.UserID, string(rec.State), rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

// #endregion interaction-log

// #region feedback-log

// AppendFeedback writes one audit row per applied feedback.
func (s *Store) AppendFeedback(entry FeedbackEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO feedback_log (interaction_id, command, intent, rating, user_id, state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.InteractionID, entry.Command, string(entry.Intent), entry.Rating,
		entry.UserID, string(entry.State), entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	return nil
}

// ListFeedback returns the most recent feedback audit rows, newest first.
func (s *Store) ListFeedback(limit int) ([]FeedbackEntry, error) {
	rows, err := s.db.Query(
		`SELECT interaction_id, command, intent, rating, user_id, state, created_at
		 FROM feedback_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var entries []FeedbackEntry
	for rows.Next() {
		var e FeedbackEntry
		var intent, state, createdAt string
		if err := rows.Scan(&e.InteractionID, &e.Command, &intent, &e.Rating, &e.UserID, &state, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		e.Intent = policy.Action(intent)
		e.State = feature.StateKey(state)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion feedback-log

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
