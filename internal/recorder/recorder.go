// Package recorder — запись опубликованных кадров в SQLite (история — забота потребителя).
// Одна строка на канал на кадр; кадры группируются по сессии с uuid.
package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/shiwa/gaze-error-injector/internal/engine"
	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	tracker       TEXT NOT NULL,
	settings_json TEXT NOT NULL,
	started_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS frames (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	seq            INTEGER NOT NULL,
	mode           TEXT NOT NULL,
	channel        TEXT NOT NULL,
	ts             REAL NOT NULL,
	origin_x       REAL, origin_y REAL, origin_z REAL,
	raw_x          REAL, raw_y REAL, raw_z REAL,
	raw_valid      INTEGER NOT NULL,
	err_x          REAL, err_y REAL, err_z REAL,
	err_valid      INTEGER NOT NULL,
	accuracy_dir   REAL,
	accuracy_mag   REAL,
	precision_mode TEXT,
	precision_mag  REAL,
	loss_p         REAL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE INDEX IF NOT EXISTS frames_session_seq ON frames(session_id, seq);
`

// Размер очереди и пакета записи
const (
	queueSize = 1024
	batchSize = 64
)

// Row — одна записанная строка (канал кадра)
type Row struct {
	SessionID string
	Seq       uint64
	Mode      string
	Channel   string
	State     gaze.ChannelErrorState
}

// Recorder — наблюдатель движка. OnFrame не блокирует тик: кадры идут в очередь,
// фоновая горутина пишет их пачками в транзакции. При переполнении очереди кадр отбрасывается.
type Recorder struct {
	db      *sql.DB
	session string
	queue   chan gaze.GazeErrorFrame
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
	written atomic.Uint64
}

// Open открывает базу, создаёт схему и новую сессию.
func Open(path, tracker string, settings engine.Settings) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	id := uuid.New().String()
	if _, err := db.Exec(
		`INSERT INTO sessions (session_id, tracker, settings_json, started_at) VALUES (?, ?, ?, ?)`,
		id, tracker, string(settingsJSON), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("insert session: %w", err)
	}
	r := &Recorder{
		db:      db,
		session: id,
		queue:   make(chan gaze.GazeErrorFrame, queueSize),
	}
	r.wg.Add(1)
	go r.writeLoop()
	return r, nil
}

// SessionID возвращает id текущей сессии
func (r *Recorder) SessionID() string {
	return r.session
}

// OnFrame ставит кадр в очередь записи
func (r *Recorder) OnFrame(f gaze.GazeErrorFrame) {
	select {
	case r.queue <- f:
	default:
		r.dropped.Add(1)
	}
}

// Dropped возвращает число кадров, отброшенных из-за переполнения очереди
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Written возвращает число записанных кадров
func (r *Recorder) Written() uint64 {
	return r.written.Load()
}

func (r *Recorder) writeLoop() {
	defer r.wg.Done()
	batch := make([]gaze.GazeErrorFrame, 0, batchSize)
	for f := range r.queue {
		batch = append(batch, f)
	drain:
		for len(batch) < batchSize {
			select {
			case next, ok := <-r.queue:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		if err := r.writeBatch(batch); err != nil {
			logger.Error("recorder: %v", err)
		} else {
			r.written.Add(uint64(len(batch)))
		}
		batch = batch[:0]
	}
}

func (r *Recorder) writeBatch(frames []gaze.GazeErrorFrame) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO frames (
		session_id, seq, mode, channel, ts,
		origin_x, origin_y, origin_z, raw_x, raw_y, raw_z, raw_valid,
		err_x, err_y, err_z, err_valid,
		accuracy_dir, accuracy_mag, precision_mode, precision_mag, loss_p
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range frames {
		for _, eye := range gaze.Eyes {
			c := f.Channel(eye)
			s := c.Settings
			if _, err := stmt.Exec(
				r.session, int64(f.Seq), f.Mode.String(), eye.String(), c.Timestamp,
				c.Origin.X, c.Origin.Y, c.Origin.Z,
				c.RawDirection.X, c.RawDirection.Y, c.RawDirection.Z, c.RawValid,
				c.ErrorDirection.X, c.ErrorDirection.Y, c.ErrorDirection.Z, c.ErrorValid,
				s.AccuracyDirectionDeg, s.AccuracyMagnitudeDeg, s.PrecisionMode.String(), s.PrecisionMagnitudeDeg, s.DataLossProbability,
			); err != nil {
				return fmt.Errorf("insert frame %d %s: %w", f.Seq, eye, err)
			}
		}
	}
	return tx.Commit()
}

// Frames возвращает строки сессии в порядке seq и канала (не более limit; limit <= 0 — все).
func (r *Recorder) Frames(sessionID string, limit int) ([]Row, error) {
	q := `SELECT session_id, seq, mode, channel, ts,
		origin_x, origin_y, origin_z, raw_x, raw_y, raw_z, raw_valid,
		err_x, err_y, err_z, err_valid,
		accuracy_dir, accuracy_mag, precision_mode, precision_mag, loss_p
		FROM frames WHERE session_id = ? ORDER BY id`
	args := []any{sessionID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		var seq int64
		var precMode string
		c := &row.State
		if err := rows.Scan(
			&row.SessionID, &seq, &row.Mode, &row.Channel, &c.Timestamp,
			&c.Origin.X, &c.Origin.Y, &c.Origin.Z,
			&c.RawDirection.X, &c.RawDirection.Y, &c.RawDirection.Z, &c.RawValid,
			&c.ErrorDirection.X, &c.ErrorDirection.Y, &c.ErrorDirection.Z, &c.ErrorValid,
			&c.Settings.AccuracyDirectionDeg, &c.Settings.AccuracyMagnitudeDeg, &precMode,
			&c.Settings.PrecisionMagnitudeDeg, &c.Settings.DataLossProbability,
		); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		row.Seq = uint64(seq)
		if pm, err := gaze.ParsePrecisionMode(precMode); err == nil {
			c.Settings.PrecisionMode = pm
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Session — запись о сессии
type Session struct {
	ID        string    `json:"id"`
	Tracker   string    `json:"tracker"`
	Settings  string    `json:"settings"`
	StartedAt time.Time `json:"started_at"`
	Frames    int       `json:"frames"`
}

// Sessions возвращает все сессии базы, новые первыми.
func (r *Recorder) Sessions() ([]Session, error) {
	rows, err := r.db.Query(`SELECT s.session_id, s.tracker, s.settings_json, s.started_at,
		(SELECT COUNT(DISTINCT seq) FROM frames f WHERE f.session_id = s.session_id)
		FROM sessions s ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var started string
		if err := rows.Scan(&s.ID, &s.Tracker, &s.Settings, &started, &s.Frames); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close дописывает очередь и закрывает базу. OnFrame после Close вызывать нельзя.
func (r *Recorder) Close() error {
	var err error
	r.once.Do(func() {
		close(r.queue)
		r.wg.Wait()
		err = r.db.Close()
	})
	return err
}
