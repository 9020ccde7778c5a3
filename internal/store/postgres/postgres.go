package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users       { return &users{db: s.db} }
func (s *pgStore) CheckIns() store.CheckIns { return &checkIns{db: s.db} }
func (s *pgStore) Journals() store.Journals { return &journals{db: s.db} }
func (s *pgStore) Insights() store.Insights { return &insights{db: s.db} }
func (s *pgStore) States() store.States     { return &states{db: s.db} }
func (s *pgStore) Reports() store.Reports   { return &reports{db: s.db} }
func (s *pgStore) Shares() store.Shares     { return &shares{db: s.db} }
func (s *pgStore) Consents() store.Consents { return &consents{db: s.db} }

func (s *pgStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// mapErr converts driver errors into the sentinel kinds services rely on.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return model.ErrConflict
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	return err
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	var created time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (user_id, email, display_name, time_zone, status)
        VALUES ($1,$2,$3,$4,'ACTIVE')
        RETURNING creation_time
    `, m.UserID, m.Email, m.DisplayName, m.TimeZone)
	if err := row.Scan(&created); err != nil {
		return nil, mapErr(err)
	}
	out := *m
	out.Status = "ACTIVE"
	out.CreationTime = created
	return &out, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, time_zone, status, creation_time
        FROM users WHERE user_id=$1
    `, userID)
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.TimeZone, &out.Status, &out.CreationTime); err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func (u *users) List(ctx context.Context) ([]*model.User, error) {
	rows, err := u.db.QueryContext(ctx, `
        SELECT user_id, email, display_name, time_zone, status, creation_time
        FROM users ORDER BY creation_time ASC, user_id ASC
    `)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		var m model.User
		if err := rows.Scan(&m.UserID, &m.Email, &m.DisplayName, &m.TimeZone, &m.Status, &m.CreationTime); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (u *users) Delete(ctx context.Context, userID string) error {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`DELETE FROM share_accesses WHERE share_id IN (SELECT share_id FROM shares WHERE user_id=$1)`,
		`DELETE FROM shares WHERE user_id=$1`,
		`DELETE FROM reports WHERE user_id=$1`,
		`DELETE FROM insights WHERE user_id=$1`,
		`DELETE FROM check_ins WHERE user_id=$1`,
		`DELETE FROM journal_entries WHERE user_id=$1`,
		`DELETE FROM state_changes WHERE user_id=$1`,
		`DELETE FROM user_states WHERE user_id=$1`,
		`DELETE FROM consent_log WHERE user_id=$1`,
		`DELETE FROM users WHERE user_id=$1`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return mapErr(err)
		}
	}
	return mapErr(tx.Commit())
}

// --- CheckIns ---

type checkIns struct{ db *sql.DB }

const checkInCols = `check_in_id, user_id, day, level, responses, processed, low_signal, creation_time`

func (c *checkIns) Create(ctx context.Context, m *model.CheckIn) (*model.CheckIn, error) {
	id := m.CheckInID
	if id == "" {
		id = uuid.New().String()
	}
	responses, err := json.Marshal(m.Responses)
	if err != nil {
		return nil, err
	}
	var created time.Time
	row := c.db.QueryRowContext(ctx, `
        INSERT INTO check_ins (check_in_id, user_id, day, level, responses)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING creation_time
    `, id, m.UserID, m.Day, m.Level, string(responses))
	if err := row.Scan(&created); err != nil {
		return nil, mapErr(err)
	}
	out := *m
	out.CheckInID = id
	out.Processed = false
	out.LowSignal = false
	out.CreationTime = created
	return &out, nil
}

func scanCheckIn(row interface{ Scan(...interface{}) error }) (*model.CheckIn, error) {
	var m model.CheckIn
	var responses string
	if err := row.Scan(&m.CheckInID, &m.UserID, &m.Day, &m.Level, &responses, &m.Processed, &m.LowSignal, &m.CreationTime); err != nil {
		return nil, mapErr(err)
	}
	if err := json.Unmarshal([]byte(responses), &m.Responses); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *checkIns) GetByID(ctx context.Context, userID, checkInID string) (*model.CheckIn, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+checkInCols+` FROM check_ins WHERE user_id=$1 AND check_in_id=$2`, userID, checkInID)
	return scanCheckIn(row)
}

func (c *checkIns) Latest(ctx context.Context, userID string) (*model.CheckIn, error) {
	row := c.db.QueryRowContext(ctx, `
        SELECT `+checkInCols+` FROM check_ins WHERE user_id=$1
        ORDER BY creation_time DESC LIMIT 1
    `, userID)
	return scanCheckIn(row)
}

func (c *checkIns) List(ctx context.Context, req model.ListCheckInsRequest) ([]*model.CheckIn, error) {
	q := `SELECT ` + checkInCols + ` FROM check_ins WHERE user_id=$1`
	args := []interface{}{req.UserID}
	n := 1
	if req.After != nil {
		n++
		q += fmt.Sprintf(` AND creation_time >= $%d`, n)
		args = append(args, req.After.UTC())
	}
	if req.Before != nil {
		n++
		q += fmt.Sprintf(` AND creation_time < $%d`, n)
		args = append(args, req.Before.UTC())
	}
	q += ` ORDER BY creation_time DESC`
	if req.Limit > 0 {
		n++
		q += fmt.Sprintf(` LIMIT $%d`, n)
		args = append(args, req.Limit)
	}
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.CheckIn
	for rows.Next() {
		m, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

func (c *checkIns) ListUnprocessed(ctx context.Context, userID string, includeLowSignal bool) ([]*model.CheckIn, error) {
	cond := `processed=FALSE`
	if includeLowSignal {
		cond = `(processed=FALSE OR low_signal=TRUE)`
	}
	rows, err := c.db.QueryContext(ctx, `SELECT `+checkInCols+` FROM check_ins WHERE user_id=$1 AND `+cond+` ORDER BY creation_time ASC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.CheckIn
	for rows.Next() {
		m, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

func (c *checkIns) Count(ctx context.Context, userID string) (int, error) {
	var n int
	row := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM check_ins WHERE user_id=$1`, userID)
	if err := row.Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

// --- Journals ---

type journals struct{ db *sql.DB }

const journalCols = `entry_id, user_id, body, mood, processed, low_signal, creation_time`

func scanJournal(row interface{ Scan(...interface{}) error }) (*model.JournalEntry, error) {
	var m model.JournalEntry
	if err := row.Scan(&m.EntryID, &m.UserID, &m.Text, &m.Mood, &m.Processed, &m.LowSignal, &m.CreationTime); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (j *journals) Create(ctx context.Context, m *model.JournalEntry) (*model.JournalEntry, error) {
	id := m.EntryID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := j.db.QueryRowContext(ctx, `
        INSERT INTO journal_entries (entry_id, user_id, body, mood)
        VALUES ($1,$2,$3,$4)
        RETURNING creation_time
    `, id, m.UserID, m.Text, m.Mood)
	if err := row.Scan(&created); err != nil {
		return nil, mapErr(err)
	}
	out := *m
	out.EntryID = id
	out.Processed = false
	out.LowSignal = false
	out.CreationTime = created
	return &out, nil
}

func (j *journals) GetByID(ctx context.Context, userID, entryID string) (*model.JournalEntry, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+journalCols+` FROM journal_entries WHERE user_id=$1 AND entry_id=$2`, userID, entryID)
	return scanJournal(row)
}

func (j *journals) List(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	q := `SELECT ` + journalCols + ` FROM journal_entries WHERE user_id=$1 ORDER BY creation_time DESC`
	args := []interface{}{userID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.JournalEntry
	for rows.Next() {
		m, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

func (j *journals) ListUnprocessed(ctx context.Context, userID string, includeLowSignal bool) ([]*model.JournalEntry, error) {
	cond := `processed=FALSE`
	if includeLowSignal {
		cond = `(processed=FALSE OR low_signal=TRUE)`
	}
	rows, err := j.db.QueryContext(ctx, `SELECT `+journalCols+` FROM journal_entries WHERE user_id=$1 AND `+cond+` ORDER BY creation_time ASC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.JournalEntry
	for rows.Next() {
		m, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

// --- Insights ---

type insights struct{ db *sql.DB }

const insightCols = `insight_id, user_id, pattern, source_ids, strength, source_count, distinct_days, time_context, creation_time`

func sourceTable(kind model.SourceKind) (table, idCol string, err error) {
	switch kind {
	case model.SourceCheckIn:
		return "check_ins", "check_in_id", nil
	case model.SourceJournal:
		return "journal_entries", "entry_id", nil
	}
	return "", "", fmt.Errorf("%w: unknown source kind %q", model.ErrInvariant, kind)
}

func (i *insights) CreateWithSources(ctx context.Context, ins *model.Insight, sources []model.SourceRef) (*model.Insight, error) {
	id := ins.InsightID
	if id == "" {
		id = uuid.New().String()
	}
	sourceJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, err
	}

	tx, err := i.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	var created time.Time
	row := tx.QueryRowContext(ctx, `
        INSERT INTO insights (insight_id, user_id, pattern, source_ids, strength, source_count, distinct_days, time_context)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING creation_time
    `, id, ins.UserID, ins.Pattern, string(sourceJSON), ins.Recurrence.Strength, ins.Recurrence.SourceCount, ins.Recurrence.DistinctDays, ins.TimeContext)
	if err := row.Scan(&created); err != nil {
		return nil, mapErr(err)
	}

	for _, src := range sources {
		table, idCol, err := sourceTable(src.Kind)
		if err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET processed=TRUE, low_signal=FALSE WHERE user_id=$1 AND `+idCol+`=$2`,
			ins.UserID, src.ID)
		if err != nil {
			return nil, mapErr(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, mapErr(err)
		} else if n == 0 {
			return nil, fmt.Errorf("%w: insight source %s/%s not owned by %s", model.ErrInvariant, src.Kind, src.ID, ins.UserID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, mapErr(err)
	}
	out := *ins
	out.InsightID = id
	out.SourceIDs = sources
	out.CreationTime = created
	return &out, nil
}

func (i *insights) MarkLowSignal(ctx context.Context, userID string, sources []model.SourceRef) error {
	tx, err := i.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, src := range sources {
		table, idCol, err := sourceTable(src.Kind)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET processed=TRUE, low_signal=TRUE WHERE user_id=$1 AND `+idCol+`=$2`,
			userID, src.ID); err != nil {
			return mapErr(err)
		}
	}
	return mapErr(tx.Commit())
}

func scanInsight(row interface{ Scan(...interface{}) error }) (*model.Insight, error) {
	var m model.Insight
	var sourceJSON string
	if err := row.Scan(&m.InsightID, &m.UserID, &m.Pattern, &sourceJSON, &m.Recurrence.Strength, &m.Recurrence.SourceCount, &m.Recurrence.DistinctDays, &m.TimeContext, &m.CreationTime); err != nil {
		return nil, mapErr(err)
	}
	if err := json.Unmarshal([]byte(sourceJSON), &m.SourceIDs); err != nil {
		return nil, err
	}
	return &m, nil
}

func (i *insights) GetByID(ctx context.Context, userID, insightID string) (*model.Insight, error) {
	row := i.db.QueryRowContext(ctx, `SELECT `+insightCols+` FROM insights WHERE user_id=$1 AND insight_id=$2`, userID, insightID)
	return scanInsight(row)
}

func (i *insights) List(ctx context.Context, req store.ListInsightsRequest) ([]*model.Insight, error) {
	q := `SELECT ` + insightCols + ` FROM insights WHERE user_id=$1`
	args := []interface{}{req.UserID}
	n := 1
	if req.From != nil {
		n++
		q += fmt.Sprintf(` AND creation_time >= $%d`, n)
		args = append(args, req.From.UTC())
	}
	if req.To != nil {
		n++
		q += fmt.Sprintf(` AND creation_time < $%d`, n)
		args = append(args, req.To.UTC())
	}
	q += ` ORDER BY creation_time ASC`
	if req.Limit > 0 {
		n++
		q += fmt.Sprintf(` LIMIT $%d`, n)
		args = append(args, req.Limit)
	}
	rows, err := i.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Insight
	for rows.Next() {
		m, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

func (i *insights) Count(ctx context.Context, userID string) (int, error) {
	var n int
	row := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM insights WHERE user_id=$1`, userID)
	if err := row.Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

// --- States ---

type states struct{ db *sql.DB }

func (s *states) Init(ctx context.Context, userID string, at time.Time) (*model.UserState, error) {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO user_states (user_id, current_phase, entered_at) VALUES ($1,$2,$3)
    `, userID, string(model.PhaseExploration), at.UTC())
	if err != nil {
		return nil, mapErr(err)
	}
	return &model.UserState{UserID: userID, CurrentPhase: model.PhaseExploration, EnteredAt: at.UTC()}, nil
}

func (s *states) Get(ctx context.Context, userID string) (*model.UserState, error) {
	var out model.UserState
	var phase string
	row := s.db.QueryRowContext(ctx, `SELECT user_id, current_phase, entered_at FROM user_states WHERE user_id=$1`, userID)
	if err := row.Scan(&out.UserID, &phase, &out.EnteredAt); err != nil {
		return nil, mapErr(err)
	}
	out.CurrentPhase = model.Phase(phase)

	rows, err := s.db.QueryContext(ctx, `SELECT from_phase, to_phase, reason, at FROM state_changes WHERE user_id=$1 ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var ch model.StateChange
		var from, to string
		if err := rows.Scan(&from, &to, &ch.Reason, &ch.At); err != nil {
			return nil, mapErr(err)
		}
		ch.From = model.Phase(from)
		ch.To = model.Phase(to)
		out.History = append(out.History, ch)
	}
	return &out, mapErr(rows.Err())
}

func (s *states) Append(ctx context.Context, userID string, change model.StateChange) (*model.UserState, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
        UPDATE user_states SET current_phase=$1, entered_at=$2 WHERE user_id=$3 AND current_phase=$4
    `, string(change.To), change.At.UTC(), userID, string(change.From))
	if err != nil {
		return nil, mapErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, mapErr(err)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: state transition from %s", model.ErrConflict, change.From)
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO state_changes (user_id, from_phase, to_phase, reason, at) VALUES ($1,$2,$3,$4,$5)
    `, userID, string(change.From), string(change.To), change.Reason, change.At.UTC()); err != nil {
		return nil, mapErr(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapErr(err)
	}
	return s.Get(ctx, userID)
}

// --- Reports ---

type reports struct{ db *sql.DB }

const reportCols = `report_id, user_id, report_type, period_start, period_end, insight_ids, content, creation_time`

func (r *reports) Create(ctx context.Context, m *model.Report) (*model.Report, error) {
	id := m.ReportID
	if id == "" {
		id = uuid.New().String()
	}
	insightIDs, err := json.Marshal(m.InsightIDs)
	if err != nil {
		return nil, err
	}
	content, err := json.Marshal(m.Content)
	if err != nil {
		return nil, err
	}
	var created time.Time
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO reports (report_id, user_id, report_type, period_start, period_end, insight_ids, content)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING creation_time
    `, id, m.UserID, string(m.Type), m.PeriodStart.UTC(), m.PeriodEnd.UTC(), string(insightIDs), string(content))
	if err := row.Scan(&created); err != nil {
		return nil, mapErr(err)
	}
	out := *m
	out.ReportID = id
	out.CreationTime = created
	return &out, nil
}

func scanReport(row interface{ Scan(...interface{}) error }) (*model.Report, error) {
	var m model.Report
	var typ, insightIDs, content string
	if err := row.Scan(&m.ReportID, &m.UserID, &typ, &m.PeriodStart, &m.PeriodEnd, &insightIDs, &content, &m.CreationTime); err != nil {
		return nil, mapErr(err)
	}
	m.Type = model.ReportType(typ)
	if err := json.Unmarshal([]byte(insightIDs), &m.InsightIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &m.Content); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *reports) GetByID(ctx context.Context, userID, reportID string) (*model.Report, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reportCols+` FROM reports WHERE user_id=$1 AND report_id=$2`, userID, reportID)
	return scanReport(row)
}

func (r *reports) List(ctx context.Context, userID string) ([]*model.Report, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reportCols+` FROM reports WHERE user_id=$1 ORDER BY creation_time DESC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Report
	for rows.Next() {
		m, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, mapErr(rows.Err())
}

// --- Shares ---

type shares struct{ db *sql.DB }

const shareCols = `share_id, token, user_id, report_id, expires_at, revoked, creation_time`

func (s *shares) Create(ctx context.Context, m *model.ShareRecord) (*model.ShareRecord, error) {
	id := m.ShareID
	if id == "" {
		id = uuid.New().String()
	}
	var created time.Time
	row := s.db.QueryRowContext(ctx, `
        INSERT INTO shares (share_id, token, user_id, report_id, expires_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING creation_time
    `, id, m.Token, m.UserID, m.ReportID, m.ExpiresAt.UTC())
	if err := row.Scan(&created); err != nil {
		return nil, mapErr(err)
	}
	out := *m
	out.ShareID = id
	out.Revoked = false
	out.CreationTime = created
	return &out, nil
}

func (s *shares) loadAccessLog(ctx context.Context, m *model.ShareRecord) error {
	rows, err := s.db.QueryContext(ctx, `SELECT at, outcome FROM share_accesses WHERE share_id=$1 ORDER BY seq ASC`, m.ShareID)
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var a model.ShareAccess
		if err := rows.Scan(&a.At, &a.Outcome); err != nil {
			return mapErr(err)
		}
		m.AccessLog = append(m.AccessLog, a)
	}
	return mapErr(rows.Err())
}

func (s *shares) scanShare(ctx context.Context, row interface{ Scan(...interface{}) error }) (*model.ShareRecord, error) {
	var m model.ShareRecord
	if err := row.Scan(&m.ShareID, &m.Token, &m.UserID, &m.ReportID, &m.ExpiresAt, &m.Revoked, &m.CreationTime); err != nil {
		return nil, mapErr(err)
	}
	if err := s.loadAccessLog(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *shares) GetByToken(ctx context.Context, token string) (*model.ShareRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shareCols+` FROM shares WHERE token=$1`, token)
	return s.scanShare(ctx, row)
}

func (s *shares) GetByID(ctx context.Context, userID, shareID string) (*model.ShareRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shareCols+` FROM shares WHERE user_id=$1 AND share_id=$2`, userID, shareID)
	return s.scanShare(ctx, row)
}

func (s *shares) List(ctx context.Context, userID, reportID string) ([]*model.ShareRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+shareCols+` FROM shares WHERE user_id=$1 AND report_id=$2 ORDER BY creation_time DESC`, userID, reportID)
	if err != nil {
		return nil, mapErr(err)
	}
	var out []*model.ShareRecord
	for rows.Next() {
		var m model.ShareRecord
		if err := rows.Scan(&m.ShareID, &m.Token, &m.UserID, &m.ReportID, &m.ExpiresAt, &m.Revoked, &m.CreationTime); err != nil {
			_ = rows.Close()
			return nil, mapErr(err)
		}
		out = append(out, &m)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	for _, m := range out {
		if err := s.loadAccessLog(ctx, m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *shares) Revoke(ctx context.Context, userID, shareID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE shares SET revoked=TRUE WHERE user_id=$1 AND share_id=$2`, userID, shareID)
	if err != nil {
		return mapErr(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return mapErr(err)
	} else if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *shares) AppendAccess(ctx context.Context, shareID string, access model.ShareAccess) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO share_accesses (share_id, at, outcome) VALUES ($1,$2,$3)`,
		shareID, access.At.UTC(), access.Outcome)
	return mapErr(err)
}

// --- Consents ---

type consents struct{ db *sql.DB }

func (c *consents) Append(ctx context.Context, e *model.ConsentEntry) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO consent_log (user_id, action, target_id, at) VALUES ($1,$2,$3,$4)`,
		e.UserID, e.Action, e.TargetID, e.At.UTC())
	return mapErr(err)
}

func (c *consents) List(ctx context.Context, userID string) ([]*model.ConsentEntry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT user_id, action, target_id, at FROM consent_log WHERE user_id=$1 ORDER BY seq ASC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer func() { _ = rows.Close() }()
	var out []*model.ConsentEntry
	for rows.Next() {
		var e model.ConsentEntry
		if err := rows.Scan(&e.UserID, &e.Action, &e.TargetID, &e.At); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, &e)
	}
	return out, mapErr(rows.Err())
}
