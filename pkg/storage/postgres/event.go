package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oneilljw/homecontrol/pkg/model"
	"github.com/oneilljw/homecontrol/pkg/storage"
	"github.com/pkg/errors"
)

func newEventStore(db *sqlx.DB) *eventStore {
	return &eventStore{
		db: db,
	}
}

type eventStore struct {
	db *sqlx.DB
}

type sqlDataEvent struct {
	ID        int32     `db:"id"`
	Topic     string    `db:"topic"`
	SessionID int       `db:"session_id"`
	Message   string    `db:"message"`
	Details   string    `db:"details"`
	Timestamp time.Time `db:"timestamp"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var sqlParamsEvent = []string{
	"id",
	"topic",
	"session_id",
	"message",
	"details",
	"timestamp",
	"created_at",
	"updated_at",
}

func (d *sqlDataEvent) Scan(m *model.Event) error {
	var createdAt, updatedAt, timestamp = m.CreatedAt, m.UpdatedAt, m.Timestamp

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	if m.Timestamp.IsZero() {
		timestamp = createdAt
	}

	d.ID = m.ID
	d.Topic = m.Topic
	d.SessionID = m.SessionID
	d.Message = m.Message
	d.Details = m.Details
	d.Timestamp = timestamp
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataEvent) Model() (*model.Event, error) {
	m := &model.Event{
		ID:        d.ID,
		Topic:     d.Topic,
		SessionID: d.SessionID,
		Message:   d.Message,
		Details:   d.Details,
		Timestamp: d.Timestamp,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	return m, nil
}

func (s *eventStore) FetchRecent(limit int) ([]model.Event, error) {
	return fetchRecentEvents(s.db, limit)
}

func (s *eventStore) FindByID(id int32) (*model.Event, error) {
	return findEventByID(s.db, id)
}

func (s *eventStore) Create(m *model.Event) error {
	return createEvent(s.db, m)
}

func fetchRecentEvents(db *sqlx.DB, limit int) ([]model.Event, error) {
	rows := make([]sqlDataEvent, 0)

	var err error
	if limit > 0 {
		err = db.Select(&rows, "SELECT * FROM events ORDER BY id DESC LIMIT $1", limit)
	} else {
		err = db.Select(&rows, "SELECT * FROM events ORDER BY id DESC")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch recent events")
	}

	models := make([]model.Event, 0, len(rows))
	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to event model")
		}
		models = append(models, *m)
	}

	return models, nil
}

func findEventByID(db *sqlx.DB, id int32) (*model.Event, error) {
	d := sqlDataEvent{}
	query := "SELECT * FROM events WHERE id=$1"
	if err := db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find event")
	}

	return d.Model()
}

func createEvent(db *sqlx.DB, m *model.Event) error {
	d := sqlDataEvent{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert event model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsEvent {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO events (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create event")
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&m.ID); err != nil {
			return errors.Wrap(err, "failed to read event id")
		}
	}
	m.Timestamp = d.Timestamp
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt

	return rows.Err()
}
