package postgres

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLoad_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("email", []byte(`"ops@example.com"`)).
		AddRow("hideMarkers", []byte(`true`))

	mock.ExpectQuery(`SELECT key, value FROM app_settings ORDER BY key`).
		WillReturnRows(rows)

	repo := NewSettingsRepo(db)
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 settings, got %d", len(got))
	}
	if string(got["email"]) != `"ops@example.com"` {
		t.Errorf("unexpected email value: %s", got["email"])
	}
	if string(got["hideMarkers"]) != `true` {
		t.Errorf("unexpected hideMarkers value: %s", got["hideMarkers"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT key, value FROM app_settings`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))

	repo := NewSettingsRepo(db)
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no settings, got %d", len(got))
	}
}

func TestLoad_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT key, value FROM app_settings`).
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewSettingsRepo(db)
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoad_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"key"}).AddRow("email")
	mock.ExpectQuery(`SELECT key, value FROM app_settings`).
		WillReturnRows(rows)

	repo := NewSettingsRepo(db)
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestSave_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO app_settings`).
		WithArgs("showGeofenceHits", []byte(`true`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewSettingsRepo(db)
	if err := repo.Save(context.Background(), "showGeofenceHits", json.RawMessage(`true`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSave_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO app_settings`).
		WithArgs("email", []byte(`"a@b.c"`)).
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewSettingsRepo(db)
	if err := repo.Save(context.Background(), "email", json.RawMessage(`"a@b.c"`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS app_settings`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewSettingsRepo(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
