package services

import (
	"testing"

	"limify/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.CreateUser("ana@example.com", "password123", "Ana", "Estúdio Ana")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID")
		}
		if user.Name != "Ana" || user.Company != "Estúdio Ana" {
			t.Errorf("unexpected user %+v", user)
		}
		if !user.IsActive {
			t.Error("expected user to be active")
		}
		if user.Password == "password123" {
			t.Error("password must be hashed")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.CreateUser("dup@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("DUP@example.com", "password456", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	invalid := []struct {
		name, email, password string
	}{
		{"empty_email", "", "password123"},
		{"empty_password", "test@example.com", ""},
		{"malformed_email", "not-an-email", "password123"},
		{"short_password", "test@example.com", "short"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)

			_, err := NewUserService(db).CreateUser(tt.email, tt.password, "", "")
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		})
	}

	t.Run("email_normalized_to_lowercase", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		user, err := NewUserService(db).CreateUser("  Ana@EXAMPLE.COM ", "password123", "", "")
		testutil.AssertNoError(t, err)
		if user.Email != "ana@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})
}

func TestAttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	user := testutil.CreateTestUserWithEmail(t, db, "login@example.com")

	t.Run("valid", func(t *testing.T) {
		got, err := svc.AttemptLogin("LOGIN@example.com", "password123")
		testutil.AssertNoError(t, err)
		if got.ID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID, got.ID)
		}
		if got.LastLoginAt == nil {
			t.Error("expected last login to be recorded")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.AttemptLogin("login@example.com", "wrong-password")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := svc.AttemptLogin("nobody@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	user := testutil.CreateTestUser(t, db)

	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "abc123"))
	hash, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if hash != "abc123" {
		t.Errorf("expected abc123, got %s", hash)
	}

	err = svc.StoreRefreshTokenHash("0192a000-0000-7000-8000-00000000ffff", "x")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")

	_, err = svc.GetUserByID("0192a000-0000-7000-8000-00000000ffff")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}
