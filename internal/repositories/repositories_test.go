package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenMigrated(":memory:", 0, 0)
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { db.Close() })
	return db
}

func createAccount(t *testing.T, repo *UserRepository, username string) *models.Account {
	t.Helper()
	acct := models.NewAccount(models.User{Username: username, Email: username + "@example.com"}, "hash")
	require.NoError(t, repo.Create(acct))
	return acct
}

func TestLocalStorage(t *testing.T) {
	t.Run("Missing Key", func(t *testing.T) {
		store := NewLocalStorage(setupTestDB(t))
		v, err := store.Get("accessToken")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("Set Get Delete", func(t *testing.T) {
		store := NewLocalStorage(setupTestDB(t))

		require.NoError(t, store.Set("accessToken", "A"))
		require.NoError(t, store.Set("refreshToken", "R"))
		require.NoError(t, store.Set("accessToken", "A2"))

		v, err := store.Get("accessToken")
		require.NoError(t, err)
		assert.Equal(t, "A2", v)

		keys, err := store.Keys()
		require.NoError(t, err)
		assert.Equal(t, []string{"accessToken", "refreshToken"}, keys)

		require.NoError(t, store.Delete("accessToken"))
		require.NoError(t, store.Delete("accessToken"), "deleting a missing key is allowed")

		v, err = store.Get("accessToken")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewLocalStorage(db)
		db.Close()

		_, err := store.Get("accessToken")
		assert.Error(t, err)
		assert.Error(t, store.Set("k", "v"))
		assert.Error(t, store.Delete("k"))
	})
}

func TestUserRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		acct := models.NewAccount(models.User{Username: "alice", Email: "a@example.com", FirstName: "Alice", LastName: "L"}, "hash")

		require.NoError(t, repo.Create(acct))
		assert.NotZero(t, acct.Key())

		got, err := repo.Get(acct.Key())
		require.NoError(t, err)
		assert.Equal(t, acct.User(), got.User())
		assert.Equal(t, "hash", got.PasswordHash())

		byName, err := repo.GetByUsername("alice")
		require.NoError(t, err)
		assert.Equal(t, acct.Key(), byName.Key())
	})

	t.Run("Validation", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		err := repo.Create(models.NewAccount(models.User{Username: " "}, "hash"))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		err = repo.Create(models.NewAccount(models.User{Username: "bob"}, ""))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("Duplicate Username", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		createAccount(t, repo, "alice")

		err := repo.Create(models.NewAccount(models.User{Username: "alice"}, "other"))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("Not Found", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		_, err := repo.Get(42)
		assert.ErrorIs(t, err, shared.ErrUserNotFound)
		_, err = repo.GetByUsername("nobody")
		assert.ErrorIs(t, err, shared.ErrUserNotFound)
		assert.ErrorIs(t, repo.Delete(42), shared.ErrUserNotFound)

		ghost := models.NewAccount(models.User{Username: "ghost"}, "hash")
		ghost.SetKey(42)
		assert.ErrorIs(t, repo.Update(ghost), shared.ErrUserNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		acct := createAccount(t, repo, "alice")

		acct.SetUser(models.User{Username: "alice", Email: "new@example.com", FirstName: "Alice"})
		require.NoError(t, repo.Update(acct))

		got, err := repo.Get(acct.Key())
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.User().Email)
		assert.Equal(t, "Alice", got.User().FirstName)
	})

	t.Run("Delete Cascades To Notes", func(t *testing.T) {
		db := setupTestDB(t)
		users := NewUserRepository(db)
		notes := NewNoteRepository(db)
		acct := createAccount(t, users, "alice")
		rec := models.NewNoteRecord(acct.Key(), "t", "c")
		require.NoError(t, notes.Create(rec))

		require.NoError(t, users.Delete(acct.Key()))

		var count int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("List", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		createAccount(t, repo, "bob")
		createAccount(t, repo, "alice")

		accounts, err := repo.List()
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "alice", accounts[0].Username())
		assert.Equal(t, "bob", accounts[1].Username())
	})
}

func TestNoteRepository(t *testing.T) {
	setup := func(t *testing.T) (*NoteRepository, *models.Account, *models.Account) {
		db := setupTestDB(t)
		users := NewUserRepository(db)
		return NewNoteRepository(db), createAccount(t, users, "alice"), createAccount(t, users, "bob")
	}

	t.Run("Create Appends Position", func(t *testing.T) {
		repo, alice, bob := setup(t)

		for i, title := range []string{"one", "two", "three"} {
			rec := models.NewNoteRecord(alice.Key(), title, "body")
			require.NoError(t, repo.Create(rec))
			assert.Equal(t, i, rec.Position())
			assert.NotZero(t, rec.Key())
		}

		other := models.NewNoteRecord(bob.Key(), "bob's", "body")
		require.NoError(t, repo.Create(other))
		assert.Equal(t, 0, other.Position(), "positions are per account")
	})

	t.Run("Position Counts Live Notes Only", func(t *testing.T) {
		repo, alice, _ := setup(t)
		first := models.NewNoteRecord(alice.Key(), "one", "body")
		require.NoError(t, repo.Create(first))
		require.NoError(t, repo.Create(models.NewNoteRecord(alice.Key(), "two", "body")))
		require.NoError(t, repo.Delete(first.Key()))

		third := models.NewNoteRecord(alice.Key(), "three", "body")
		require.NoError(t, repo.Create(third))
		assert.Equal(t, 1, third.Position())
	})

	t.Run("Validation", func(t *testing.T) {
		repo, alice, _ := setup(t)
		assert.ErrorIs(t, repo.Create(models.NewNoteRecord(alice.Key(), "", "body")), shared.ErrInvalidInput)
		assert.ErrorIs(t, repo.Create(models.NewNoteRecord(alice.Key(), "title", "")), shared.ErrInvalidInput)
		assert.ErrorIs(t, repo.Create(models.NewNoteRecord(0, "title", "body")), shared.ErrInvalidInput)
	})

	t.Run("Get Scoped To Account", func(t *testing.T) {
		repo, alice, bob := setup(t)
		rec := models.NewNoteRecord(alice.Key(), "mine", "body")
		require.NoError(t, repo.Create(rec))

		got, err := repo.GetForAccount(alice.Key(), rec.Key())
		require.NoError(t, err)
		assert.Equal(t, rec.Note(), got.Note())

		_, err = repo.GetForAccount(bob.Key(), rec.Key())
		assert.ErrorIs(t, err, shared.ErrNoteNotFound)

		_, err = repo.Get(rec.Key())
		assert.NoError(t, err)
	})

	t.Run("Update", func(t *testing.T) {
		repo, alice, _ := setup(t)
		rec := models.NewNoteRecord(alice.Key(), "old", "body")
		require.NoError(t, repo.Create(rec))

		rec.SetContent("new", "changed")
		require.NoError(t, repo.Update(rec))

		got, err := repo.Get(rec.Key())
		require.NoError(t, err)
		assert.Equal(t, "new", got.Note().Title)
		assert.Equal(t, "changed", got.Note().Content)
	})

	t.Run("Soft Delete", func(t *testing.T) {
		db := setupTestDB(t)
		users := NewUserRepository(db)
		repo := NewNoteRepository(db)
		alice := createAccount(t, users, "alice")
		rec := models.NewNoteRecord(alice.Key(), "gone", "body")
		require.NoError(t, repo.Create(rec))

		require.NoError(t, repo.Delete(rec.Key()))
		assert.ErrorIs(t, repo.Delete(rec.Key()), shared.ErrNoteNotFound)

		_, err := repo.Get(rec.Key())
		assert.ErrorIs(t, err, shared.ErrNoteNotFound)

		rec.SetContent("revived", "body")
		assert.ErrorIs(t, repo.Update(rec), shared.ErrNoteNotFound)

		var deleted bool
		require.NoError(t, db.QueryRow(`SELECT is_deleted FROM notes WHERE id = ?`, rec.Key()).Scan(&deleted))
		assert.True(t, deleted, "row should remain with is_deleted set")
	})

	t.Run("List And Search", func(t *testing.T) {
		repo, alice, bob := setup(t)
		for _, n := range [][2]string{{"Groceries", "milk, eggs"}, {"Ideas", "a 100% new app"}, {"Travel", "pack MILK"}} {
			require.NoError(t, repo.Create(models.NewNoteRecord(alice.Key(), n[0], n[1])))
		}
		require.NoError(t, repo.Create(models.NewNoteRecord(bob.Key(), "Milk run", "bob")))

		all, err := repo.List(alice.Key(), "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, rec := range all {
			assert.Equal(t, i, rec.Position())
		}

		milk, err := repo.List(alice.Key(), "milk")
		require.NoError(t, err)
		require.Len(t, milk, 2)
		assert.Equal(t, "Groceries", milk[0].Note().Title)
		assert.Equal(t, "Travel", milk[1].Note().Title)

		byTitle, err := repo.List(alice.Key(), "IDEA")
		require.NoError(t, err)
		assert.Len(t, byTitle, 1)

		percent, err := repo.List(alice.Key(), "%")
		require.NoError(t, err)
		require.Len(t, percent, 1, "LIKE wildcards are matched literally")
		assert.Equal(t, "Ideas", percent[0].Note().Title)
	})

	t.Run("UpdatePositions", func(t *testing.T) {
		repo, alice, bob := setup(t)
		var ids []int64
		for _, title := range []string{"a", "b", "c"} {
			rec := models.NewNoteRecord(alice.Key(), title, "body")
			require.NoError(t, repo.Create(rec))
			ids = append(ids, rec.Key())
		}
		foreign := models.NewNoteRecord(bob.Key(), "bob", "body")
		require.NoError(t, repo.Create(foreign))

		err := repo.UpdatePositions(alice.Key(), []models.Position{
			{ID: ids[2], Position: 0},
			{ID: ids[0], Position: 1},
			{ID: ids[1], Position: 2},
			{ID: foreign.Key(), Position: 9},
		})
		require.NoError(t, err)

		list, err := repo.List(alice.Key(), "")
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].Note().Title, list[1].Note().Title, list[2].Note().Title})

		got, err := repo.Get(foreign.Key())
		require.NoError(t, err)
		assert.Equal(t, 0, got.Position(), "another account's note is untouched")
	})
}
