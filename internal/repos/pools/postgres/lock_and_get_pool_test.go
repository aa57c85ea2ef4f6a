package pools

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/crystalpay/internal/crystal"
	"github.com/fastprodman/crystalpay/internal/infra/pgtestutil"
	"github.com/fastprodman/crystalpay/internal/repos/pools"
)

func TestPools_LockAndGetPool_Table(t *testing.T) {
	t.Parallel()

	type tc struct {
		name     string
		seed     []crystal.Count
		seedUser bool
		playerID uint64
		want     crystal.Pool
		wantErr  error
	}

	tests := []tc{
		{
			name:     "player_without_crystals",
			seedUser: true,
			playerID: 1,
			want:     crystal.Pool{},
		},
		{
			name:     "player_with_crystals",
			seedUser: true,
			seed: []crystal.Count{
				{Element: crystal.Fire, Amount: 1},
				{Element: crystal.Water, Amount: 2},
			},
			playerID: 1,
			want: crystal.PoolFrom([]crystal.Count{
				{Element: crystal.Fire, Amount: 1},
				{Element: crystal.Water, Amount: 2},
			}),
		},
		{
			name:     "player_not_found",
			playerID: 999,
			wantErr:  pools.ErrPlayerNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			if tt.seedUser {
				pgtestutil.SeedPlayer(t, db, tt.playerID, tt.seed...)
			}

			repo := New(db)

			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			got, err := repo.LockAndGetPool(tx, tt.playerID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("pool mismatch: want %s, got %s", tt.want, got)
			}
		})
	}
}

// A second FOR UPDATE on the same player blocks until the first tx commits.
func TestPools_LockAndGetPool_LocksPlayer(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedPlayer(t, db, 42, crystal.Count{Element: crystal.Ice, Amount: 3})

	repo := New(db)

	ctx1, cancel1 := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel1()

	tx1, err := db.BeginTx(ctx1, nil)
	if err != nil {
		t.Fatalf("begin tx1: %v", err)
	}
	defer func() { _ = tx1.Rollback() }()

	_, err = repo.LockAndGetPool(tx1, 42)
	if err != nil {
		t.Fatalf("tx1 lock/get: %v", err)
	}

	startedCh := make(chan struct{})
	resultCh := make(chan crystal.Pool, 1)
	errCh := make(chan error, 1)

	go func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()

		tx2, e := db.BeginTx(ctx2, nil)
		if e != nil {
			errCh <- e
			return
		}
		defer func() { _ = tx2.Rollback() }()

		close(startedCh)

		p, e := repo.LockAndGetPool(tx2, 42)
		if e != nil {
			errCh <- e
			return
		}

		resultCh <- p
	}()

	select {
	case <-startedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for tx2 to start")
	}

	time.Sleep(200 * time.Millisecond)

	select {
	case <-resultCh:
		t.Fatal("tx2 acquired the lock while tx1 held it")
	case e := <-errCh:
		t.Fatalf("tx2 failed early: %v", e)
	default:
	}

	// tx1 spends a crystal; tx2 must see the committed state.
	err = repo.SavePool(tx1, 42, crystal.PoolFrom([]crystal.Count{{Element: crystal.Ice, Amount: 2}}))
	if err != nil {
		t.Fatalf("tx1 save: %v", err)
	}

	err = tx1.Commit()
	if err != nil {
		t.Fatalf("commit tx1: %v", err)
	}

	select {
	case p := <-resultCh:
		if p.Get(crystal.Ice) != 2 {
			t.Fatalf("tx2 read stale pool: %s", p)
		}
	case e := <-errCh:
		t.Fatalf("tx2 error: %v", e)
	case <-time.After(5 * time.Second):
		t.Fatal("tx2 did not acquire the lock after commit")
	}
}

func TestPools_GetPool(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedPlayer(t, db, 7,
		crystal.Count{Element: crystal.Light, Amount: 4},
		crystal.Count{Element: crystal.Dark, Amount: 1},
	)

	repo := New(db)

	got, err := repo.GetPool(t.Context(), 7)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if got.String() != "[LIGHT=4, DARK=1]" {
		t.Fatalf("unexpected pool: %s", got)
	}

	_, err = repo.GetPool(t.Context(), 8)
	if !errors.Is(err, pools.ErrPlayerNotFound) {
		t.Fatalf("want ErrPlayerNotFound, got %v", err)
	}
}

func TestPools_Exists(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedPlayer(t, db, 5)

	repo := New(db)

	withTx(t, db, func(tx *sql.Tx) {
		err := repo.Exists(tx, 5)
		if err != nil {
			t.Fatalf("exists(5): %v", err)
		}

		err = repo.Exists(tx, 6)
		if !errors.Is(err, pools.ErrPlayerNotFound) {
			t.Fatalf("exists(6): want ErrPlayerNotFound, got %v", err)
		}
	})
}

func TestPools_SavePool(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedPlayer(t, db, 3,
		crystal.Count{Element: crystal.Fire, Amount: 1},
		crystal.Count{Element: crystal.Water, Amount: 2},
	)

	repo := New(db)

	next := crystal.PoolFrom([]crystal.Count{
		{Element: crystal.Wind, Amount: 5},
		{Element: crystal.Water, Amount: 1},
	})

	withTx(t, db, func(tx *sql.Tx) {
		err := repo.SavePool(tx, 3, next)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	})

	got, err := repo.GetPool(t.Context(), 3)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if !got.Equal(next) {
		t.Fatalf("want %s, got %s", next, got)
	}

	withTx(t, db, func(tx *sql.Tx) {
		err := repo.SavePool(tx, 3, crystal.Pool{})
		if err != nil {
			t.Fatalf("save empty: %v", err)
		}
	})

	var rows int

	err = db.QueryRow(`SELECT COUNT(*) FROM crystal_pools WHERE player_id = $1`, 3).Scan(&rows)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 0 {
		t.Fatalf("empty pool should leave no rows, got %d", rows)
	}
}

func withTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	fn(tx)

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}
