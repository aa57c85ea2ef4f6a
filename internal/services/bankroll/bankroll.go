package bankroll

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fastprodman/crystalpay/internal/cost"
	"github.com/fastprodman/crystalpay/internal/crystal"
	"github.com/fastprodman/crystalpay/internal/infra/pgutils"
	"github.com/fastprodman/crystalpay/internal/player"
	"github.com/fastprodman/crystalpay/internal/repos/ledger"
	pgledger "github.com/fastprodman/crystalpay/internal/repos/ledger/postgres"
	"github.com/fastprodman/crystalpay/internal/repos/pools"
	pgpools "github.com/fastprodman/crystalpay/internal/repos/pools/postgres"
	"github.com/fastprodman/crystalpay/internal/rules"
)

type Service struct {
	db      *sql.DB
	pools   pools.Pools
	ledger  ledger.Ledger
	catalog *rules.Catalog
}

func New(dbx *sql.DB, catalog *rules.Catalog) *Service {
	if catalog == nil {
		catalog = rules.Empty()
	}

	return &Service{
		db:      dbx,
		pools:   pgpools.New(dbx),
		ledger:  pgledger.New(dbx),
		catalog: catalog,
	}
}

// Grant runs in a single DB transaction:
//
// 1) Ensure player exists.
// 2) Lock player row (FOR UPDATE) and load the pool.
// 3) Add the crystals, respecting the catalog cap.
// 4) Save the pool and insert the ledger entry (duplicate id -> ErrDuplicateEntry).
func (s *Service) Grant(ctx context.Context, g Grant) (crystal.Pool, error) {
	if g.GrantID == uuid.Nil {
		return crystal.Pool{}, fmt.Errorf("grant id required: %w", ErrInvalidRequest)
	}

	var after crystal.Pool

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		bank, err := s.lockBankroll(tx, g.PlayerID)
		if err != nil {
			return err
		}

		err = bank.Grant(g.Element, g.Amount)
		if err != nil {
			return fmt.Errorf("apply grant: %w", err)
		}

		after = bank.Crystals()

		err = s.pools.SavePool(tx, g.PlayerID, after)
		if err != nil {
			return fmt.Errorf("save pool: %w", err)
		}

		err = s.ledger.Insert(tx, ledger.Entry{
			ID:       g.GrantID,
			PlayerID: g.PlayerID,
			Kind:     ledger.KindGrant,
			Amount:   g.Amount,
			Detail:   fmt.Sprintf("%s %s", g.Source, g.Element),
		})
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return crystal.Pool{}, fmt.Errorf("grant: %w", err)
	}

	slog.InfoContext(ctx, "crystals granted",
		"player_id", g.PlayerID,
		"grant_id", g.GrantID,
		"element", g.Element.String(),
		"amount", g.Amount,
		"pool", after.String(),
	)

	return after, nil
}

// Pay resolves the cost, then in a single DB transaction locks the pool,
// charges the cost against it and records the payment. The cost is checked
// again against the locked pool, so an earlier Quote is only advisory.
func (s *Service) Pay(ctx context.Context, p Payment) (Receipt, error) {
	if p.PaymentID == uuid.Nil {
		return Receipt{}, fmt.Errorf("payment id required: %w", ErrInvalidRequest)
	}

	c, err := s.resolveCost(p)
	if err != nil {
		return Receipt{}, fmt.Errorf("pay: %w", err)
	}

	receipt := Receipt{PaymentID: p.PaymentID, Cost: c.String()}

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		bank, err := s.lockBankroll(tx, p.PlayerID)
		if err != nil {
			return err
		}

		err = c.Pay(bank, cost.Decision{X: p.X})
		if err != nil {
			if errors.Is(err, cost.ErrCannotPay) {
				return fmt.Errorf("%s with %s: %w", c, bank.Crystals(), ErrInsufficientCrystals)
			}

			return fmt.Errorf("pay cost: %w", err)
		}

		receipt.Paid = c.Paid()
		receipt.Remaining = bank.Crystals()

		err = s.pools.SavePool(tx, p.PlayerID, receipt.Remaining)
		if err != nil {
			return fmt.Errorf("save pool: %w", err)
		}

		err = s.ledger.Insert(tx, ledger.Entry{
			ID:       p.PaymentID,
			PlayerID: p.PlayerID,
			Kind:     ledger.KindPayment,
			Amount:   receipt.Paid,
			Detail:   receipt.Cost,
		})
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("pay: %w", err)
	}

	slog.InfoContext(ctx, "payment committed",
		"player_id", p.PlayerID,
		"payment_id", p.PaymentID,
		"cost", receipt.Cost,
		"paid", receipt.Paid,
		"remaining", receipt.Remaining.String(),
	)

	return receipt, nil
}

// Quote reports whether the payment would currently succeed. It takes no locks.
func (s *Service) Quote(ctx context.Context, p Payment) (Quote, error) {
	c, err := s.resolveCost(p)
	if err != nil {
		return Quote{}, fmt.Errorf("quote: %w", err)
	}

	pool, err := s.pools.GetPool(ctx, p.PlayerID)
	if err != nil {
		return Quote{}, fmt.Errorf("quote: %w", err)
	}

	bank := player.New(p.PlayerID, pool)
	d := cost.Decision{X: p.X}

	return Quote{
		Cost:     c.String(),
		CanPay:   c.CanPay(bank, d),
		Required: c.Required(d),
		Held:     bank.TotalCrystals(),
		MaxX:     c.MaxX(bank),
	}, nil
}

// Pool returns the player's pool (no locks; suitable for the GET endpoint).
func (s *Service) Pool(ctx context.Context, playerID uint64) (crystal.Pool, error) {
	pool, err := s.pools.GetPool(ctx, playerID)
	if err != nil {
		return crystal.Pool{}, fmt.Errorf("get pool: %w", err)
	}

	return pool, nil
}

// Empty clears the player's pool, e.g. at the end of a phase.
func (s *Service) Empty(ctx context.Context, playerID uint64, entryID uuid.UUID) error {
	if entryID == uuid.Nil {
		return fmt.Errorf("entry id required: %w", ErrInvalidRequest)
	}

	var cleared int

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		bank, err := s.lockBankroll(tx, playerID)
		if err != nil {
			return err
		}

		cleared = bank.TotalCrystals()
		bank.Empty()

		err = s.pools.SavePool(tx, playerID, bank.Crystals())
		if err != nil {
			return fmt.Errorf("save pool: %w", err)
		}

		err = s.ledger.Insert(tx, ledger.Entry{
			ID:       entryID,
			PlayerID: playerID,
			Kind:     ledger.KindEmpty,
			Amount:   cleared,
		})
		if err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("empty: %w", err)
	}

	slog.InfoContext(ctx, "pool emptied", "player_id", playerID, "entry_id", entryID, "cleared", cleared)

	return nil
}

func (s *Service) lockBankroll(tx *sql.Tx, playerID uint64) (*player.Bankroll, error) {
	err := s.pools.Exists(tx, playerID)
	if err != nil {
		return nil, fmt.Errorf("check player exists: %w", err)
	}

	pool, err := s.pools.LockAndGetPool(tx, playerID)
	if err != nil {
		return nil, fmt.Errorf("lock and get pool: %w", err)
	}

	bank := player.New(playerID, pool)
	bank.MaxCrystals = s.catalog.MaxCrystals

	return bank, nil
}

func (s *Service) resolveCost(p Payment) (*cost.Cost, error) {
	switch {
	case p.Ability != "" && p.Cost != "":
		return nil, fmt.Errorf("cost and ability are exclusive: %w", ErrInvalidRequest)
	case p.Ability != "":
		return s.catalog.Cost(p.Ability)
	default:
		return cost.Parse(p.Cost)
	}
}
