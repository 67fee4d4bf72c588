package bridgedb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/shieldpay/solzec-bridge/pkg/bridgestore"
	mghelper "github.com/shieldpay/solzec-bridge/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating bridge_transactions table...")
		if err := mghelper.CreateSchema(ctx, db, &bridgestore.TransactionDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelUniqueIndexes(ctx, db, &bridgestore.TransactionDao{}, "deposit_address", "idempotency_key"); err != nil {
			return err
		}
		// Create indexes
		return mghelper.CreateModelIndexes(ctx, db, &bridgestore.TransactionDao{}, "status", "user_id", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping bridge_transactions table...")
		return mghelper.DropTables(ctx, db, &bridgestore.TransactionDao{})
	})
}
