package ledger_test

import (
	"context"
	"fmt"
	"log"

	"github.com/ledgerdb/ledger-go-sdk"
	"github.com/ledgerdb/ledger-go-sdk/retry"
	"github.com/ledgerdb/ledger-go-sdk/txn"
	"github.com/ledgerdb/ledger-go-sdk/value"
)

func Example_execute() {
	ctx := context.TODO()
	db, err := ledger.Open(ctx, "grpcs://ledger.example.com:443/?ledger=vehicles")
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(ctx) // ends pooled sessions

	owners, err := ledger.ExecuteT(ctx, db, func(ctx context.Context, tx txn.Executor) ([]string, error) {
		res, err := tx.Execute(ctx, "SELECT * FROM Vehicle")
		if err != nil {
			return nil, err // for auto-retry with driver
		}
		var owners []string
		for doc, err := range res.Documents(ctx) {
			if err != nil {
				return nil, err
			}
			fields, err := value.DecodeStruct(value.Proto, doc)
			if err != nil {
				return nil, err
			}
			owners = append(owners, fmt.Sprint(fields["Owner"]))
		}

		return owners, nil
	}, ledger.WithExecuteRetryPolicy(retry.Policy{MaxRetries: 2}))
	if err != nil {
		log.Printf("unexpected error: %v", err)
	}
	log.Println(owners)
}

func Example_startTransaction() {
	ctx := context.TODO()
	db, err := ledger.Open(ctx, "grpc://localhost:8080/?ledger=vehicles&max_concurrent_transactions=10")
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(ctx)

	tx, err := db.StartTransaction(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if _, err = tx.Execute(ctx, "INSERT INTO Vehicle ?", map[string]any{"VIN": "1N4AL11D75C109151"}); err != nil {
		_ = tx.Abort(ctx)
		log.Fatal(err)
	}
	if err = tx.Commit(ctx); ledger.IsDigestMismatch(err) {
		log.Fatal("ledger executed other statements")
	}
}
