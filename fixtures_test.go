package ledger_test

import (
	"context"
	"fmt"

	"github.com/rekby/fixenv"
	"github.com/rekby/fixenv/sf"

	"github.com/ledgerdb/ledger-go-sdk"
	"github.com/ledgerdb/ledger-go-sdk/internal/mock"
)

const ledgerName = "vehicles"

func FakeLedger(e fixenv.Env) *mock.Ledger {
	f := func() (*fixenv.GenericResult[*mock.Ledger], error) {
		l := mock.New(ledgerName,
			mock.WithTable("Vehicle"),
			mock.WithTable("Person"),
			mock.WithPageSize(2),
		)

		return fixenv.NewGenericResult(l), nil
	}

	return fixenv.CacheResult(e, f)
}

// LedgerConnString serves FakeLedger over grpc on a local port
func LedgerConnString(e fixenv.Env) string {
	f := func() (*fixenv.GenericResult[string], error) {
		listener := sf.LocalTCPListenerNamed(e, "ledger-grpc-mock")
		srv, _ := mock.NewServer(FakeLedger(e))
		go func() {
			_ = srv.Serve(listener)
		}()

		connString := fmt.Sprintf("grpc://%s/%s", listener.Addr(), ledgerName)

		return fixenv.NewGenericResultWithCleanup(connString, srv.Stop), nil
	}

	return fixenv.CacheResult(e, f)
}

// Driver is connected to FakeLedger directly
func Driver(e fixenv.Env) *ledger.Driver {
	f := func() (*fixenv.GenericResult[*ledger.Driver], error) {
		d, err := ledger.New(context.Background(), FakeLedger(e), ledger.WithLedger(ledgerName))
		if err != nil {
			return nil, err
		}
		clean := func() {
			_ = d.Close(context.Background())
		}

		return fixenv.NewGenericResultWithCleanup(d, clean), nil
	}

	return fixenv.CacheResult(e, f)
}
