package ledger

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
)

var (
	errUnknownScheme = xerrors.New("unknown scheme")
	errUnknownParam  = xerrors.New("unknown param")
)

var dsnParams = map[string]func(value string) (Option, error){
	"ledger": func(value string) (Option, error) {
		return WithLedger(value), nil
	},
	"token": func(value string) (Option, error) {
		return WithAccessToken(value), nil
	},
	"max_concurrent_transactions": func(value string) (Option, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, xerrors.WithStackTrace(err)
		}

		return WithMaxConcurrentTransactions(n), nil
	},
	"retry_limit": func(value string) (Option, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, xerrors.WithStackTrace(err)
		}

		return WithRetryLimit(n), nil
	},
	"acquire_timeout": func(value string) (Option, error) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, xerrors.WithStackTrace(err)
		}

		return WithAcquireTimeout(d), nil
	},
}

func parseConnectionString(dsn string) (opts []Option, _ error) {
	uri, err := url.Parse(dsn)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	switch uri.Scheme {
	case "grpc":
	case "grpcs":
		opts = append(opts, WithTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: uri.Hostname(),
		}))
	default:
		return nil, xerrors.WithStackTrace(fmt.Errorf("%w: %q", errUnknownScheme, uri.Scheme))
	}
	opts = append(opts, WithEndpoint(uri.Host))

	if name := strings.Trim(uri.Path, "/"); name != "" {
		opts = append(opts, WithLedger(name))
	}

	for key, values := range uri.Query() {
		parse, has := dsnParams[key]
		if !has {
			return nil, xerrors.WithStackTrace(fmt.Errorf("%w: %q", errUnknownParam, key))
		}
		for _, v := range values {
			opt, err := parse(v)
			if err != nil {
				return nil, xerrors.WithStackTrace(fmt.Errorf("param %q: %w", key, err))
			}
			opts = append(opts, opt)
		}
	}

	return opts, nil
}
