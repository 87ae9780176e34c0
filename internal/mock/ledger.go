// Package mock provides an in-memory ledger which speaks the session protocol
// of transport.Client. It recomputes commit digests, pages results, detects
// optimistic concurrency conflicts and can inject failures.
package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgerdb/ledger-go-sdk/internal/digest"
	"github.com/ledgerdb/ledger-go-sdk/transport"
	"github.com/ledgerdb/ledger-go-sdk/value"
)

const ListTablesStatement = "SELECT name FROM information_schema.user_tables WHERE status = 'ACTIVE'"

// Command is a session command of the protocol.
type Command uint8

const (
	CommandStartSession = Command(iota)
	CommandStartTransaction
	CommandExecuteStatement
	CommandFetchPage
	CommandCommitTransaction
	CommandAbortTransaction
	CommandEndSession
)

// Stats counts the commands which the ledger served.
type Stats struct {
	SessionsStarted int
	SessionsEnded   int
	Transactions    int
	Statements      int
	PagesFetched    int
	Commits         int
	Aborts          int
	OccConflicts    int
}

type table struct {
	docs    [][]byte
	version uint64
}

type Ledger struct {
	name     string
	pageSize int
	codec    value.Codec
	hasher   digest.Hasher

	mu       sync.Mutex
	tables   map[string]*table
	sessions map[string]*session
	faults   map[Command][]error
	corrupt  int
	stats    Stats
	closed   bool
}

type Option func(l *Ledger)

// WithPageSize sets the number of documents in one page. Non-positive size
// puts every result into a single page.
func WithPageSize(size int) Option {
	return func(l *Ledger) {
		l.pageSize = size
	}
}

func WithTable(name string, docs ...map[string]any) Option {
	return func(l *Ledger) {
		t := &table{}
		for _, doc := range docs {
			b, err := l.codec.Encode(doc)
			if err != nil {
				panic(err)
			}
			t.docs = append(t.docs, b)
		}
		l.tables[name] = t
	}
}

func New(name string, opts ...Option) *Ledger {
	l := &Ledger{
		name:     name,
		codec:    value.Proto,
		hasher:   digest.SHA256,
		tables:   make(map[string]*table),
		sessions: make(map[string]*session),
		faults:   make(map[Command][]error),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// FailNext makes the next call of cmd fail with err. Failures of one command
// are returned in the order they were added.
func (l *Ledger) FailNext(cmd Command, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.faults[cmd] = append(l.faults[cmd], err)
}

// CorruptNextCommitDigest makes the next successful commit return a zero
// digest instead of the computed one.
func (l *Ledger) CorruptNextCommitDigest() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.corrupt++
}

func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.stats
}

// OpenSessions returns the number of sessions started and not ended.
func (l *Ledger) OpenSessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.sessions)
}

// Documents returns the committed documents of the table decoded.
func (l *Ledger) Documents(name string) []map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tables[name]
	if !ok {
		return nil
	}
	docs := make([]map[string]any, 0, len(t.docs))
	for _, b := range t.docs {
		doc, err := value.DecodeStruct(l.codec, b)
		if err != nil {
			panic(err)
		}
		docs = append(docs, doc)
	}

	return docs
}

// l.mu must be locked
func (l *Ledger) fault(cmd Command) error {
	errs := l.faults[cmd]
	if len(errs) == 0 {
		return nil
	}
	l.faults[cmd] = errs[1:]

	return errs[0]
}

func badRequest(format string, args ...any) error {
	return &transport.ServerError{
		Code:      transport.CodeBadRequest,
		Message:   fmt.Sprintf(format, args...),
		RequestID: uuid.NewString(),
	}
}

func (l *Ledger) StartSession(_ context.Context, ledgerName string) (transport.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, &transport.ServerError{Code: transport.CodeUnavailable, Message: "client is closed"}
	}
	if err := l.fault(CommandStartSession); err != nil {
		return nil, err
	}
	if ledgerName != l.name {
		return nil, badRequest("ledger %q not found", ledgerName)
	}

	s := &session{
		id:     uuid.NewString(),
		ledger: l,
	}
	l.sessions[s.id] = s
	l.stats.SessionsStarted++

	return s, nil
}

func (l *Ledger) Close(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true

	return nil
}

type transaction struct {
	id     string
	digest digest.Accumulator
	reads  map[string]uint64
	writes []func()
	pages  map[string][][]byte
}

type session struct {
	id     string
	ledger *Ledger
	tx     *transaction
	// invalid sessions reject every command
	invalid bool
}

func (s *session) ID() string {
	return s.id
}

// s.ledger.mu must be locked
func (s *session) check(cmd Command) error {
	if s.invalid {
		return &transport.ServerError{
			Code:    transport.CodeInvalidSession,
			Message: fmt.Sprintf("Session %s is invalid", s.id),
		}
	}
	err := s.ledger.fault(cmd)
	if err == nil {
		return nil
	}

	var serverErr *transport.ServerError
	if errors.As(err, &serverErr) {
		switch serverErr.Code {
		case transport.CodeInvalidSession, transport.CodeTransactionExpired:
			s.invalid = true
			s.tx = nil
			delete(s.ledger.sessions, s.id)
		case transport.CodeOccConflict:
			s.tx = nil
		}
	}

	return err
}

// s.ledger.mu must be locked
func (s *session) transaction(txID string) (*transaction, error) {
	if s.tx == nil || s.tx.id != txID {
		return nil, badRequest("transaction %s is not open on session %s", txID, s.id)
	}

	return s.tx, nil
}

func (s *session) StartTransaction(context.Context) (string, error) {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := s.check(CommandStartTransaction); err != nil {
		return "", err
	}
	if s.tx != nil {
		return "", badRequest("transaction %s is already open on session %s", s.tx.id, s.id)
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	seed, err := l.codec.Encode(id)
	if err != nil {
		return "", err
	}
	s.tx = &transaction{
		id:     id,
		digest: digest.NewAccumulator(l.hasher, seed),
		reads:  make(map[string]uint64),
		pages:  make(map[string][][]byte),
	}
	l.stats.Transactions++

	return id, nil
}

func (s *session) ExecuteStatement(
	_ context.Context, txID, statement string, parameters [][]byte,
) (*transport.Page, error) {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := s.check(CommandExecuteStatement); err != nil {
		return nil, err
	}
	tx, err := s.transaction(txID)
	if err != nil {
		return nil, err
	}

	encodedStatement, err := l.codec.Encode(statement)
	if err != nil {
		return nil, err
	}
	tx.digest = tx.digest.Add(encodedStatement, parameters...)
	l.stats.Statements++

	values, writes, err := s.run(tx, statement, parameters)
	if err != nil {
		return nil, err
	}

	return s.page(tx, values, writes), nil
}

func (s *session) FetchPage(_ context.Context, txID, pageToken string) (*transport.Page, error) {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := s.check(CommandFetchPage); err != nil {
		return nil, err
	}
	tx, err := s.transaction(txID)
	if err != nil {
		return nil, err
	}
	values, ok := tx.pages[pageToken]
	if !ok {
		return nil, badRequest("unknown page token %q", pageToken)
	}
	delete(tx.pages, pageToken)
	l.stats.PagesFetched++

	return s.page(tx, values, 0), nil
}

// page cuts the first page from values and remembers the rest under a new
// token.
func (s *session) page(tx *transaction, values [][]byte, writes int64) *transport.Page {
	p := &transport.Page{
		Values:            values,
		ConsumedIOs:       &transport.IOUsage{ReadIOs: int64(len(values)), WriteIOs: writes},
		TimingInformation: &transport.TimingInformation{ProcessingTimeMilliseconds: 1},
	}
	if size := s.ledger.pageSize; size > 0 && len(values) > size {
		p.Values = values[:size]
		p.ConsumedIOs.ReadIOs = int64(size)
		p.NextPageToken = uuid.NewString()
		tx.pages[p.NextPageToken] = values[size:]
	}

	return p
}

func (s *session) CommitTransaction(_ context.Context, txID string, commitDigest []byte) ([]byte, error) {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := s.check(CommandCommitTransaction); err != nil {
		return nil, err
	}
	tx, err := s.transaction(txID)
	if err != nil {
		return nil, err
	}
	s.tx = nil

	if !tx.digest.Matches(commitDigest) {
		return nil, badRequest("commit digest of transaction %s does not match", txID)
	}
	for name, version := range tx.reads {
		if t, ok := l.tables[name]; ok && t.version != version {
			l.stats.OccConflicts++

			return nil, &transport.ServerError{
				Code:      transport.CodeOccConflict,
				Message:   fmt.Sprintf("Transaction %s has encountered an occ conflict on %s", txID, name),
				RequestID: uuid.NewString(),
			}
		}
	}
	for _, write := range tx.writes {
		write()
	}
	l.stats.Commits++

	if l.corrupt > 0 {
		l.corrupt--

		return make([]byte, len(tx.digest.Digest().Bytes())), nil
	}

	return tx.digest.Digest().Bytes(), nil
}

func (s *session) AbortTransaction(context.Context) error {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := s.check(CommandAbortTransaction); err != nil {
		return err
	}
	s.tx = nil
	l.stats.Aborts++

	return nil
}

func (s *session) EndSession(context.Context) error {
	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := s.check(CommandEndSession); err != nil {
		return err
	}
	s.invalid = true
	s.tx = nil
	delete(l.sessions, s.id)
	l.stats.SessionsEnded++

	return nil
}
