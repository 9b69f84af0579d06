package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

// MockClient is an in-memory Client. Calls are counted per method.
type MockClient struct {
	PingErr      error
	Transactions map[string]*Transaction
	Timestamps   map[uint64]uint64
	Head         uint64
	HeadErr      error

	mu    sync.Mutex
	Calls map[string]int
}

func NewMockClient() *MockClient {
	return &MockClient{
		Transactions: map[string]*Transaction{},
		Timestamps:   map[uint64]uint64{},
		Calls:        map[string]int{},
	}
}

// WithTransaction registers tx under its hash, mined at timestamp.
func (m *MockClient) WithTransaction(tx *Transaction, timestamp uint64) *MockClient {
	m.Transactions[tx.Hash] = tx
	m.Timestamps[tx.BlockNumber] = timestamp
	return m
}

func (m *MockClient) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
	m.Calls[method]++
	logme.Debugln("mock chain client called:", method)
}

// TotalCalls returns the number of calls over all methods.
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

func (m *MockClient) Ping(ctx context.Context) error {
	m.record("Ping")
	return m.PingErr
}

func (m *MockClient) TransactionByID(ctx context.Context, txid string) (*Transaction, error) {
	m.record("TransactionByID")
	tx, ok := m.Transactions[txid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, txid)
	}
	return tx, nil
}

func (m *MockClient) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	m.record("BlockTimestamp")
	ts, ok := m.Timestamps[number]
	if !ok {
		return 0, fmt.Errorf("block %d not found", number)
	}
	return ts, nil
}

func (m *MockClient) BlockNumber(ctx context.Context) (uint64, error) {
	m.record("BlockNumber")
	return m.Head, m.HeadErr
}
