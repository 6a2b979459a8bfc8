package custody

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/store"
	"github.com/iov-one/threshold/thresholdtest"
	"github.com/iov-one/threshold/thresholdtest/assert"
	"github.com/iov-one/threshold/x/events"
	"github.com/iov-one/threshold/x/execution"
)

func TestDeposit(t *testing.T) {
	db := store.MemStore()
	log := events.NewLog()
	bank := NewBank(log)
	wallet, sender := thresholdtest.NewAddress(), thresholdtest.NewAddress()

	balance, err := bank.Deposit(db, sender, wallet, 40)
	assert.Nil(t, err)
	assert.Equal(t, uint64(40), balance)
	balance, err = bank.Deposit(db, sender, wallet, 2)
	assert.Nil(t, err)
	assert.Equal(t, uint64(42), balance)

	_, err = bank.Deposit(db, sender, wallet, 0)
	assert.IsErr(t, errors.ErrAmount, err)
	_, err = bank.Deposit(db, nil, wallet, 1)
	assert.IsErr(t, errors.ErrInput, err)
	_, err = bank.Deposit(db, sender, wallet, math.MaxUint64)
	assert.IsErr(t, errors.ErrOverflow, err)

	got, err := bank.Balance(db, wallet)
	assert.Nil(t, err)
	assert.Equal(t, uint64(42), got)

	records, err := log.All(db, 0)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(records))
	assert.Equal(t, events.KindDeposit, records[1].Kind)
	assert.Equal(t, sender, records[1].Principal)
	assert.Equal(t, uint64(2), records[1].Value)
	assert.Equal(t, uint64(42), records[1].Balance)
}

func TestTransfer(t *testing.T) {
	src, dest := thresholdtest.NewAddress(), thresholdtest.NewAddress()

	cases := map[string]struct {
		amount   uint64
		wantErr  *errors.Error
		wantSrc  uint64
		wantDest uint64
	}{
		"partial":      {amount: 30, wantSrc: 70, wantDest: 30},
		"everything":   {amount: 100, wantSrc: 0, wantDest: 100},
		"too much":     {amount: 101, wantErr: errors.ErrInsufficientFunds, wantSrc: 100},
		"empty amount": {amount: 0, wantErr: errors.ErrAmount, wantSrc: 100},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			bank := NewBank(events.NewLog())
			_, err := bank.Deposit(db, thresholdtest.NewAddress(), src, 100)
			assert.Nil(t, err)

			assert.IsErr(t, tc.wantErr, bank.Transfer(db, src, dest, tc.amount))

			got, err := bank.Balance(db, src)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantSrc, got)
			got, err = bank.Balance(db, dest)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantDest, got)
		})
	}
}

func TestRouter(t *testing.T) {
	r := NewRouter()
	addr := thresholdtest.NewAddress()
	noop := ContractFunc(func(threshold.Context, threshold.CacheableKVStore, Call) error { return nil })

	r.Register(addr, noop)
	assert.Panics(t, func() { r.Register(addr, noop) })
	assert.Panics(t, func() { r.Register(threshold.Address("short"), noop) })

	if r.Contract(addr) == nil {
		t.Fatal("registered contract not found")
	}
	if r.Contract(thresholdtest.NewAddress()) != nil {
		t.Fatal("unknown address must not resolve")
	}
	var none *Router
	if none.Contract(addr) != nil {
		t.Fatal("nil router must not resolve")
	}
}

func TestCallExecutor(t *testing.T) {
	wallet := thresholdtest.NewAddress()
	account := thresholdtest.NewAddress()
	contract := thresholdtest.NewAddress()
	broken := thresholdtest.NewAddress()

	var calls []Call
	router := NewRouter()
	router.Register(contract, ContractFunc(func(ctx threshold.Context, db threshold.CacheableKVStore, c Call) error {
		calls = append(calls, c)
		return db.Set([]byte("contract:state"), c.Payload)
	}))
	router.Register(broken, ContractFunc(func(threshold.Context, threshold.CacheableKVStore, Call) error {
		return fmt.Errorf("out of gas")
	}))

	cases := map[string]struct {
		action     execution.Action
		wantErr    *errors.Error
		wantWallet uint64
		wantCalls  int
	}{
		"plain transfer": {
			action:     execution.Action{Target: account, Value: 10},
			wantWallet: 90,
		},
		"contract call": {
			action:     execution.Action{Target: contract, Value: 5, Payload: []byte("hello")},
			wantWallet: 95,
			wantCalls:  1,
		},
		"contract call without value": {
			action:     execution.Action{Target: contract, Payload: []byte("free")},
			wantWallet: 100,
			wantCalls:  1,
		},
		"insufficient funds": {
			action:     execution.Action{Target: account, Value: 1000},
			wantErr:    errors.ErrInsufficientFunds,
			wantWallet: 100,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			calls = nil
			db := store.MemStore()
			bank := NewBank(events.NewLog())
			_, err := bank.Deposit(db, thresholdtest.NewAddress(), wallet, 100)
			assert.Nil(t, err)

			exec := NewCallExecutor(bank, router, wallet)
			err = exec.Execute(context.Background(), db, tc.action)
			assert.IsErr(t, tc.wantErr, err)

			got, err := bank.Balance(db, wallet)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantWallet, got)
			assert.Equal(t, tc.wantCalls, len(calls))
			if tc.wantCalls > 0 {
				assert.Equal(t, wallet, calls[0].Wallet)
				assert.Equal(t, tc.action.Payload, calls[0].Payload)
			}
		})
	}

	t.Run("failing contract", func(t *testing.T) {
		db := store.MemStore()
		exec := NewCallExecutor(NewBank(events.NewLog()), router, wallet)
		err := exec.Execute(context.Background(), db, execution.Action{Target: broken})
		if err == nil {
			t.Fatal("contract failure must fail the action")
		}
	})
}
