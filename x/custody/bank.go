package custody

import (
	"math"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/orm"
	"github.com/iov-one/threshold/x/events"
)

// BucketName is where the balances are stored, keyed by address.
const BucketName = "balances"

// Account is the stored balance of an address.
type Account struct {
	Amount uint64
}

// Validate is called before every save.
func (a *Account) Validate() error {
	return nil
}

// Bank moves value between accounts.
type Bank struct {
	events *events.Log
	bucket orm.Bucket
}

// NewBank returns a bank that records deposits in given log.
func NewBank(log *events.Log) *Bank {
	return &Bank{
		events: log,
		bucket: orm.NewBucket(BucketName),
	}
}

// Balance returns the amount held by given address. An unknown address
// holds nothing.
func (b *Bank) Balance(db threshold.ReadOnlyKVStore, addr threshold.Address) (uint64, error) {
	var acc Account
	if _, err := b.bucket.Get(db, addr, &acc); err != nil {
		return 0, errors.Wrapf(err, "balance of %s", addr)
	}
	return acc.Amount, nil
}

// Deposit credits the wallet account with the amount received from the
// sender and returns the resulting balance of the wallet.
func (b *Bank) Deposit(db threshold.KVStore, sender, wallet threshold.Address, amount uint64) (uint64, error) {
	if err := sender.Validate(); err != nil {
		return 0, errors.Wrap(err, "sender")
	}
	if amount == 0 {
		return 0, errors.Wrap(errors.ErrAmount, "non-positive deposit")
	}
	balance, err := b.credit(db, wallet, amount)
	if err != nil {
		return 0, err
	}
	if _, err := b.events.Append(db, events.Deposit(sender, amount, balance)); err != nil {
		return 0, err
	}
	return balance, nil
}

// Transfer moves the amount from src to dest. It fails without any change
// if src does not hold enough.
func (b *Bank) Transfer(db threshold.KVStore, src, dest threshold.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrAmount, "non-positive transfer")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	have, err := b.Balance(db, src)
	if err != nil {
		return err
	}
	if have < amount {
		return errors.Wrapf(errors.ErrInsufficientFunds, "%s holds %d, %d required", src, have, amount)
	}
	if err := b.set(db, src, have-amount); err != nil {
		return err
	}
	_, err = b.credit(db, dest, amount)
	return err
}

func (b *Bank) credit(db threshold.KVStore, addr threshold.Address, amount uint64) (uint64, error) {
	have, err := b.Balance(db, addr)
	if err != nil {
		return 0, err
	}
	if have > math.MaxUint64-amount {
		return 0, errors.Wrapf(errors.ErrOverflow, "balance of %s", addr)
	}
	total := have + amount
	return total, b.set(db, addr, total)
}

func (b *Bank) set(db threshold.KVStore, addr threshold.Address, amount uint64) error {
	if amount == 0 {
		return b.bucket.Delete(db, addr)
	}
	return b.bucket.Save(db, addr, &Account{Amount: amount})
}
