package orm

import (
	"github.com/iov-one/threshold/errors"
	amino "github.com/tendermint/go-amino"
)

// schemaVersion prefixes every serialized model. It keeps stored values
// non-empty and leaves room for a migration of the model layout.
const schemaVersion byte = 1

var cdc = amino.NewCodec()

// Marshal serializes given model to its binary representation.
func Marshal(model interface{}) ([]byte, error) {
	raw, err := cdc.MarshalBinaryBare(model)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrEncoding, "marshal %T: %s", model, err)
	}
	return append([]byte{schemaVersion}, raw...), nil
}

// Unmarshal loads the binary representation into dest, which must be a
// pointer.
func Unmarshal(raw []byte, dest interface{}) error {
	if len(raw) == 0 {
		return errors.Wrapf(errors.ErrEncoding, "unmarshal %T: empty value", dest)
	}
	if raw[0] != schemaVersion {
		return errors.Wrapf(errors.ErrEncoding, "unmarshal %T: unknown schema %d", dest, raw[0])
	}
	// amino refuses empty input, a model with all fields zero is encoded
	// as nothing.
	if len(raw) == 1 {
		return nil
	}
	if err := cdc.UnmarshalBinaryBare(raw[1:], dest); err != nil {
		return errors.Wrapf(errors.ErrEncoding, "unmarshal %T: %s", dest, err)
	}
	return nil
}
