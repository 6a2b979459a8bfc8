package orm

// EncodeID is the key representation of a sequential identifier. Encoded
// identifiers sort the same way as their numeric values.
func EncodeID(id uint64) []byte {
	return EncodeSequence(id)
}

// DecodeID reads an identifier encoded with EncodeID.
func DecodeID(raw []byte) (uint64, error) {
	return DecodeSequence(raw)
}

// PrefixRange turns a prefix into a (start, end) range. The end is the
// smallest key greater than any key starting with the prefix, nil if there
// is none.
func PrefixRange(prefix []byte) ([]byte, []byte) {
	if prefix == nil {
		return nil, nil
	}
	start := append([]byte(nil), prefix...)
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return start, end[:i+1]
		}
	}
	return start, nil
}
