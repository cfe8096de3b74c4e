package orm

// prefixRange turns a prefix into a (start, end) range. The start is the
// given prefix value and the end is calculated by adding 1 bit to the start
// value. Nil is not allowed as prefix.
func prefixRange(prefix []byte) ([]byte, []byte) {
	start := make([]byte, len(prefix))
	copy(start, prefix)
	end := make([]byte, len(prefix))
	copy(end, prefix)

	// increment the final byte by one, and if it overflows, check
	// the byte before
	l := len(end) - 1
	end[l]++
	for end[l] == 0 && l > 0 {
		l--
		end[l]++
	}

	// if the first byte is 0, then the whole prefix was 0xFF...FF
	// and there is no upper bound
	if l == 0 && end[0] == 0 {
		return start, nil
	}
	return start, end[:l+1]
}
