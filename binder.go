package pcrescan

// bindPositional implements the Capture Binder's positional mode: walk
// destinations in order, binding each to the correspondingly numbered
// capture group (group 1 to destination 0, and so on), stopping at
// the first unset capture or the first conversion failure. It returns
// the successful-capture counter and, if a conversion failed, the
// error describing it.
func bindPositional(dests []Dest, groups int, group groupAccessor) (int, error) {
	n := len(dests)
	if groups < n {
		n = groups
	}
	count := 0
	for i := 1; i <= n; i++ {
		b, ok := group(i)
		if !ok {
			break
		}
		if err := dests[i-1].Convert(b); err != nil {
			return count, &ConversionError{Index: i, Bytes: b, Err: err}
		}
		count++
	}
	return count, nil
}
