package symtab

// Buckets is the number of chains in every table: one per lowercase letter
// plus one for underscore.
const Buckets = 27

const underscoreBucket = 26

// Hash returns the bucket for name. Only the first byte is considered; it must
// be a lowercase ASCII letter or an underscore.
func Hash(name string) (int, error) {
	if name == "" {
		return 0, invalidIdentifier(name, "empty identifier")
	}
	c := name[0]
	switch {
	case c >= 'a' && c <= 'z':
		return int(c - 'a'), nil
	case c == '_':
		return underscoreBucket, nil
	}
	return 0, invalidIdentifier(name, "leading character outside [a-z_]")
}

// Hashable reports whether name can be stored in a table.
func Hashable(name string) bool {
	_, err := Hash(name)
	return err == nil
}
