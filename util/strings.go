package util

func CommonPrefix(a, b string) string {
	pos := 0

	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			break
		}
		pos++
	}

	return a[:pos]
}

// UniquePrefixLength returns how many characters of id are needed to
// distinguish it from every other string in ids.
func UniquePrefixLength(id string, ids []string) int {
	longest := 0
	for _, other := range ids {
		if other == id {
			continue
		}
		if l := len(CommonPrefix(id, other)); l > longest {
			longest = l
		}
	}

	return min(longest+1, len(id))
}
