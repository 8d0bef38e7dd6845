package crawler

// Partition deals items round-robin into at most count chunks, one chunk
// per worker. Chunk sizes differ by at most one, with no regard for item
// cost.
func Partition[T any](items []T, count int) [][]T {
	if count > len(items) {
		count = len(items)
	}
	if count <= 0 {
		return nil
	}
	chunks := make([][]T, count)
	for index, item := range items {
		chunks[index%count] = append(chunks[index%count], item)
	}
	return chunks
}
