package core

// Resize returns buf with length n, reusing its backing array when the
// capacity allows it. The returned slice is zeroed.
func Resize[T Number](buf []T, n int) []T {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		buf = buf[:n]
		Zero(buf)

		return buf
	}

	return make([]T, n)
}

// Zero sets all values in buf to 0.
func Zero[T Number](buf []T) {
	for i := range buf {
		buf[i] = 0
	}
}
