package utils

func Map[T any, R any](a []T, mapper func(T) R) []R {
	res := make([]R, len(a))
	for i, v := range a {
		res[i] = mapper(v)
	}
	return res
}

func Filter[T any](a []T, keep func(T) bool) []T {
	res := make([]T, 0, len(a))
	for _, v := range a {
		if keep(v) {
			res = append(res, v)
		}
	}
	return res
}

// Chunk splits a into consecutive slices of at most size elements.
func Chunk[T any](a []T, size int) [][]T {
	if size <= 0 || len(a) == 0 {
		if len(a) == 0 {
			return nil
		}
		return [][]T{a}
	}
	res := make([][]T, 0, (len(a)+size-1)/size)
	for size < len(a) {
		a, res = a[size:], append(res, a[0:size:size])
	}
	return append(res, a)
}

// Unique keeps the first element for every key, preserving order.
func Unique[T any, K comparable](a []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(a))
	res := make([]T, 0, len(a))
	for _, v := range a {
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		res = append(res, v)
	}
	return res
}

func IndexOf[T comparable](a []T, v T) int {
	for i, val := range a {
		if val == v {
			return i
		}
	}
	return -1
}
