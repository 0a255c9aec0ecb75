package utils

import (
	"github.com/chebyrash/promise"
)

func PromiseResolve[T any](val T) *promise.Promise[T] {
	return promise.New(func(resolve func(T), reject func(error)) {
		resolve(val)
	})
}

// PromiseGo runs fn in its own goroutine and settles the promise with its result.
func PromiseGo[T any](fn func() (T, error)) *promise.Promise[T] {
	return promise.New(func(resolve func(T), reject func(error)) {
		res, err := fn()
		if err != nil {
			reject(err)
			return
		}
		resolve(res)
	})
}
