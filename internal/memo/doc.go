// Package memo provides a memoizing cache for functions with side effects.
//
// A Cache maps (function name, argument) to the result of the first
// successful call. Wrap returns a function with the same signature that
// consults the cache before invoking the wrapped body, so a repeated call
// neither re-runs the body nor repeats its side effects. Concurrent callers
// of the same key share one execution through singleflight.
package memo
