package cache

import "fmt"

// GenerateKey builds a namespaced cache key, e.g. "overview:AAPL".
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// GenerateKeyWithParams appends each parameter as a key segment so
// request variants (ticker, window, interval) cache independently.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}
