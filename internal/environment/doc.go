// Package environment resolves the set of service endpoint URLs a client
// talks to from a single base URL.
//
// A URLData value holds one mandatory base URL plus optional per-service
// overrides. Every accessor falls back to a fixed derivation from the base
// when its override is absent:
//
//	urls, err := environment.NewURLData("https://vault.example.com")
//	urls.APIURL()       // https://vault.example.com/api
//	urls.SendShareURL() // https://vault.example.com/#/send
//
// The Resolver picks the active URLData from managed configuration, the
// active account, the pre-auth cache and finally DefaultUS, in that order.
// The Service holds the active value for the whole process and swaps it
// atomically on every load or explicit pre-auth change, so readers always
// see one coherent snapshot.
package environment
