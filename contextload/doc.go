// Package contextload measures context loading behavior: how large loaded
// contexts are, how long loads take, how often the cache hits and how
// relevant loaded content is. It validates the claim that on-demand loading
// reduces average context size against the preload-everything baseline.
package contextload
