// Package placement implements deterministic key placement across a
// volume roster: the on-volume path derivation and the rendezvous (HRW)
// selection of the ordered replica set for a key.
//
// Both functions are pure: the same key and the same volume roster always
// produce the same path and the same ordered volume list, across restarts
// and across processes, so long as the roster is configured identically.
// Nothing in this package talks to the network or holds state.
package placement
