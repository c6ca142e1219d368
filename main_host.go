//go:build !rp2040 && !rp2350

package main

// The firmware targets rp2040/rp2350 boards; build with tinygo. The
// host-side companion lives in cmd/caplog.
func main() {
	println("captouch firmware requires an rp2040 or rp2350 board (build with tinygo); see cmd/caplog for the host logger")
}
