// Command screenstack drives the screenflow transition engine: it replays
// YAML scenarios headlessly, or runs a live stack of fading screens that can
// be switched from the terminal.
package main

func main() {
	Execute()
}
