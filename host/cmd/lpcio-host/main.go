// lpcio-host drives the LPC214x GPIO firmware over a serial link
package main

import "lpcio/host/cmd/lpcio-host/cmd"

func main() {
	cmd.Execute()
}
