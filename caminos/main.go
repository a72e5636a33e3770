// Command caminos runs interconnection network simulations.
package main

import "github.com/nakacristo/caminos-lib-sub002/caminos/cmd"

func main() {
	cmd.Execute()
}
