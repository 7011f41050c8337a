// Command fastboot-flash flashes Android factory images to devices in
// fastboot mode.
//
// Usage:
//
//	fastboot-flash flash-all husky-factory.zip
//	fastboot-flash flash-all s3://images/husky-factory.zip --serial 2A1B3C4D --yes
//	fastboot-flash run custom-flash.sh --image husky-factory.zip
//	fastboot-flash getvar current-slot
//	fastboot-flash devices
//	fastboot-flash history --run 6f1c...
//	fastboot-flash config init --format yaml
package main

import (
	"os"

	"github.com/moffa90/go-fastboot/internal/cmd"
)

func main() {
	cmd.Main(os.Args[1:])
}
