// The main package for the topcv-crawler executable.
package main

import (
	"github.com/minhtran-vn/topcv-crawler/cmd"
)

func main() {
	cmd.Execute()
}
