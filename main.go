package main

import "kyri56xcaesar/pms-tracker/cmd"

func main() {
	cmd.Execute()
}
