package main

import "github.com/voltgrid/billnotify/cmd"

func main() {
	cmd.Execute()
}
