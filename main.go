package main

import (
	"fmt"

	"github.com/opsboard/dashboard-stream-service/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
