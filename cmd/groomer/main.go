// Package main is the entry point for the groomer CLI.
package main

import (
	"github.com/huangsam/groomer/cmd"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/huangsam/groomer/internal/iocache"
)

func main() {
	cmd.SetStoreManager(iocache.Manager)
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		contract.LogFatal("groomer", err)
	}
}
