package main

import (
	"os"

	"github.com/dmitrijs2005/backoffice/internal/admin"
)

func main() {
	os.Exit(admin.Execute())
}
