package main

import "sslmanager-backend/cmd/sslmanager-cli/cmd"

func main() {
	cmd.Execute()
}
